package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"lawdesk/internal/app"
	"lawdesk/internal/config"
	"lawdesk/internal/domain"
	"lawdesk/internal/logging"
	"lawdesk/internal/repository/postgres"
	"lawdesk/internal/service"
)

var rootCmd = &cobra.Command{
	Use:           "importctl",
	Short:         "Bulk client import tool",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	asUserID int64
	outPath  string
	format   string
)

func init() {
	rootCmd.PersistentFlags().Int64Var(&asUserID, "as", 0, "ID of the user the import runs as")
	rootCmd.PersistentFlags().StringVarP(&outPath, "out", "o", "", "Write a workbook to this path instead of JSON to stdout")
	rootCmd.PersistentFlags().StringVar(&format, "format", "", "Workbook format for --out: xlsx or csv (default from the file extension)")
}

// session is the state shared by commands that touch the database.
type session struct {
	cfg   *config.Config
	db    *sqlx.DB
	svc   service.ImportService
	user  *domain.User
	actor domain.Actor
}

func (s *session) Close() {
	_ = s.db.Close()
}

func openSession(ctx context.Context) (*session, error) {
	if asUserID <= 0 {
		return nil, fmt.Errorf("--as is required")
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logrus.NewEntry(logging.NewWithOutput(cfg.Log, os.Stderr))

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return nil, err
	}
	user, err := postgres.NewUserRepo(db).GetByID(ctx, asUserID)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("loading user %d: %w", asUserID, err)
	}
	svc, err := app.NewImportService(ctx, cfg, db, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &session{
		cfg:  cfg,
		db:   db,
		svc:  svc,
		user: user,
		actor: domain.Actor{
			UserID: user.ID,
			Email:  user.Email,
			Name:   user.FullName,
			Role:   user.Role,
		},
	}, nil
}

func openImportFile(path string) (service.ImportFile, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return service.ImportFile{}, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return service.ImportFile{}, nil, err
	}
	return service.ImportFile{Name: filepath.Base(path), Size: info.Size(), Body: f}, func() { _ = f.Close() }, nil
}

// outFormat resolves the workbook format for --out.
func outFormat() (domain.FileType, error) {
	f := format
	if f == "" {
		f = strings.TrimPrefix(strings.ToLower(filepath.Ext(outPath)), ".")
	}
	switch domain.FileType(f) {
	case domain.FileTypeXLSX, domain.FileTypeCSV:
		return domain.FileType(f), nil
	default:
		return "", fmt.Errorf("unsupported output format %q", f)
	}
}

func writeOut(write func(w io.Writer) error) error {
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
