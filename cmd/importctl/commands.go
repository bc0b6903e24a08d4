package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"lawdesk/internal/domain"
	"lawdesk/internal/repository/postgres"
	"lawdesk/internal/service"
	"lawdesk/internal/spreadsheet"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Write the import template workbook",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if outPath == "" {
			outPath = "client-import-template.xlsx"
		}
		ft, err := outFormat()
		if err != nil {
			return err
		}
		// The template needs no database.
		svc := service.NewImportService(service.ImportDeps{Codec: spreadsheet.NewCodec()})
		return writeOut(func(w io.Writer) error { return svc.WriteTemplate(w, ft) })
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview <file>",
	Short: "Validate a spreadsheet and show what an import would do",
	Long: `Parses and validates the spreadsheet without writing to the database.
With --out the preview is written as a corrected workbook that can be
edited and previewed again.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		file, done, err := openImportFile(args[0])
		if err != nil {
			return err
		}
		defer done()

		preview, err := s.svc.Preview(ctx, s.actor, file)
		if err != nil {
			return err
		}
		if outPath == "" {
			return printJSON(cmd.OutOrStdout(), preview)
		}
		ft, err := outFormat()
		if err != nil {
			return err
		}
		return writeOut(func(w io.Writer) error { return s.svc.WritePreview(w, preview, ft) })
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a spreadsheet",
	Long: `Parses, validates and commits the spreadsheet in one step. Rows with
errors are skipped and reported. With --out the result is written as a
results workbook.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		file, done, err := openImportFile(args[0])
		if err != nil {
			return err
		}
		defer done()

		result, err := s.svc.Import(ctx, s.actor, file)
		if err != nil {
			return err
		}
		if outPath == "" {
			return printJSON(cmd.OutOrStdout(), result)
		}
		return writeOut(func(w io.Writer) error { return s.svc.WriteResults(w, result) })
	},
}

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print an access token for the --as user",
	Long: `Signs an access token for calling the import API as the --as user.
The user must be active.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if tokenTTL <= 0 {
			return fmt.Errorf("--ttl must be positive")
		}
		ctx := cmd.Context()
		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		auth := service.NewAuthService(postgres.NewUserRepo(s.db), s.cfg.JWT)
		token, err := issueToken(auth, s.user, tokenTTL)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
		return err
	},
}

func issueToken(auth service.AuthService, user *domain.User, ttl time.Duration) (string, error) {
	if !user.IsActive {
		return "", fmt.Errorf("user %d is inactive", user.ID)
	}
	return auth.IssueToken(user, ttl)
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "Token lifetime")
	rootCmd.AddCommand(templateCmd, previewCmd, importCmd, tokenCmd)
}
