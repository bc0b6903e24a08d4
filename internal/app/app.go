// Package app wires the import pipeline from configuration. The server and
// the importctl CLI share it.
package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"lawdesk/internal/bulkimport"
	"lawdesk/internal/config"
	"lawdesk/internal/email/noop"
	"lawdesk/internal/email/ses"
	"lawdesk/internal/port"
	"lawdesk/internal/repository/postgres"
	"lawdesk/internal/service"
	"lawdesk/internal/spreadsheet"
	s3storage "lawdesk/internal/storage/s3"
)

// NewImportService builds the import service over db. S3 is only touched
// when archiving is enabled.
func NewImportService(ctx context.Context, cfg *config.Config, db *sqlx.DB, log *logrus.Entry) (service.ImportService, error) {
	groups := postgres.NewGroupRepo(db)
	clients := postgres.NewClientRepo(db)
	contacts := postgres.NewContactRepo(db)
	users := postgres.NewUserRepo(db)

	var storage port.ObjectStorage
	if cfg.Import.Archive {
		var err error
		if storage, err = s3storage.NewS3Client(ctx, &cfg.S3); err != nil {
			return nil, fmt.Errorf("initializing S3 client: %w", err)
		}
	}

	sender, err := NewEmailSender(ctx, cfg.Email, log)
	if err != nil {
		return nil, err
	}

	return service.NewImportService(service.ImportDeps{
		Codec:   spreadsheet.NewCodec(),
		Parser:  bulkimport.NewParser(cfg.Import.MaxRows),
		Builder: bulkimport.NewPreviewBuilder(groups, clients, contacts, users, log.WithField("component", "preview")),
		Committer: bulkimport.NewCommitter(postgres.NewTransactor(db), bulkimport.CommitterConfig{
			BatchSize:    cfg.Import.BatchSize,
			BatchTimeout: cfg.Import.BatchTimeout,
		}, log.WithField("component", "commit")),
		Storage: storage,
		Email:   sender,
		Bucket:  cfg.S3.Bucket,
		Config:  cfg.Import,
		Log:     log,
	}), nil
}

// NewEmailSender selects the sender named by cfg.Provider.
func NewEmailSender(ctx context.Context, cfg config.EmailConfig, log *logrus.Entry) (port.EmailSender, error) {
	switch cfg.Provider {
	case "", "noop":
		return noop.NewNoopSender(log.WithField("component", "email")), nil
	case "ses":
		sender, err := ses.NewSESSender(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("initializing SES sender: %w", err)
		}
		return sender, nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}
