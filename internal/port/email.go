package port

import (
	"context"

	"lawdesk/internal/domain"
)

// EmailSender defines the contract for sending emails.
type EmailSender interface {
	SendImportSummary(ctx context.Context, toEmail, toName string, result *domain.UploadResult) error
}
