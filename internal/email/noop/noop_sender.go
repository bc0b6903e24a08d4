package noop

import (
	"context"

	"github.com/sirupsen/logrus"

	"lawdesk/internal/domain"
	"lawdesk/internal/email"
	"lawdesk/internal/port"
)

type noopSender struct {
	log *logrus.Entry
}

// NewNoopSender creates an EmailSender that only logs the messages it would send.
func NewNoopSender(log *logrus.Entry) port.EmailSender {
	return &noopSender{log: log}
}

func (s *noopSender) SendImportSummary(_ context.Context, toEmail, toName string, result *domain.UploadResult) error {
	msg := email.BuildSummary(toName, result)
	s.log.WithFields(logrus.Fields{
		"to":        toEmail,
		"import_id": result.ImportID,
		"subject":   msg.Subject,
	}).Info("[NOOP EMAIL] import summary")
	return nil
}
