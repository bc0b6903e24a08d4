package app

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lawdesk/internal/config"
)

func TestNewEmailSender(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	log := logrus.NewEntry(logger)

	sender, err := NewEmailSender(context.Background(), config.EmailConfig{Provider: "noop"}, log)
	require.NoError(t, err)
	assert.NotNil(t, sender)

	_, err = NewEmailSender(context.Background(), config.EmailConfig{Provider: "carrier-pigeon"}, log)
	assert.ErrorContains(t, err, "carrier-pigeon")
}
