// Package notification delivers alert messages to subscribers.
package notification

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tvtracker/tvtracker/internal/config"
	"github.com/tvtracker/tvtracker/internal/notification/email"
	"github.com/tvtracker/tvtracker/internal/notification/mock"
	"github.com/tvtracker/tvtracker/internal/notification/types"
)

// Message is re-exported for callers that only deal with dispatch.
type Message = types.Message

// Dispatcher sends a message to all of its recipients.
type Dispatcher interface {
	Type() types.NotifierType
	Send(ctx context.Context, msg Message) error
}

// New returns the SMTP dispatcher when mail is enabled and a log-only
// dispatcher otherwise.
func New(cfg config.MailConfig, logger zerolog.Logger) Dispatcher {
	if !cfg.Enabled {
		logger.Info().Msg("Mail disabled, alerts will only be logged")
		return mock.New("log", logger)
	}
	return email.New("smtp", email.Settings{
		Server:     cfg.Server,
		Port:       cfg.Port,
		Encryption: email.EncryptionMode(cfg.Encryption),
		Username:   cfg.Username,
		Password:   cfg.Password,
		From:       cfg.From,
		UseHTML:    cfg.UseHTML,
	}, logger)
}
