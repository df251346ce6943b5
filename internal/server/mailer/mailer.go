// Package mailer delivers account notifications. Delivery itself is not
// wired to any provider yet; LogMailer only records that a message was due.
package mailer

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
)

type Mailer interface {
	SendActivation(ctx context.Context, email, username, token string) error
}

// LogMailer logs who would have been mailed. The token is never written out.
type LogMailer struct {
	logger logging.Logger
}

func NewLogMailer(logger logging.Logger) *LogMailer {
	return &LogMailer{logger: logger.With("module", "mailer")}
}

func (m *LogMailer) SendActivation(ctx context.Context, email, username, _ string) error {
	m.logger.Info(ctx, "activation mail queued", "username", username, "email", email)
	return nil
}
