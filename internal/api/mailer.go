package api

import (
	"context"
	"log/slog"

	"github.com/erazemk/zaloga/internal/model"
)

// Mailer delivers password reset links to users.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to *model.User, link string) error
}

// LogMailer writes reset links to the log instead of sending mail.
type LogMailer struct{}

// SendPasswordReset implements Mailer.
func (LogMailer) SendPasswordReset(ctx context.Context, to *model.User, link string) error {
	slog.InfoContext(ctx, "password reset requested", "user", to.Username, "email", to.Email, "link", link)
	return nil
}
