package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"pesterer/pkg/config"
	"pesterer/pkg/models"
	"strings"

	"github.com/jordan-wright/email"
)

// Email mails a summary of all changes of a run.
type Email struct {
	Config config.Email
	send   func(addr string, auth smtp.Auth, mail *email.Email) error
}

func NewEmail(cfg config.Email) *Email {
	return &Email{Config: cfg}
}

func (e *Email) Notify(ctx context.Context, catalog models.Catalog, changes []models.Change) error {
	if len(changes) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	mail := e.Message(catalog, changes)
	addr := fmt.Sprintf("%s:%d", e.Config.Server, e.Config.Port)

	send := e.send
	if send == nil {
		send = func(addr string, auth smtp.Auth, mail *email.Email) error {
			return mail.Send(addr, auth)
		}
	}

	var auth smtp.Auth
	if e.Config.Username != "" {
		auth = smtp.PlainAuth("", e.Config.Username, e.Config.Password, e.Config.Server)
	}
	err := send(addr, auth, mail)
	if err != nil && auth != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = send(addr, nil, mail)
	}
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func (e *Email) Message(catalog models.Catalog, changes []models.Change) *email.Email {
	mail := email.NewEmail()
	mail.From = e.Config.From
	mail.To = e.Config.To
	mail.Subject = fmt.Sprintf("Availability changed for %d product/store pairs", len(changes))

	var body strings.Builder
	for _, c := range changes {
		product := catalog.ProductName(c.Reading.ProductID)
		store := catalog.StoreName(c.Reading.StoreID)
		switch c.Kind {
		case models.ChangeInsert:
			fmt.Fprintf(&body, "%s at %s: now tracked, quantity %d\n", product, store, c.Reading.Quantity)
		default:
			fmt.Fprintf(&body, "%s at %s: %d -> %d\n", product, store, c.Previous, c.Reading.Quantity)
		}
	}
	mail.Text = []byte(body.String())
	return mail
}
