package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/smtp"
	"pesterer/pkg/config"
	"pesterer/pkg/models"
	"strings"
	"testing"

	"github.com/jordan-wright/email"
	"github.com/stretchr/testify/require"
)

var (
	catalog = models.NewCatalog(
		[]models.Product{{ID: "123", Name: "Tent"}},
		[]models.Store{{ID: "007", FullID: "007AAAAA", Description: "Milano"}},
	)
	changes = []models.Change{
		{Kind: models.ChangeUpdate, Reading: models.Reading{ProductID: "123", StoreID: "007AAAAA", Quantity: 3}, Previous: 0},
		{Kind: models.ChangeInsert, Reading: models.Reading{ProductID: "456", StoreID: "007BBBBB", Quantity: 0}},
	}
)

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	require.NoError(t, Log{Logger: logger}.Notify(context.Background(), catalog, changes))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "product_name=Tent")
	require.Contains(t, lines[0], "store_name=Milano")
	require.Contains(t, lines[0], "quantity=3")
	require.Contains(t, lines[0], "available=true")
	require.Contains(t, lines[1], "kind=insert")
}

type failing struct{ err error }

func (f failing) Notify(context.Context, models.Catalog, []models.Change) error { return f.err }

func TestMulti(t *testing.T) {
	a, b := errors.New("a"), errors.New("b")
	err := Multi{failing{a}, Log{Logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))}, failing{b}}.
		Notify(context.Background(), catalog, changes)
	require.ErrorIs(t, err, a)
	require.ErrorIs(t, err, b)

	require.NoError(t, Multi{}.Notify(context.Background(), catalog, changes))
}

func TestEmail(t *testing.T) {
	var sent []string
	var gotAuth []smtp.Auth
	n := NewEmail(config.Email{
		Server:   "smtp.example.com",
		Port:     587,
		Username: "bot",
		Password: "secret",
		From:     "bot@example.com",
		To:       []string{"me@example.com"},
	})
	n.send = func(addr string, auth smtp.Auth, mail *email.Email) error {
		sent = append(sent, addr)
		gotAuth = append(gotAuth, auth)
		if auth != nil {
			return errors.New("smtp: server doesn't support AUTH")
		}
		return nil
	}

	require.NoError(t, n.Notify(context.Background(), catalog, changes))
	require.Equal(t, []string{"smtp.example.com:587", "smtp.example.com:587"}, sent)
	require.NotNil(t, gotAuth[0])
	require.Nil(t, gotAuth[1])

	msg := n.Message(catalog, changes)
	require.Equal(t, []string{"me@example.com"}, msg.To)
	require.Contains(t, msg.Subject, "2")
	require.Equal(t, "Tent at Milano: 0 -> 3\n456 at 007BBBBB: now tracked, quantity 0\n", string(msg.Text))

	// nothing to say, nothing sent
	sent = nil
	require.NoError(t, n.Notify(context.Background(), catalog, nil))
	require.Empty(t, sent)
}
