package notify

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogGatewayWritesCode(t *testing.T) {
	var buf bytes.Buffer
	g := NewLogGateway(slog.New(slog.NewTextHandler(&buf, nil)))

	require.NoError(t, g.SendCode(context.Background(), "alice@example.com", "123456"))
	assert.Contains(t, buf.String(), "alice@example.com")
	assert.Contains(t, buf.String(), "123456")
}

func TestLogGatewayHonoursCancellation(t *testing.T) {
	g := NewLogGateway(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, g.SendCode(ctx, "alice@example.com", "123456"), context.Canceled)
}

func TestSMTPGatewayFailsFastOnUnreachableHost(t *testing.T) {
	g := NewSMTPGateway(SMTPConfig{
		Host:     "127.0.0.1",
		Port:     1,
		Username: "mailer@example.com",
		Password: "secret",
		Timeout:  time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	assert.Error(t, g.SendCode(ctx, "alice@example.com", "123456"))
}
