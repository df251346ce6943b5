package mailer

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogMailer_DoesNotLogToken(t *testing.T) {
	var buf bytes.Buffer
	l := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	m := NewLogMailer(l)
	require.NoError(t, m.SendActivation(context.Background(), "a@x.com", "alice", "secret-token-value"))

	out := buf.String()
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "a@x.com")
	assert.Contains(t, out, `"module":"mailer"`)
	assert.NotContains(t, out, "secret-token-value")
}
