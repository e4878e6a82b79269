package templates

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_PasswordResetLink(t *testing.T) {
	t.Parallel()

	e := NewEngine(Config{}, nil)
	out, err := Render(context.Background(), e, PasswordResetLink, PasswordResetLinkData{
		AppName:          "Crypt Journal",
		ResetURL:         "https://journal.example.com/reset_password/abc123",
		ExpiresInMinutes: 15,
		SupportEmail:     "help@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "Crypt Journal: reset your password", out.Subject)
	assert.Contains(t, out.EmailText, "https://journal.example.com/reset_password/abc123")
	assert.Contains(t, out.EmailText, "expires in 15 minutes")
	assert.Contains(t, out.EmailText, "help@example.com")
	assert.Contains(t, out.EmailHTML, `href="https://journal.example.com/reset_password/abc123"`)
}

func TestRender_EscapesHTMLOnly(t *testing.T) {
	t.Parallel()

	e := NewEngine(Config{}, nil)
	out, err := Render(context.Background(), e, PasswordResetLink, PasswordResetLinkData{
		AppName:          "<Journal>",
		ResetURL:         "https://journal.example.com/reset_password/t",
		ExpiresInMinutes: 15,
	})
	require.NoError(t, err)

	assert.Contains(t, out.EmailText, "<Journal>")
	assert.Contains(t, out.EmailHTML, "&lt;Journal&gt;")
	assert.NotContains(t, out.EmailText, "Questions?")
}

func TestRenderAny_UnknownTemplate(t *testing.T) {
	t.Parallel()

	_, err := NewEngine(Config{}, nil).RenderAny(context.Background(), "user.nope", nil)
	assert.Error(t, err)
}

func TestRenderAny_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEngine(Config{}, nil).RenderAny(ctx, PasswordResetLink.ID(), PasswordResetLinkData{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_DiskReload(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "custom.tmpl")
	require.NoError(t, os.WriteFile(path, []byte(`{{define "subject"}}v1 {{.}}{{end}}`), 0o600))

	e := NewEngine(Config{Dir: dir, Reload: true}, nil)
	out, err := e.RenderAny(context.Background(), "custom", "x")
	require.NoError(t, err)
	assert.Equal(t, "v1 x", out.Subject)

	require.NoError(t, os.WriteFile(path, []byte(`{{define "subject"}}v2 {{.}}{{end}}`), 0o600))
	out, err = e.RenderAny(context.Background(), "custom", "x")
	require.NoError(t, err)
	assert.Equal(t, "v2 x", out.Subject)
}

func TestEngine_EmptySubject(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blank.tmpl"), []byte(`{{define "email_text"}}hi{{end}}`), 0o600))

	_, err := NewEngine(Config{Dir: dir}, nil).RenderAny(context.Background(), "blank", nil)
	assert.ErrorContains(t, err, "empty subject")
}
