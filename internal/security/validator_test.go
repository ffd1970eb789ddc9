package security

import (
	"strings"
	"testing"

	"presence-chat/internal/config"
	"presence-chat/internal/errs"

	"github.com/stretchr/testify/require"
)

func newValidator() *InputValidator {
	cfg := config.DefaultServerConfig()
	cfg.MaxNameLength = 10
	cfg.MaxMessageLength = 20
	return NewInputValidator(cfg)
}

func TestInputValidator_Name(t *testing.T) {
	v := newValidator()

	t.Run("should strip tags and trim", func(t *testing.T) {
		req := require.New(t)

		name, err := v.Name("  <b>ana</b>  ")

		req.NoError(err)
		req.Equal("ana", name)
	})

	t.Run("should collapse inner whitespace", func(t *testing.T) {
		name, err := v.Name("ana \t maria")
		require.NoError(t, err)
		require.Equal(t, "ana maria", name)
	})

	t.Run("should leave empty names to the services", func(t *testing.T) {
		name, err := v.Name("<script></script>")
		require.NoError(t, err)
		require.Empty(t, name)
	})

	t.Run("should reject long names", func(t *testing.T) {
		_, err := v.Name(strings.Repeat("a", 11))
		require.ErrorIs(t, err, errs.ErrValidation)
	})
}

func TestInputValidator_Text(t *testing.T) {
	v := newValidator()

	t.Run("should keep inner whitespace", func(t *testing.T) {
		text, err := v.Text(" hi <i>there</i>\n  you ")
		require.NoError(t, err)
		require.Equal(t, "hi there\n  you", text)
	})

	t.Run("should count runes, not bytes", func(t *testing.T) {
		_, err := v.Text(strings.Repeat("é", 20))
		require.NoError(t, err)
	})

	t.Run("should reject long text", func(t *testing.T) {
		_, err := v.Text(strings.Repeat("a", 21))
		require.ErrorIs(t, err, errs.ErrValidation)
	})
}

func TestInputValidator_Recipient(t *testing.T) {
	v := newValidator()

	to, err := v.Recipient(" Todos ")
	require.NoError(t, err)
	require.Equal(t, "Todos", to)

	_, err = v.Recipient(strings.Repeat("b", 11))
	require.ErrorIs(t, err, errs.ErrValidation)
}
