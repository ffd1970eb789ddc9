package security

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"presence-chat/internal/config"
	"presence-chat/internal/errs"
)

var (
	htmlTag    = regexp.MustCompile(`<[^>]*>`)
	whitespace = regexp.MustCompile(`\s+`)
)

// InputValidator handles input sanitization and length limits
type InputValidator struct {
	config *config.ServerConfig
}

// NewInputValidator creates a new input validator
func NewInputValidator(config *config.ServerConfig) *InputValidator {
	return &InputValidator{
		config: config,
	}
}

// Name sanitizes a participant name. Empty results are left for the core
// services to reject.
func (v *InputValidator) Name(name string) (string, error) {
	name = whitespace.ReplaceAllString(v.StripHTML(name), " ")
	if utf8.RuneCountInString(name) > v.config.MaxNameLength {
		return "", fmt.Errorf("%w: name too long (max %d characters)", errs.ErrValidation, v.config.MaxNameLength)
	}
	return name, nil
}

// Recipient sanitizes a message recipient, which is a name or the room
func (v *InputValidator) Recipient(to string) (string, error) {
	to = whitespace.ReplaceAllString(v.StripHTML(to), " ")
	if utf8.RuneCountInString(to) > v.config.MaxNameLength {
		return "", fmt.Errorf("%w: to too long (max %d characters)", errs.ErrValidation, v.config.MaxNameLength)
	}
	return to, nil
}

// Text sanitizes message content
func (v *InputValidator) Text(text string) (string, error) {
	text = v.StripHTML(text)
	if utf8.RuneCountInString(text) > v.config.MaxMessageLength {
		return "", fmt.Errorf("%w: text too long (max %d characters)", errs.ErrValidation, v.config.MaxMessageLength)
	}
	return text, nil
}

// StripHTML removes markup tags and surrounding whitespace
func (v *InputValidator) StripHTML(input string) string {
	return strings.TrimSpace(htmlTag.ReplaceAllString(input, ""))
}
