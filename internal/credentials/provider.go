// Package credentials obtains the upload secret without ever echoing,
// storing, or logging it.
package credentials

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/chromedevtools/releng/internal/models"
)

// ErrNotTerminal is returned when the secret would have to be read from a
// non-interactive stdin. Piped secrets end up in shell history and CI logs.
var ErrNotTerminal = errors.New("secret prompt requires an interactive terminal")

// ErrEmptySecret is returned when the operator entered nothing.
var ErrEmptySecret = errors.New("empty secret")

// Provider returns a secret for the given prompt.
type Provider interface {
	Secret(prompt string) (models.Secret, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(prompt string) (models.Secret, error)

// Secret implements Provider.
func (f ProviderFunc) Secret(prompt string) (models.Secret, error) {
	return f(prompt)
}

// Static returns a Provider that always yields s. Intended for tests.
func Static(s models.Secret) Provider {
	return ProviderFunc(func(string) (models.Secret, error) {
		return s, nil
	})
}

// TerminalProvider reads the secret from a terminal with echo disabled.
type TerminalProvider struct {
	In  *os.File  // usually os.Stdin
	Out io.Writer // prompt destination, usually os.Stderr
}

// NewTerminalProvider reads from stdin and prompts on stderr, keeping stdout
// clean for the URL report.
func NewTerminalProvider() *TerminalProvider {
	return &TerminalProvider{In: os.Stdin, Out: os.Stderr}
}

// Secret implements Provider.
func (p *TerminalProvider) Secret(prompt string) (models.Secret, error) {
	fd := int(p.In.Fd())
	if !term.IsTerminal(fd) {
		return "", ErrNotTerminal
	}

	fmt.Fprint(p.Out, prompt)
	raw, err := term.ReadPassword(fd)
	// ReadPassword swallows the newline the operator typed.
	fmt.Fprintln(p.Out)
	if err != nil {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}

	secret := models.Secret(strings.TrimRight(string(raw), "\r\n"))
	if secret.Empty() {
		return "", ErrEmptySecret
	}
	return secret, nil
}
