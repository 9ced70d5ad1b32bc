package ui

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/charmbracelet/huh"
)

// ErrAborted is returned when the user cancels a prompt (Ctrl+C).
var ErrAborted = errors.New("prompt aborted")

// Prompter asks questions with huh forms.
type Prompter struct {
	in         io.Reader
	out        io.Writer
	accessible bool
}

type PrompterOption func(*Prompter)

// WithIO redirects the prompts. Handy for piped input together with
// WithAccessible.
func WithIO(in io.Reader, out io.Writer) PrompterOption {
	return func(p *Prompter) {
		p.in = in
		p.out = out
	}
}

// WithAccessible switches huh to line-based prompts without a TUI.
func WithAccessible(b bool) PrompterOption {
	return func(p *Prompter) { p.accessible = b }
}

func NewPrompter(opts ...PrompterOption) *Prompter {
	p := &Prompter{}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *Prompter) run(ctx context.Context, field huh.Field) error {
	form := huh.NewForm(huh.NewGroup(field)).
		WithTheme(huh.ThemeBase16()).
		WithAccessible(p.accessible).
		WithShowHelp(false)
	if p.in != nil {
		form = form.WithInput(p.in)
	}
	if p.out != nil {
		form = form.WithOutput(p.out)
	}

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return ErrAborted
		}
		return err
	}
	return nil
}

// Ask reads free text. An empty answer yields defaultValue.
func (p *Prompter) Ask(ctx context.Context, title, defaultValue string) (string, error) {
	var resp string
	input := huh.NewInput().Title(title).Value(&resp)
	if defaultValue != "" {
		input = input.Placeholder(defaultValue)
	}

	if err := p.run(ctx, input); err != nil {
		return "", err
	}
	if strings.TrimSpace(resp) == "" {
		return defaultValue, nil
	}
	return strings.TrimSpace(resp), nil
}

// Choose offers a fixed set of answers, preselecting defaultValue.
func (p *Prompter) Choose(ctx context.Context, title string, choices []string, defaultValue string) (string, error) {
	resp := defaultValue
	sel := huh.NewSelect[string]().
		Title(title).
		Options(huh.NewOptions(choices...)...).
		Value(&resp)

	if err := p.run(ctx, sel); err != nil {
		return "", err
	}
	return resp, nil
}
