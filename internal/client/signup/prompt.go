package signup

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/atinyakov/signupform/internal/models"
	"github.com/atinyakov/signupform/internal/rules"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// API is the server surface used by the prompt.
type API interface {
	IDChecker
	Submit(ctx context.Context, form Form) (models.Identity, error)
}

// Prompt is a terminal signup form. Every entered field is treated as a key
// release: it runs a validation cycle and prints the trigger field's message.
type Prompt struct {
	// ReadPassword reads the password. Defaults to reading a line from the input.
	ReadPassword func() (string, error)

	in     *bufio.Reader
	out    io.Writer
	api    API
	rules  *rules.Set
	logger *zap.Logger
}

// NewPrompt creates a prompt reading from in and writing to out.
func NewPrompt(in io.Reader, out io.Writer, api API, set *rules.Set, logger *zap.Logger) *Prompt {
	p := &Prompt{
		in:     bufio.NewReader(in),
		out:    out,
		api:    api,
		rules:  set,
		logger: logger,
	}
	p.ReadPassword = p.readLine
	return p
}

// TerminalPassword returns a password reader for the terminal fd that does
// not echo input.
func TerminalPassword(fd int, out io.Writer) func() (string, error) {
	return func() (string, error) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
}

// Run walks the user through the form until the server accepts it. Pressing
// Enter on a later pass keeps a field's current value.
func (p *Prompt) Run(ctx context.Context) (models.Identity, error) {
	renderer := &terminalRenderer{out: p.out}
	validator := NewValidator(p.rules, p.api, renderer, p.logger)

	var form Form
	for {
		for _, f := range Fields {
			if err := ctx.Err(); err != nil {
				return models.Identity{}, err
			}
			value, err := p.readField(f, form)
			if err != nil {
				return models.Identity{}, err
			}
			check := validator.KeyUp(ctx, form.With(f, value), f)
			form = check.Form
			validator.Wait()
		}

		last := renderer.Last()
		if !last.SubmitEnabled {
			if last.Err != nil {
				fmt.Fprintf(p.out, "Could not check the ID number: %v\n", last.Err)
			}
			fmt.Fprintln(p.out, "Submit is disabled, please correct the form.")
			continue
		}

		identity, err := p.api.Submit(ctx, form)
		var rejected *RejectedError
		switch {
		case errors.As(err, &rejected):
			for _, f := range Fields {
				if msg, ok := rejected.Fields[f]; ok {
					fmt.Fprintf(p.out, "  ✗ %s\n", msg)
				}
			}
			continue
		case err != nil:
			return models.Identity{}, err
		}

		fmt.Fprintf(p.out, "✅ Welcome, %s %s!\n", identity.FirstName, identity.LastName)
		return identity, nil
	}
}

func (p *Prompt) readField(f Field, form Form) (string, error) {
	label := string(f)
	if r, ok := p.rules.Lookup(string(f)); ok {
		label = r.Label
	}
	current := form.Value(f)

	var (
		value string
		err   error
	)
	if f == Password {
		if current != "" {
			fmt.Fprintf(p.out, "%s [unchanged]: ", label)
		} else {
			fmt.Fprintf(p.out, "%s: ", label)
		}
		value, err = p.ReadPassword()
	} else {
		if current != "" {
			fmt.Fprintf(p.out, "%s [%s]: ", label, current)
		} else {
			fmt.Fprintf(p.out, "%s: ", label)
		}
		value, err = p.readLine()
	}
	if err != nil {
		return "", err
	}
	if value == "" {
		return current, nil
	}
	return value, nil
}

func (p *Prompt) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

type terminalRenderer struct {
	out io.Writer

	mu   sync.Mutex
	last Verdict
}

func (r *terminalRenderer) Render(v Verdict) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = v
	if v.Message != "" {
		fmt.Fprintf(r.out, "  ✗ %s\n", v.Message)
	}
}

func (r *terminalRenderer) Last() Verdict {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}
