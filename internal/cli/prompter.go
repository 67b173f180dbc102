package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/quillfin/quill/internal/model"
)

// Prompter drives the interactive resolution loop: one pending merchant
// at a time, showing the raw description, the cleaned token, and the
// suggestion when there is one.
type Prompter struct {
	writer io.Writer
	reader *NonBlockingReader
	bar    *progressbar.ProgressBar
	mu     sync.Mutex
}

// NewPrompter creates a prompter reading from reader and writing to
// writer. Nil arguments default to stdin and stdout.
func NewPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	return &Prompter{
		writer: writer,
		reader: NewNonBlockingReader(reader),
	}
}

// SetTotal installs a progress bar for a run of the given size.
func (p *Prompter) SetTotal(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if total <= 0 {
		p.bar = nil
		return
	}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.writer),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("resolving merchants"),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(p.writer)
		}),
	)
}

// ConfirmResolution presents one pending row and returns the user's
// decision: accept the suggestion, name a new entity, or skip.
func (p *Prompter) ConfirmResolution(ctx context.Context, pending model.PendingResolution) (model.Decision, error) {
	select {
	case <-ctx.Done():
		return model.Decision{}, ctx.Err()
	default:
	}

	if _, err := fmt.Fprintln(p.writer, RenderBox("Unresolved merchant", p.formatPending(pending))); err != nil {
		return model.Decision{}, fmt.Errorf("failed to write pending box: %w", err)
	}

	decision, err := p.promptDecision(ctx, pending)
	if err != nil {
		return model.Decision{}, err
	}
	p.advance()
	return decision, nil
}

func (p *Prompter) promptDecision(ctx context.Context, pending model.PendingResolution) (model.Decision, error) {
	if pending.SuggestedEntity != "" {
		fmt.Fprintf(p.writer, "  [A] Accept suggestion: %s\n", SuccessStyle.Render(pending.SuggestedEntity))
		fmt.Fprintln(p.writer, "  [N] Name a new entity")
		fmt.Fprintln(p.writer, "  [S] Skip this transaction")
		fmt.Fprintln(p.writer)

		choice, err := p.promptChoice(ctx, "Choice", []string{"a", "n", "s"})
		if err != nil {
			return model.Decision{}, err
		}
		switch choice {
		case "a":
			return model.Decision{Action: model.DecisionAccept}, nil
		case "s":
			return model.Decision{Action: model.DecisionSkip}, nil
		}
		// fall through to naming a new entity
	}
	return p.promptNewEntity(ctx, pending)
}

// promptNewEntity collects a free-text canonical name and category.
// The literal answer "skip" skips the row; an empty canonical name
// defaults to the cleaned token; an empty category means UNKNOWN.
func (p *Prompter) promptNewEntity(ctx context.Context, pending model.PendingResolution) (model.Decision, error) {
	fmt.Fprint(p.writer, FormatPrompt("Canonical name (or 'skip')"))
	name, err := p.reader.ReadLine(ctx)
	if err != nil {
		return model.Decision{}, fmt.Errorf("failed to read canonical name: %w", err)
	}
	if strings.EqualFold(strings.TrimSpace(name), "skip") {
		return model.Decision{Action: model.DecisionSkip}, nil
	}
	if strings.TrimSpace(name) == "" {
		name = pending.CleanedToken
		fmt.Fprintln(p.writer, SubtleStyle.Render("using cleaned token: "+name))
	}

	fmt.Fprint(p.writer, FormatPrompt("Category (empty = UNKNOWN)"))
	category, err := p.reader.ReadLine(ctx)
	if err != nil {
		return model.Decision{}, fmt.Errorf("failed to read category: %w", err)
	}

	return model.Decision{
		Action:        model.DecisionNew,
		CanonicalName: strings.TrimSpace(name),
		Category:      strings.TrimSpace(category),
	}, nil
}

func (p *Prompter) promptChoice(ctx context.Context, label string, valid []string) (string, error) {
	for {
		fmt.Fprint(p.writer, FormatPrompt(label))
		line, err := p.reader.ReadLine(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to read choice: %w", err)
		}
		choice := strings.ToLower(strings.TrimSpace(line))
		for _, v := range valid {
			if choice == v {
				return choice, nil
			}
		}
		fmt.Fprintln(p.writer, FormatWarning("please answer one of: "+strings.Join(valid, ", ")))
	}
}

func (p *Prompter) formatPending(pending model.PendingResolution) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Description: %s\n", pending.RawDescription)
	fmt.Fprintf(&b, "Cleaned:     %s", pending.CleanedToken)
	if pending.SuggestedEntity != "" {
		fmt.Fprintf(&b, "\nSuggestion:  %s (%s) score %.2f",
			pending.SuggestedEntity,
			pending.SuggestedCategory,
			pending.SuggestedScore)
	}
	return b.String()
}

func (p *Prompter) advance() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}
