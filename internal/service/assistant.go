// Package service wires retrieval, prompt assembly, and completion into the
// question-answering core used by the front end.
package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"pdfrag/internal/domain"
	"pdfrag/internal/prompt"
	"pdfrag/internal/retrieval"
	"pdfrag/internal/session"
)

// ErrInvalidQuestion marks input rejected before any model call. The wrapped
// message is shown to the user as-is.
var ErrInvalidQuestion = errors.New("invalid question")

// Assistant answers questions from the embedded corpus. It reads from the
// index and never writes to it.
type Assistant struct {
	retriever   *retrieval.Retriever
	assembler   *prompt.Assembler
	completer   domain.Completer
	tones       *prompt.Tones
	log         *session.Log
	maxTokens   int
	temperature float64
}

// Config bounds the completion call.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// NewAssistant assembles the query-time service.
func NewAssistant(
	retriever *retrieval.Retriever,
	assembler *prompt.Assembler,
	completer domain.Completer,
	tones *prompt.Tones,
	log *session.Log,
	cfg Config,
) *Assistant {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 600
	}
	if log == nil {
		log = session.NewLog()
	}
	return &Assistant{
		retriever:   retriever,
		assembler:   assembler,
		completer:   completer,
		tones:       tones,
		log:         log,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

// Tones lists the selectable tone names.
func (a *Assistant) Tones() []string { return a.tones.Names() }

// Session exposes the append-only session log.
func (a *Assistant) Session() *session.Log { return a.log }

// Ask validates the question, retrieves context, assembles the prompt, and
// returns the model's answer together with the session-log index of the
// exchange (for later rating). An empty retrieval still produces an answer:
// the prompt instructs the model to say it has no grounded information.
func (a *Assistant) Ask(ctx context.Context, question, tone string, filter map[string]any) (string, int, error) {
	if err := ValidateQuestion(question); err != nil {
		return "", -1, err
	}
	matches, err := a.retriever.Retrieve(ctx, question, filter)
	if err != nil {
		return "", -1, err
	}
	p, err := a.assembler.Build(question, matches, tone)
	if err != nil {
		return "", -1, err
	}
	answer, err := a.completer.Complete(ctx, p, a.maxTokens, a.temperature)
	if err != nil {
		return "", -1, fmt.Errorf("completion: %w", err)
	}
	entry := a.log.Append(question, tone, answer)
	return answer, entry, nil
}

var (
	profanityRe  = regexp.MustCompile(`(?i)\b(fuck|shit|damn|wtf|fml)\b`)
	dismissiveRe = regexp.MustCompile(`(?i)\b(yeah right|whatever|duh)\b`)
	bangRunRe    = regexp.MustCompile(`!{2,}`)
	questionRunRe = regexp.MustCompile(`\?{2,}`)
)

// ValidateQuestion is the sincerity check run before any API call: questions
// that are too short, hostile, or dismissive get a user-facing message
// instead of a model round trip.
func ValidateQuestion(question string) error {
	trimmed := strings.TrimSpace(question)
	// Character minimum, not bytes: multibyte questions count per rune.
	if utf8.RuneCountInString(trimmed) < 5 {
		return fmt.Errorf("%w: please provide a more detailed question to receive a meaningful response", ErrInvalidQuestion)
	}
	if profanityRe.MatchString(trimmed) || dismissiveRe.MatchString(trimmed) ||
		bangRunRe.MatchString(trimmed) || questionRunRe.MatchString(trimmed) {
		return fmt.Errorf("%w: this assistant is reserved for sincere inquiry; please reframe your question", ErrInvalidQuestion)
	}
	return nil
}
