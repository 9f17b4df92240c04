package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfrag/internal/domain"
	"pdfrag/internal/prompt"
	"pdfrag/internal/retrieval"
	"pdfrag/internal/session"
	"pdfrag/internal/vectorstore/memory"
)

type fixedEmbedder struct{}

func (fixedEmbedder) Model() string { return "fake" }

func (fixedEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	return []float64{1, 0}, nil
}

type fieldTok struct{}

func (fieldTok) Encode(text string) []int   { return make([]int, len(strings.Fields(text))) }
func (fieldTok) Decode(tokens []int) string { return "" }
func (fieldTok) Count(text string) int      { return len(strings.Fields(text)) }

// echoCompleter returns the prompt it was given, so tests can inspect the
// assembled prompt end to end.
type echoCompleter struct{}

func (echoCompleter) Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	return prompt, nil
}

func newAssistant(t *testing.T, store domain.VectorStore) *Assistant {
	t.Helper()
	r := retrieval.New(fixedEmbedder{}, store, fieldTok{}, retrieval.Config{TopK: 5})
	tones := prompt.DefaultTones()
	return NewAssistant(r, prompt.NewAssembler(tones), echoCompleter{}, tones, session.NewLog(), Config{})
}

func TestAskCitesAllLawsAcrossMatches(t *testing.T) {
	store := memory.NewStore()
	require.NoError(t, store.Upsert(context.Background(), []domain.Record{
		{ID: "a_0", Vector: []float64{1, 0}, Metadata: map[string]any{
			"text": "choice is foundational", "law": "Law of Choice"}},
		{ID: "b_0", Vector: []float64{0.9, 0.1}, Metadata: map[string]any{
			"text": "refinement never ends", "law": "Law of Refinement"}},
	}))
	a := newAssistant(t, store)

	answer, entry, err := a.Ask(context.Background(), "how do choice and refinement relate?", "teaching", nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, entry, 0)
	assert.Contains(t, answer, "Law of Choice")
	assert.Contains(t, answer, "Law of Refinement")
	assert.Equal(t, 1, strings.Count(answer, "Law of Choice"))
	assert.Contains(t, answer, "choice is foundational")
	assert.Contains(t, answer, "refinement never ends")
}

func TestAskEmptyIndexStillAnswers(t *testing.T) {
	a := newAssistant(t, memory.NewStore())
	answer, _, err := a.Ask(context.Background(), "is anything indexed?", "explanatory", nil)
	require.NoError(t, err)
	assert.Contains(t, answer, "state that you do not have information grounded in the provided context")
}

func TestAskUnknownTone(t *testing.T) {
	a := newAssistant(t, memory.NewStore())
	_, _, err := a.Ask(context.Background(), "a valid question", "bogus", nil)
	assert.ErrorIs(t, err, domain.ErrConfig)
}

func TestAskLogsSession(t *testing.T) {
	a := newAssistant(t, memory.NewStore())
	_, entry, err := a.Ask(context.Background(), "what is truth?", "scriptural", nil)
	require.NoError(t, err)

	a.Session().Rate(entry, "Useful")
	entries := a.Session().Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "what is truth?", entries[0].Question)
	assert.Equal(t, "scriptural", entries[0].Tone)
	assert.Equal(t, "Useful", entries[0].Feedback)
}

func TestValidateQuestion(t *testing.T) {
	tests := []struct {
		name string
		in   string
		ok   bool
	}{
		{"valid question", "what is the law of choice?", true},
		{"too short", "hm?", false},
		{"multibyte short", "ζω?", false},
		{"multibyte valid", "τί ἐστιν ἀλήθεια;", true},
		{"whitespace only", "      ", false},
		{"profanity", "what the fuck is this", false},
		{"dismissive", "yeah right, as if that works", false},
		{"exclamation run", "tell me now!!", false},
		{"question run", "why?? why??", false},
		{"single punctuation ok", "why does refinement matter?", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQuestion(tt.in)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidQuestion)
			}
		})
	}
}

func TestAskRejectsInvalidBeforeAnyCall(t *testing.T) {
	a := newAssistant(t, memory.NewStore())
	_, _, err := a.Ask(context.Background(), "??", "teaching", nil)
	assert.ErrorIs(t, err, ErrInvalidQuestion)
	assert.Equal(t, 0, a.Session().Len())
}
