package prompt

import (
	"fmt"
	"sort"
	"strings"

	"pdfrag/internal/domain"
)

// Strictness selects how hard the prompt constrains the answer's format.
type Strictness string

const (
	// Plain asks for structured markdown without a rigid contract.
	Plain Strictness = "plain"
	// Strict pins the answer to an exact header/blockquote layout.
	Strict Strictness = "strict"
)

// Assembler renders the final prompt from retrieved matches. There is one
// template; tone instructions and the optional strict formatting contract are
// the only variable parts.
type Assembler struct {
	tones      *Tones
	preamble   string
	strictness Strictness
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithPreamble overrides the default assistant persona line.
func WithPreamble(p string) Option {
	return func(a *Assembler) { a.preamble = p }
}

// WithStrictness selects the formatting contract variant.
func WithStrictness(s Strictness) Option {
	return func(a *Assembler) { a.strictness = s }
}

const defaultPreamble = "You are a sacred spiritual assistant. Respond to the user's question based on the content provided below, and always reflect the Laws of Creation framework."

// NewAssembler builds a prompt assembler over the given tone set.
func NewAssembler(tones *Tones, opts ...Option) *Assembler {
	a := &Assembler{tones: tones, preamble: defaultPreamble, strictness: Plain}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Build renders the prompt. Matches are concatenated in the order received —
// ranking belongs to the index, never re-sorted here. An empty match list is
// valid: the template's own "state that you do not have information"
// instruction is the designed fallback, not an error.
func (a *Assembler) Build(question string, matches []domain.Match, tone string) (string, error) {
	instr, err := a.tones.Instruction(tone)
	if err != nil {
		return "", err
	}

	texts := make([]string, 0, len(matches))
	for _, m := range matches {
		if m.Text != "" {
			texts = append(texts, m.Text)
		}
	}
	context := strings.Join(texts, "\n\n")

	var b strings.Builder
	b.WriteString(a.preamble)
	b.WriteString("\n\nContext:\n")
	b.WriteString(context)
	b.WriteString("\n\nQuestion:\n")
	b.WriteString(question)
	b.WriteString("\n\nInstructions:\n")
	b.WriteString(instr)
	if clause := citationClause(matches); clause != "" {
		b.WriteString("\n")
		b.WriteString(clause)
	}
	if a.strictness == Strict {
		b.WriteString("\n\n")
		b.WriteString(strictContract)
	}
	b.WriteString("\nIf you cannot find an answer, state that you do not have information grounded in the provided context.")
	b.WriteString("\nDo not invent information. Do not hallucinate beyond the source material.")
	return strings.TrimSpace(b.String()), nil
}

// citationClause collects law metadata values across matches into a
// deduplicated citation request. Values are sorted so the prompt is identical
// regardless of match arrival order.
func citationClause(matches []domain.Match) string {
	seen := make(map[string]struct{})
	var laws []string
	for _, m := range matches {
		law, ok := m.Metadata["law"].(string)
		if !ok || law == "" {
			continue
		}
		if _, dup := seen[law]; dup {
			continue
		}
		seen[law] = struct{}{}
		laws = append(laws, law)
	}
	if len(laws) == 0 {
		return ""
	}
	sort.Strings(laws)
	return fmt.Sprintf("If possible, reference or cite the following laws: %s.", strings.Join(laws, ", "))
}

// strictContract is the exact-format variant: one parameterized contract
// instead of per-tone copies of it.
const strictContract = `You MUST structure your response EXACTLY as follows:

## Resonance-Based Response: [Main Topic]

> [User's key statement or question in blockquote]

### 1. [First Major Point]
* [Key concept 1]
* [Key concept 2]
* [Key concept 3]

> [Relevant passage in blockquote]

---

### 2. [Second Major Point]
* [Key concept 1]
* [Key concept 2]
* [Key concept 3]

> [Relevant passage in blockquote]

---

### 3. [Third Major Point]
* [Key concept 1]
* [Key concept 2]
* [Key concept 3]

> [Relevant passage in blockquote]

## Summary (in the framework's voice):

> [Concise summary tying the points together]

Required formatting: ## for main headers, ### for section headers, > for
blockquotes and passages, * for bullet points, --- between sections. Exactly
three major points, each with exactly three bullet points and one quoted
passage.`
