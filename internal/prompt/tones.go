// Package prompt loads tone instructions and assembles retrieval prompts.
package prompt

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"pdfrag/internal/domain"
)

// Tones maps tone names to instruction fragments. The key set enumerates the
// tones the caller may select; it is configuration, not logic.
type Tones struct {
	byName map[string]string
}

// DefaultTones returns the built-in tone set used when no template file is
// configured.
func DefaultTones() *Tones {
	return &Tones{byName: map[string]string{
		"scriptural":    "Answer in a reverent, scriptural register, quoting the provided passages where they speak directly to the question.",
		"teaching":      "Answer as a patient teacher: define terms, build up from first principles, and close with a short recap.",
		"explanatory":   "Answer plainly and concretely, favoring clear everyday language over ornamentation.",
		"contemplative": "Answer reflectively, dwelling on the questions the material itself raises before offering a conclusion.",
		"personal":      "Answer in a warm first-person voice, as one sharing lived experience grounded in the material.",
		"conversational": "Answer informally, as in a dialogue between friends, while staying within the provided material.",
		"prophetic":     "Answer with declarative conviction, framing the material's claims as testimony.",
		"philosophical": "Answer by examining assumptions and tracing implications, citing the material as evidence.",
	}}
}

// LoadTones reads a tone-name → instruction mapping from a JSON file,
// matching the template store the assistant has always shipped with. A
// missing file yields the built-in defaults.
func LoadTones(path string) (*Tones, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultTones(), nil
		}
		return nil, err
	}
	byName := make(map[string]string)
	if err := json.Unmarshal(data, &byName); err != nil {
		return nil, fmt.Errorf("parse tone templates %s: %w", path, err)
	}
	if len(byName) == 0 {
		return nil, fmt.Errorf("%w: tone template file %s is empty", domain.ErrConfig, path)
	}
	return &Tones{byName: byName}, nil
}

// Instruction returns the instruction text for a tone. Unknown tones are a
// configuration error, caught before any model call.
func (t *Tones) Instruction(name string) (string, error) {
	instr, ok := t.byName[name]
	if !ok {
		return "", fmt.Errorf("%w: unknown tone %q", domain.ErrConfig, name)
	}
	return instr, nil
}

// Names lists the selectable tones in sorted order for stable display.
func (t *Tones) Names() []string {
	names := make([]string, 0, len(t.byName))
	for name := range t.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a tone exists.
func (t *Tones) Has(name string) bool {
	_, ok := t.byName[name]
	return ok
}
