// Package session keeps the append-only log of one interactive session and
// renders it as a plain-text transcript.
package session

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"pdfrag/internal/domain"
)

// NotRated is the feedback placeholder before the user rates an answer.
const NotRated = "Not Rated"

// Log is an append-only list of session entries, alive for the process only.
type Log struct {
	mu      sync.Mutex
	entries []domain.SessionEntry
}

// NewLog returns an empty session log.
func NewLog() *Log { return &Log{} }

// Append records one exchange and returns its position in the log.
func (l *Log) Append(question, tone, answer string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, domain.SessionEntry{
		Time:     time.Now().UTC(),
		Question: question,
		Tone:     tone,
		Answer:   answer,
		Feedback: NotRated,
	})
	return len(l.entries) - 1
}

// Rate attaches a feedback label to the entry at index.
func (l *Log) Rate(index int, feedback string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if index >= 0 && index < len(l.entries) {
		l.entries[index].Feedback = feedback
	}
}

// Len reports the number of entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Entries returns a copy of the log.
func (l *Log) Entries() []domain.SessionEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.SessionEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Transcript renders the whole session as plain text, one block per entry.
func (l *Log) Transcript() string {
	var b strings.Builder
	for _, e := range l.Entries() {
		fmt.Fprintf(&b, "Time: %s\n", e.Time.Format(time.RFC3339))
		fmt.Fprintf(&b, "Tone: %s\n", e.Tone)
		fmt.Fprintf(&b, "Question: %s\n", e.Question)
		fmt.Fprintf(&b, "Answer: %s\n", e.Answer)
		fmt.Fprintf(&b, "Resonance: %s\n", e.Feedback)
		b.WriteString(strings.Repeat("-", 40))
		b.WriteString("\n")
	}
	return b.String()
}

// Export writes the transcript to path.
func (l *Log) Export(path string) error {
	return os.WriteFile(path, []byte(l.Transcript()), 0o644)
}
