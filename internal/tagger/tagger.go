// Package tagger assigns descriptive tags to documents and derives stable
// chunk identifiers.
package tagger

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// CatalogEntry maps a document-name prefix to its tag set.
type CatalogEntry struct {
	Prefix string            `yaml:"prefix"`
	Tags   map[string]string `yaml:"tags"`
}

// Catalog is an ordered list of prefix entries. Order is a total order over
// entries: lookups return the first case-insensitive prefix match, not the
// longest or best one.
type Catalog struct {
	entries []CatalogEntry
}

// NewCatalog builds a catalog from entries in lookup order.
func NewCatalog(entries []CatalogEntry) *Catalog {
	return &Catalog{entries: entries}
}

// LoadCatalog reads an ordered catalog from a YAML file. A missing file is
// not an error; it yields an empty catalog and every document falls back to
// the generic source tag.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Catalog{}, nil
		}
		return nil, err
	}
	var entries []CatalogEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return &Catalog{entries: entries}, nil
}

// TagsFor returns the tag set for a document display name: the first catalog
// entry whose prefix matches case-insensitively wins. With no match the
// document carries {source: displayName}. The returned map is a copy; the
// caller may extend it freely.
func (c *Catalog) TagsFor(displayName string) map[string]string {
	lower := strings.ToLower(displayName)
	for _, e := range c.entries {
		if strings.HasPrefix(lower, strings.ToLower(e.Prefix)) {
			tags := make(map[string]string, len(e.Tags))
			for k, v := range e.Tags {
				tags[k] = v
			}
			return tags
		}
	}
	return map[string]string{"source": displayName}
}

// ChunkID derives the index record identifier for a chunk. It is a pure
// function of the sanitized display name and the chunk index, so re-ingesting
// a document overwrites its previous records instead of duplicating them.
// Sanitization is lossy: two display names that differ only in dropped
// characters map to the same identifier, and the later upsert silently wins.
func ChunkID(displayName string, index int) string {
	return fmt.Sprintf("%s_%d", sanitizeName(displayName), index)
}

var asciiFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// sanitizeName reduces a display name to an ASCII-safe token: accented
// characters decompose to their base form, spaces become underscores, and
// anything outside [A-Za-z0-9_-] is dropped.
func sanitizeName(name string) string {
	folded, _, err := transform.String(asciiFold, name)
	if err != nil {
		folded = name
	}
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case r == ' ':
			b.WriteByte('_')
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}
