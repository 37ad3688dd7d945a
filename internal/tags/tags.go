// Package tags maintains the tag index: a mapping from tag to the set of
// note identifiers carrying it, persisted as JSON in the notes root.
package tags

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/natefinch/atomic"
)

// FileName is the tag index file inside the notes root.
const FileName = ".tags"

// Set is a set of note identifiers. On the wire it is a JSON array.
type Set map[string]struct{}

// NewSet returns a set holding ids.
func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is a member.
func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// MarshalJSON encodes the set as a sorted array.
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes an array, dropping duplicates.
func (s *Set) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewSet(ids...)
	return nil
}

// Tags maps a tag to the notes carrying it. A tag never maps to an empty set.
type Tags map[string]Set

// Path returns the tag index location for a notes root.
func Path(root string) string {
	return filepath.Join(root, FileName)
}

// Load reads the tag index from root. A missing file is an empty index;
// malformed content is an error.
func Load(root string) (Tags, error) {
	data, err := os.ReadFile(Path(root))
	if errors.Is(err, fs.ErrNotExist) {
		return Tags{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("tags: read %s: %w", FileName, err)
	}
	t := Tags{}
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("tags: parse %s: %w", FileName, err)
	}
	if t == nil {
		return nil, fmt.Errorf("tags: parse %s: not an object", FileName)
	}
	for tag, ids := range t {
		if len(ids) == 0 {
			delete(t, tag)
		}
	}
	return t, nil
}

// Save replaces the tag index in root with t.
func Save(root string, t Tags) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("tags: encode: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("tags: mkdir: %w", err)
	}
	if err := atomic.WriteFile(Path(root), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("tags: write %s: %w", FileName, err)
	}
	return nil
}

// Add puts id under tag.
func (t Tags) Add(tag, id string) {
	if ids, ok := t[tag]; ok {
		ids[id] = struct{}{}
		return
	}
	t[tag] = NewSet(id)
}

// Remove takes id off tag, dropping the tag when id was its last note.
// Removing an absent pair does nothing.
func (t Tags) Remove(tag, id string) {
	ids, ok := t[tag]
	if !ok || !ids.Has(id) {
		return
	}
	if len(ids) == 1 {
		delete(t, tag)
		return
	}
	delete(ids, id)
}

// Prune returns a copy of t with id removed from every tag. Tags left
// without notes are dropped.
func (t Tags) Prune(id string) Tags {
	out := make(Tags, len(t))
	for tag, ids := range t {
		if !ids.Has(id) {
			out[tag] = ids
			continue
		}
		if len(ids) == 1 {
			continue
		}
		rest := make(Set, len(ids)-1)
		for other := range ids {
			if other != id {
				rest[other] = struct{}{}
			}
		}
		out[tag] = rest
	}
	return out
}

// Search returns the notes carrying tag, sorted. Unless all is set only
// notes directly or indirectly under dir are returned; dir must be followed
// by a path separator in the identifier, so "custom" does not match
// "custom1/x".
func (t Tags) Search(tag, dir string, all bool) []string {
	ids := t[tag]
	if all {
		return ids.Sorted()
	}
	prefix := filepath.Clean(dir) + string(filepath.Separator)
	var out []string
	for _, id := range ids.Sorted() {
		if strings.HasPrefix(id, prefix) {
			out = append(out, id)
		}
	}
	return out
}

// Of returns the tags carried by id, sorted.
func (t Tags) Of(id string) []string {
	var out []string
	for tag, ids := range t {
		if ids.Has(id) {
			out = append(out, tag)
		}
	}
	slices.Sort(out)
	return out
}

// Names returns every tag, sorted.
func (t Tags) Names() []string {
	out := make([]string, 0, len(t))
	for tag := range t {
		out = append(out, tag)
	}
	slices.Sort(out)
	return out
}
