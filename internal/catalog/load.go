package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrInputMissing reports that a file a job depends on does not exist.
var ErrInputMissing = errors.New("input missing")

// Reasons a partner record is left out by ReadPartners.
const (
	SkipMissingField = "missing slug or name"
	SkipUnsafeSlug   = "slug is not a plain path segment"
	SkipDuplicate    = "duplicate slug"
)

// Skipped is a partner record that did not make it into the loaded set.
type Skipped struct {
	Index  int
	Slug   string
	Reason string
}

// LoadPartners reads a JSON array of partner records, dropping the ones
// ReadPartners skips.
func LoadPartners(path string) ([]Partner, error) {
	partners, _, err := ReadPartners(path)
	return partners, err
}

// ReadPartners reads a JSON array of partner records. Records without a
// slug or a name, with a slug that is not safe as a file name, or whose
// slug was already seen are skipped; the first record for a slug wins.
func ReadPartners(path string) ([]Partner, []Skipped, error) {
	var raw []partnerJSON
	if err := readJSON(path, &raw); err != nil {
		return nil, nil, err
	}
	out := make([]Partner, 0, len(raw))
	var skipped []Skipped
	seen := make(map[string]bool, len(raw))
	for i, r := range raw {
		p := r.partner()
		reason := ""
		switch {
		case p.Slug == "" || p.Name == "":
			reason = SkipMissingField
		case !ValidSlug(p.Slug):
			reason = SkipUnsafeSlug
		case seen[p.Slug]:
			reason = SkipDuplicate
		}
		if reason != "" {
			skipped = append(skipped, Skipped{Index: i, Slug: p.Slug, Reason: reason})
			continue
		}
		seen[p.Slug] = true
		out = append(out, p)
	}
	return out, skipped, nil
}

// ValidSlug reports whether s can be used as a single path segment below
// the output root.
func ValidSlug(s string) bool {
	if s == "" || s == "." || strings.Contains(s, "..") {
		return false
	}
	return !strings.ContainsAny(s, "/\\\x00")
}

// LoadProducts reads a JSON array of product records.
func LoadProducts(path string) ([]Product, error) {
	var raw []productJSON
	if err := readJSON(path, &raw); err != nil {
		return nil, err
	}
	out := make([]Product, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.product())
	}
	return out, nil
}

// Latest returns the lexicographically last file matching pattern. With
// date-stamped names this is the most recent export.
func Latest(pattern string) (string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: no file matches %s", ErrInputMissing, pattern)
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

// WriteJSON writes v as indented JSON, creating parent directories.
func WriteJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrInputMissing, path)
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
