package registry

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"

	"routerprobe/pkg/types"
)

// Filter keeps ids matching at least one include pattern (all ids when
// include is empty) and none of the exclude patterns. Patterns use doublestar
// syntax with '/' as separator, e.g. "openai/*" or "**/*:free".
func Filter(ids []types.ModelID, include, exclude []string) ([]types.ModelID, error) {
	for _, p := range append(append([]string(nil), include...), exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid model pattern %q", p)
		}
	}
	out := make([]types.ModelID, 0, len(ids))
	for _, id := range ids {
		if len(include) > 0 && !matchAny(include, id.String()) {
			continue
		}
		if matchAny(exclude, id.String()) {
			continue
		}
		out = append(out, id)
	}
	return out, nil
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}

// Collect merges the models file (when set) with inline ids, then filters.
func Collect(file string, inline []string, include, exclude []string) ([]types.ModelID, error) {
	var raw []string
	if file != "" {
		fromFile, err := Load(file)
		if err != nil {
			return nil, err
		}
		for _, id := range fromFile {
			raw = append(raw, id.String())
		}
	}
	raw = append(raw, inline...)
	return Filter(Dedup(raw), include, exclude)
}
