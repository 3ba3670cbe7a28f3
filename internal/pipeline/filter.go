package pipeline

import (
	"strings"
)

var DefaultExtensions = []string{".xls", ".xlsx", ".csv", ".zip", ".tsv"}

// NameFilter gates created files by exact, case-sensitive suffix.
type NameFilter struct {
	suffixes []string
}

func NewNameFilter(suffixes []string) *NameFilter {
	s := make([]string, 0, len(suffixes))
	for _, suffix := range suffixes {
		if suffix == "" {
			continue
		}
		s = append(s, suffix)
	}

	return &NameFilter{suffixes: s}
}

func (f *NameFilter) Accepts(name string) bool {
	if name == "" {
		return false
	}

	for _, suffix := range f.suffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}

	return false
}

func (f *NameFilter) Suffixes() []string {
	return append([]string(nil), f.suffixes...)
}
