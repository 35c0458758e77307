package llm

import (
	"strings"

	"infographic/internal/report"
)

// DefaultMaxSources caps the citations kept per generation.
const DefaultMaxSources = 50

// sourceSet collects citations in arrival order, unique by URI. Once limit is
// reached further sources are dropped; limit <= 0 keeps everything.
type sourceSet struct {
	limit int
	seen  map[string]struct{}
	items []report.Source
}

func newSourceSet(limit int) *sourceSet {
	return &sourceSet{limit: limit, seen: make(map[string]struct{})}
}

func (s *sourceSet) add(srcs ...report.Source) {
	for _, src := range srcs {
		uri := strings.TrimSpace(src.URI)
		if uri == "" {
			continue
		}
		if _, dup := s.seen[uri]; dup {
			continue
		}
		if s.limit > 0 && len(s.items) >= s.limit {
			return
		}
		s.seen[uri] = struct{}{}
		s.items = append(s.items, report.Source{Title: strings.TrimSpace(src.Title), URI: uri})
	}
}

func (s *sourceSet) list() []report.Source {
	if len(s.items) == 0 {
		return nil
	}
	return append([]report.Source(nil), s.items...)
}
