package tasks

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/ShiftPioneer/nexus-app-sub003/internal/model"
)

// Search ranks live tasks by fuzzy match of query against their titles.
func (s *Store) Search(query string, limit int) []model.Task {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	s.mu.Lock()
	candidates := make([]model.Task, 0, len(s.items))
	for _, t := range s.items {
		if t.Status == model.TaskStatusDeleted {
			continue
		}
		candidates = append(candidates, t.Clone())
	}
	s.mu.Unlock()

	titles := make([]string, len(candidates))
	for i, t := range candidates {
		titles[i] = t.Title
	}
	matches := fuzzy.Find(query, titles)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]model.Task, 0, len(matches))
	for _, m := range matches {
		out = append(out, candidates[m.Index])
	}
	return out
}
