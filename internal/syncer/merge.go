package syncer

import "github.com/Clark-Hu/moviesync/internal/domain"

// Merge returns a copy of existing with incoming appended, unless a movie
// with the same IMDb id is already present, in which case the copy is
// returned unchanged. existing is never modified.
func Merge(existing []domain.Movie, incoming domain.Movie) []domain.Movie {
	out := make([]domain.Movie, len(existing), len(existing)+1)
	copy(out, existing)
	for _, m := range existing {
		if m.IMDbID == incoming.IMDbID {
			return out
		}
	}
	return append(out, incoming)
}

// MergeAll is equivalent to folding Merge over batch in order: earlier
// entries win over later duplicates. It tracks seen ids in a set instead of
// rescanning the collection per movie.
func MergeAll(existing []domain.Movie, batch []domain.Movie) []domain.Movie {
	out := make([]domain.Movie, len(existing), len(existing)+len(batch))
	copy(out, existing)
	seen := make(map[string]struct{}, len(existing)+len(batch))
	for _, m := range existing {
		seen[m.IMDbID] = struct{}{}
	}
	for _, m := range batch {
		if _, ok := seen[m.IMDbID]; ok {
			continue
		}
		seen[m.IMDbID] = struct{}{}
		out = append(out, m)
	}
	return out
}
