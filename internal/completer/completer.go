// Package completer suggests likely completions for a partial token from
// the street and city name indices.
//
// The input contract is a single token: callers tokenize client-side, and
// multi-word phrases yield poor results by design. Completion is
// side-effect-free and cheap enough to run on every keystroke.
package completer

import (
	"context"
	"sort"
	"strings"

	"github.com/ferdinand-hoffmann/osmgeocoder/internal/geo"
	"github.com/ferdinand-hoffmann/osmgeocoder/internal/normalize"
	"github.com/ferdinand-hoffmann/osmgeocoder/internal/store"
)

// DefaultLimit caps the suggestion count.
const DefaultLimit = 10

// Suggestion is one ranked completion.
type Suggestion struct {
	Name string
	Kind geo.Kind
	// Score is the trigram similarity of the token against the name.
	Score float64
}

// Completer queries name indices for completions.
type Completer struct {
	store store.Store
	limit int
}

// New builds a Completer. limit <= 0 selects DefaultLimit.
func New(st store.Store, limit int) *Completer {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Completer{store: st, limit: limit}
}

// Complete returns ranked completions for a partial token: exact-prefix
// matches first, then by trigram similarity, then by how many child
// records a place has, so well-known names surface before obscure ones.
func (c *Completer) Complete(ctx context.Context, token string) ([]Suggestion, error) {
	query := normalize.Text(token)
	if query == "" {
		return nil, nil
	}

	matches, err := c.store.SearchText(ctx, query, store.SearchOptions{
		Kinds: []geo.Kind{geo.KindStreet, geo.KindCity},
		// Over-fetch so the re-rank has enough to work with before the
		// final cap.
		Limit: c.limit * 4,
	})
	if err != nil {
		if geo.IsTimeout(err) {
			return nil, nil
		}
		return nil, err
	}

	type scored struct {
		Suggestion
		prefix     bool
		childCount int64
	}

	seen := map[string]bool{}
	ranked := make([]scored, 0, len(matches))
	for _, m := range matches {
		if m.Record.Name == "" {
			continue
		}
		name := normalize.Text(m.Record.Name)
		if seen[name] {
			continue
		}
		seen[name] = true
		ranked = append(ranked, scored{
			Suggestion: Suggestion{
				Name:  m.Record.Name,
				Kind:  m.Record.Kind,
				Score: m.Score,
			},
			prefix:     strings.HasPrefix(name, query),
			childCount: m.ChildCount,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].prefix != ranked[j].prefix {
			return ranked[i].prefix
		}
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if ranked[i].childCount != ranked[j].childCount {
			return ranked[i].childCount > ranked[j].childCount
		}
		return ranked[i].Name < ranked[j].Name
	})

	if len(ranked) > c.limit {
		ranked = ranked[:c.limit]
	}

	out := make([]Suggestion, len(ranked))
	for i, r := range ranked {
		out[i] = r.Suggestion
	}
	return out, nil
}
