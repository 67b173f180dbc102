// Package resolver maps cleaned merchant tokens to phonebook entities via
// exact lookup followed by a fuzzy nearest-alias search.
package resolver

import (
	"log/slog"

	"github.com/quillfin/quill/internal/model"
	"github.com/quillfin/quill/internal/phonebook"
	"github.com/quillfin/quill/internal/service"
)

// FuzzyAcceptThreshold is the minimum token-set similarity (inclusive)
// for a fuzzy candidate to surface as a suggestion. Shared by every
// resolution call within a run.
const FuzzyAcceptThreshold = 0.60

// Resolver resolves cleaned tokens against a merchant directory.
type Resolver struct {
	directory service.Directory
}

// New creates a resolver backed by the given directory.
func New(directory service.Directory) *Resolver {
	return &Resolver{directory: directory}
}

// Resolve maps a cleaned token to a resolution outcome.
//
// The fuzzy pass is an O(aliases) scan; the phonebook is small (hundreds
// to low thousands of merchants) so indexing the aliases is not worth
// the complexity yet.
func (r *Resolver) Resolve(token string) model.ResolutionOutcome {
	normalized := phonebook.Normalize(token)
	if normalized == "" {
		return model.ResolutionOutcome{Kind: model.OutcomeUnknown}
	}

	if entity, ok := r.directory.FindByAlias(normalized); ok {
		return model.ResolutionOutcome{Kind: model.OutcomeExact, Entity: entity, Score: 1.0}
	}

	best := r.bestFuzzyCandidate(normalized)
	if best.entity == nil || best.score < FuzzyAcceptThreshold {
		return model.ResolutionOutcome{Kind: model.OutcomeUnknown}
	}

	slog.Debug("Fuzzy suggestion",
		"token", normalized,
		"entity", best.entity.CanonicalName,
		"alias", best.alias,
		"score", best.score)

	return model.ResolutionOutcome{Kind: model.OutcomeSuggested, Entity: best.entity, Score: best.score}
}

type fuzzyCandidate struct {
	entity *model.Entity
	alias  string
	score  float64
}

// bestFuzzyCandidate scores the token against every alias in the
// directory. Ties are broken by preferring the entity with the most
// aliases (the more established merchant), then by canonical name, for
// full determinism regardless of map iteration order.
func (r *Resolver) bestFuzzyCandidate(normalized string) fuzzyCandidate {
	entities := r.directory.AllEntities()

	var best fuzzyCandidate
	for i := range entities {
		entity := &entities[i]
		for _, alias := range entity.Aliases {
			score := TokenSetRatio(normalized, alias)
			if !betterCandidate(score, entity, best) {
				continue
			}
			best = fuzzyCandidate{entity: entity, alias: alias, score: score}
		}
	}
	return best
}

func betterCandidate(score float64, entity *model.Entity, best fuzzyCandidate) bool {
	if best.entity == nil {
		return score > 0
	}
	if score != best.score {
		return score > best.score
	}
	if len(entity.Aliases) != len(best.entity.Aliases) {
		return len(entity.Aliases) > len(best.entity.Aliases)
	}
	return entity.CanonicalName < best.entity.CanonicalName
}
