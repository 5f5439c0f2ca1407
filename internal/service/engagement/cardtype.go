package engagement

import (
	"context"
	"errors"

	"github.com/edupulse/engage/internal/models"
)

// ErrCardNotRecognized is returned by a CardResolver that does not know the
// given card id.
var ErrCardNotRecognized = errors.New("card not recognized")

// CardResolver classifies an opaque card id into a content category.
// Implementations wrap the content stores (current-affairs posts,
// general-knowledge posts, MCQ bank); each either recognizes the id or
// returns ErrCardNotRecognized.
type CardResolver interface {
	Resolve(ctx context.Context, cardID string) (models.CardType, error)
}

// ResolverChain probes a fixed, ordered list of resolvers and falls back to
// a default category when none recognizes the id. Classification is
// best-effort: a resolver failure is skipped, not propagated, because card
// type never gates the engagement write.
type ResolverChain struct {
	resolvers []CardResolver
	fallback  models.CardType
}

// NewResolverChain builds a chain over the given resolvers in priority order.
func NewResolverChain(fallback models.CardType, resolvers ...CardResolver) *ResolverChain {
	return &ResolverChain{resolvers: resolvers, fallback: fallback}
}

// Resolve returns the first recognized category, or the fallback.
func (c *ResolverChain) Resolve(ctx context.Context, cardID string) models.CardType {
	for _, r := range c.resolvers {
		cardType, err := r.Resolve(ctx, cardID)
		if err != nil {
			continue
		}
		return cardType
	}
	return c.fallback
}
