package reaction

import (
	"context"
	"strings"

	"github.com/turtacn/enzymemap/internal/infrastructure/monitoring/logging"
)

// Balancer is the balance/correction resolver: it searches an entry's
// candidate space, optionally substituting redox partners, for candidates
// that conserve atoms and charge.  Results are cached by normalized equation
// text so duplicate entries resolve identically and only once.
type Balancer struct {
	cache  BalanceCache
	redox  RedoxTables
	logger logging.Logger

	// CacheObserver, when set, is invoked with the hit outcome of every
	// cache lookup.  Used to feed metrics.
	CacheObserver func(hit bool)
}

// NewBalancer constructs a Balancer.
func NewBalancer(cache BalanceCache, redox RedoxTables, logger logging.Logger) *Balancer {
	if cache == nil {
		cache = NewMemoryBalanceCache()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Balancer{cache: cache, redox: redox, logger: logger.Named("balance")}
}

// NormalizeEquation produces the cache key for an equation text: whitespace
// collapsed to single spaces and trimmed.  Entries whose equations differ
// only in spacing share a cache entry.
func NormalizeEquation(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Resolve returns every candidate, original or redox-substituted, that
// balances.  An empty result is the recoverable "unbalanced" outcome, cached
// like any other, never an error.  There is no early exit: an entry may
// balance through more than one structural choice and all of them propagate
// as ambiguity.
func (b *Balancer) Resolve(ctx context.Context, candidates []Reaction, equationText string) []Reaction {
	key := NormalizeEquation(equationText)
	if cached, ok := b.cache.Get(ctx, key); ok {
		b.observe(true)
		return cached
	}
	b.observe(false)

	seen := map[string]bool{}
	var balanced []Reaction
	keep := func(r Reaction) {
		c := r.Canonical()
		s := c.String()
		if !seen[s] {
			seen[s] = true
			balanced = append(balanced, c)
		}
	}

	for _, cand := range candidates {
		if cand.IsBalanced() {
			keep(cand)
		}
	}

	// Correction pass: substitute one participant with its redox partner
	// and re-test.  Only attempted when nothing balanced as written.
	if len(balanced) == 0 && b.redox.Len() > 0 {
		for _, cand := range candidates {
			for _, sub := range b.substitutions(cand) {
				if sub.IsBalanced() {
					keep(sub)
				}
			}
		}
	}

	b.cache.Set(ctx, key, balanced)
	b.logger.Debug("resolved equation",
		logging.String("key", key),
		logging.Int("candidates", len(candidates)),
		logging.Int("balanced", len(balanced)),
	)
	return balanced
}

// substitutions enumerates every single-participant redox substitution of r.
func (b *Balancer) substitutions(r Reaction) []Reaction {
	var out []Reaction
	for i, frag := range r.Substrates {
		if partner, ok := b.redox.Partner(frag); ok {
			subs := append([]string(nil), r.Substrates...)
			subs[i] = partner
			out = append(out, Reaction{Substrates: subs, Products: r.Products})
		}
	}
	for i, frag := range r.Products {
		if partner, ok := b.redox.Partner(frag); ok {
			prods := append([]string(nil), r.Products...)
			prods[i] = partner
			out = append(out, Reaction{Substrates: r.Substrates, Products: prods})
		}
	}
	return out
}

func (b *Balancer) observe(hit bool) {
	if b.CacheObserver != nil {
		b.CacheObserver(hit)
	}
}
