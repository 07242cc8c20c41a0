// Package resolver provides the reference structure resolver: a read-only
// name-to-structures table loaded from memory or a JSON file.  Production
// deployments may substitute a service-backed implementation; the pipeline
// only sees the StructureResolver interface.
package resolver

import (
	"context"
	"encoding/json"
	"os"

	"github.com/turtacn/enzymemap/internal/domain/reaction"
	"github.com/turtacn/enzymemap/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/enzymemap/pkg/errors"
)

// Static resolves compound names against a fixed table.  Names without an
// entry resolve to nothing, the unresolvable outcome.
type Static struct {
	variants map[string][]string
	logger   logging.Logger
}

var _ reaction.StructureResolver = (*Static)(nil)

// NewStatic wraps an in-memory variant table.  The table is not copied; the
// caller must not mutate it afterwards.
func NewStatic(variants map[string][]string, logger logging.Logger) *Static {
	if variants == nil {
		variants = map[string][]string{}
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Static{variants: variants, logger: logger.Named("resolver")}
}

// LoadFile builds a Static resolver from a JSON file mapping compound names
// to structure lists:
//
//	{"ethanol": ["[CH3][CH2][OH]"], "water": ["[OH2]"]}
func LoadFile(path string, logger logging.Logger) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSourceUnavailable, "cannot read structure table").
			WithDetail(path)
	}
	var variants map[string][]string
	if err := json.Unmarshal(data, &variants); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSourceParseError, "structure table is not valid JSON").
			WithDetail(path)
	}
	s := NewStatic(variants, logger)
	s.logger.Info("structure table loaded",
		logging.String("path", path),
		logging.Int("compounds", len(variants)),
	)
	return s, nil
}

// Len returns the number of resolvable compound names.
func (s *Static) Len() int { return len(s.variants) }

// Resolve returns the variant lists for the requested names.  Unknown names
// are simply absent from the result.
func (s *Static) Resolve(_ context.Context, names []string) (map[string][]string, error) {
	out := make(map[string][]string, len(names))
	var misses int
	for _, name := range names {
		vs, ok := s.variants[name]
		if !ok || len(vs) == 0 {
			misses++
			continue
		}
		out[name] = vs
	}
	if misses > 0 {
		s.logger.Debug("unresolvable compound names",
			logging.Int("requested", len(names)),
			logging.Int("misses", misses),
		)
	}
	return out, nil
}
