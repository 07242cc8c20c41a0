package reaction

import (
	"fmt"
	"sort"
	"strings"

	"github.com/turtacn/enzymemap/internal/domain/chem"
	"github.com/turtacn/enzymemap/internal/infrastructure/monitoring/logging"
)

// RedoxTables holds the bidirectional structure-level redox lookup: a
// reduced form maps to its oxidized partner and vice versa.  Built once per
// batch from the full variant pool; read-only afterwards.
type RedoxTables struct {
	ReducedToOxidized map[string]string
	OxidizedToReduced map[string]string
}

// Partner returns the redox partner of structure in either direction, with
// ok reporting whether one exists.
func (t RedoxTables) Partner(structure string) (string, bool) {
	if p, ok := t.ReducedToOxidized[structure]; ok {
		return p, true
	}
	if p, ok := t.OxidizedToReduced[structure]; ok {
		return p, true
	}
	return "", false
}

// Len returns the number of redox pairs.
func (t RedoxTables) Len() int { return len(t.ReducedToOxidized) }

// BuildRedoxTables scans every structure variant in the pool and pairs the
// reduced and oxidized forms of the same skeleton.  Two structures pair when
// they share the heavy-atom formula and the heavy-atom bond multiset while
// their explicit hydrogen counts differ by exactly two, a two-electron
// reduction written at the explicit-hydrogen level.  The form with more
// hydrogens is the reduced one.
func BuildRedoxTables(variants map[string][]string, logger logging.Logger) RedoxTables {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.Named("redox")

	type member struct {
		structure string
		hydrogens int
	}

	seen := map[string]bool{}
	buckets := map[string][]member{}
	for _, list := range variants {
		for _, s := range list {
			if seen[s] {
				continue
			}
			seen[s] = true
			m, err := chem.ParseMolecule(s)
			if err != nil {
				continue
			}
			f := m.Formula()
			key := skeletonKey(f.WithoutHydrogen(), m.HeavyBondCounts())
			buckets[key] = append(buckets[key], member{structure: s, hydrogens: f.Hydrogens()})
		}
	}

	tables := RedoxTables{
		ReducedToOxidized: map[string]string{},
		OxidizedToReduced: map[string]string{},
	}
	for _, bucket := range buckets {
		if len(bucket) < 2 {
			continue
		}
		sort.Slice(bucket, func(i, j int) bool {
			if bucket[i].hydrogens != bucket[j].hydrogens {
				return bucket[i].hydrogens < bucket[j].hydrogens
			}
			return bucket[i].structure < bucket[j].structure
		})
		for i, oxidized := range bucket {
			if _, taken := tables.OxidizedToReduced[oxidized.structure]; taken {
				continue
			}
			for _, reduced := range bucket[i+1:] {
				if reduced.hydrogens != oxidized.hydrogens+2 {
					continue
				}
				if _, taken := tables.ReducedToOxidized[reduced.structure]; taken {
					continue
				}
				tables.ReducedToOxidized[reduced.structure] = oxidized.structure
				tables.OxidizedToReduced[oxidized.structure] = reduced.structure
				break
			}
		}
	}

	logger.Debug("redox tables built",
		logging.Int("structures", len(seen)),
		logging.Int("pairs", tables.Len()),
	)
	return tables
}

// skeletonKey builds a comparable key from a heavy formula and a heavy bond
// multiset.
func skeletonKey(heavy chem.Formula, bonds map[chem.BondKey]int) string {
	keys := make([]string, 0, len(bonds))
	for k, v := range bonds {
		if v == 0 {
			continue
		}
		keys = append(keys, fmt.Sprintf("%s%s%s=%d", k.ElemLow, k.Order, k.ElemHigh, v))
	}
	sort.Strings(keys)
	return heavy.String() + "|" + strings.Join(keys, ",")
}
