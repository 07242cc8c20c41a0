package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/enzymemap/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/enzymemap/pkg/errors"
	"github.com/turtacn/enzymemap/pkg/types/common"
	rtypes "github.com/turtacn/enzymemap/pkg/types/reaction"
)

var finalizedColumns = []string{
	"id", "entry_id", "ec_number",
	"uncorrected_rxn", "rxn_text", "balanced_rxn", "mapped_rxn",
	"rule_names", "rule_ids", "individuals",
	"source", "step", "direction",
	"reversible", "probably_reversible", "quality",
	"natural_entry", "organism", "protein_refs", "protein_db",
}

// ReactionRepository is the PostgreSQL store for finalized reactions.
type ReactionRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewReactionRepository constructs a ready-to-use ReactionRepository.
func NewReactionRepository(pool *pgxpool.Pool, logger logging.Logger) *ReactionRepository {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ReactionRepository{pool: pool, logger: logger.Named("reaction-repo")}
}

// BatchInsert writes finalized rows using the COPY protocol.
func (r *ReactionRepository) BatchInsert(ctx context.Context, reactions []rtypes.FinalizedReaction) error {
	if len(reactions) == 0 {
		return nil
	}

	rows := make([][]interface{}, 0, len(reactions))
	for _, f := range reactions {
		rows = append(rows, []interface{}{
			f.ID, f.EntryID, f.ECNumber,
			f.UncorrectedRxn, f.RxnText, f.BalancedRxn, f.MappedRxn,
			orEmpty(f.RuleNames), orEmptyInts(f.RuleIDs), orEmpty(f.Individuals),
			string(f.Source), string(f.Step), string(f.Direction),
			string(f.Reversible), f.ProbablyReversible, f.Quality,
			f.Natural, f.Organism, orEmpty(f.ProteinRefs), f.ProteinDB,
		})
	}

	inserted, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"finalized_reactions"},
		finalizedColumns,
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "finalized reaction insert failed")
	}

	r.logger.Debug("inserted finalized reactions", logging.Int64("count", inserted))
	return nil
}

// CountByEC returns the number of finalized rows per EC number.
func (r *ReactionRepository) CountByEC(ctx context.Context) (map[string]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ec_number, COUNT(*)
		FROM finalized_reactions
		GROUP BY ec_number`)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "count query failed")
	}
	defer rows.Close()

	counts := map[string]int64{}
	for rows.Next() {
		var (
			ec string
			n  int64
		)
		if err := rows.Scan(&ec, &n); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "count scan failed")
		}
		counts[ec] = n
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "count iteration failed")
	}
	return counts, nil
}

// ListByEC returns finalized rows for one EC number, newest mapping first.
func (r *ReactionRepository) ListByEC(ctx context.Context, ecNumber string, page common.Pagination) ([]rtypes.FinalizedReaction, error) {
	page.Normalize()

	rows, err := r.pool.Query(ctx, `
		SELECT `+columnList()+`
		FROM finalized_reactions
		WHERE ec_number = $1
		ORDER BY id
		LIMIT $2 OFFSET $3`,
		ecNumber, page.PageSize, page.Offset())
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "list query failed")
	}
	defer rows.Close()

	var out []rtypes.FinalizedReaction
	for rows.Next() {
		f, err := scanFinalized(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "list iteration failed")
	}
	return out, nil
}

// DeleteByEC removes all finalized rows of one EC number, supporting
// re-curation of a single enzyme class.
func (r *ReactionRepository) DeleteByEC(ctx context.Context, ecNumber string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM finalized_reactions WHERE ec_number = $1`, ecNumber)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "delete failed")
	}
	return tag.RowsAffected(), nil
}

// Array columns are NOT NULL; nil slices must encode as empty arrays.
func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func orEmptyInts(s []int) []int {
	if s == nil {
		return []int{}
	}
	return s
}

func columnList() string {
	out := ""
	for i, c := range finalizedColumns {
		if i > 0 {
			out += ", "
		}
		out += c
	}
	return out
}

func scanFinalized(row pgx.Row) (rtypes.FinalizedReaction, error) {
	var (
		f                       rtypes.FinalizedReaction
		source, step, direction string
		reversible              string
	)
	err := row.Scan(
		&f.ID, &f.EntryID, &f.ECNumber,
		&f.UncorrectedRxn, &f.RxnText, &f.BalancedRxn, &f.MappedRxn,
		&f.RuleNames, &f.RuleIDs, &f.Individuals,
		&source, &step, &direction,
		&reversible, &f.ProbablyReversible, &f.Quality,
		&f.Natural, &f.Organism, &f.ProteinRefs, &f.ProteinDB,
	)
	if err != nil {
		return rtypes.FinalizedReaction{}, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "row scan failed")
	}
	f.Source = rtypes.Source(source)
	f.Step = rtypes.Step(step)
	f.Direction = rtypes.Direction(direction)
	f.Reversible = rtypes.Reversibility(reversible)
	return f, nil
}
