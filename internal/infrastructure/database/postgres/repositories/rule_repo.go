// Package repositories holds the PostgreSQL repository implementations.
package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/enzymemap/internal/domain/reaction"
	"github.com/turtacn/enzymemap/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/enzymemap/pkg/errors"
)

// RuleRepository is the PostgreSQL store for the template rule library.
type RuleRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewRuleRepository constructs a ready-to-use RuleRepository.
func NewRuleRepository(pool *pgxpool.Pool, logger logging.Logger) *RuleRepository {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &RuleRepository{pool: pool, logger: logger.Named("rule-repo")}
}

// ListAll returns every rule, ordered by id.
func (r *RuleRepository) ListAll(ctx context.Context) ([]reaction.Rule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, pattern, group_id
		FROM rules
		ORDER BY id`)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "rule query failed")
	}
	defer rows.Close()

	var rules []reaction.Rule
	for rows.Next() {
		var rule reaction.Rule
		if err := rows.Scan(&rule.ID, &rule.Name, &rule.Pattern, &rule.GroupID); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "rule scan failed")
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "rule iteration failed")
	}

	r.logger.Debug("loaded rules", logging.Int("count", len(rules)))
	return rules, nil
}

// GetByID returns one rule.
func (r *RuleRepository) GetByID(ctx context.Context, id int) (reaction.Rule, error) {
	var rule reaction.Rule
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, pattern, group_id
		FROM rules
		WHERE id = $1`, id,
	).Scan(&rule.ID, &rule.Name, &rule.Pattern, &rule.GroupID)
	if err == pgx.ErrNoRows {
		return reaction.Rule{}, apperrors.New(apperrors.ErrCodeRuleNotFound, "rule not found").
			WithDetail(fmt.Sprintf("id=%d", id))
	}
	if err != nil {
		return reaction.Rule{}, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "rule query failed")
	}
	return rule, nil
}

// UpsertBatch inserts or replaces rules in one transaction.
func (r *RuleRepository) UpsertBatch(ctx context.Context, rules []reaction.Rule) error {
	if len(rules) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, rule := range rules {
		batch.Queue(`
			INSERT INTO rules (id, name, pattern, group_id)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE
			SET name = EXCLUDED.name,
			    pattern = EXCLUDED.pattern,
			    group_id = EXCLUDED.group_id`,
			rule.ID, rule.Name, rule.Pattern, rule.GroupID)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range rules {
		if _, err := results.Exec(); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "rule upsert failed")
		}
	}

	r.logger.Debug("upserted rules", logging.Int("count", len(rules)))
	return nil
}

// LoadLibrary reads all rules and validates them into a Library.
func (r *RuleRepository) LoadLibrary(ctx context.Context) (*reaction.Library, error) {
	rules, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeRuleLibraryEmpty, "rule table is empty")
	}
	return reaction.NewLibrary(rules)
}
