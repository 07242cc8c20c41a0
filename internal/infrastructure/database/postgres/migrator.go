package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/turtacn/enzymemap/internal/config"
	"github.com/turtacn/enzymemap/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/enzymemap/pkg/errors"
)

// Migrator applies schema migrations from a directory of SQL files.
type Migrator struct {
	cfg    config.DatabaseConfig
	logger logging.Logger
}

// NewMigrator constructs a Migrator.
func NewMigrator(cfg config.DatabaseConfig, logger logging.Logger) *Migrator {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Migrator{cfg: cfg, logger: logger.Named("migrate")}
}

// Up applies all pending migrations.  Already being at the latest version is
// not an error.
func (m *Migrator) Up() error {
	mig, cleanup, err := m.open()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := mig.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		version, _, _ := mig.Version()
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError,
			fmt.Sprintf("migration failed at version %d", version))
	}

	version, dirty, err := mig.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		m.logger.Warn("cannot read migration version", logging.Err(err))
	}
	m.logger.Info("schema migrations applied",
		logging.Int64("version", int64(version)),
		logging.Bool("dirty", dirty),
	)
	return nil
}

// Down rolls back the most recent migration.
func (m *Migrator) Down() error {
	mig, cleanup, err := m.open()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := mig.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "rollback failed")
	}
	m.logger.Info("rolled back one migration")
	return nil
}

func (m *Migrator) open() (*migrate.Migrate, func(), error) {
	db, err := sql.Open("pgx", BuildDSN(m.cfg))
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "cannot open migration connection")
	}

	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		db.Close()
		return nil, nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "cannot create migration driver")
	}

	mig, err := migrate.NewWithDatabaseInstance("file://"+m.cfg.MigrationPath, "pgx", driver)
	if err != nil {
		db.Close()
		return nil, nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "cannot create migrator")
	}

	return mig, func() { _, _ = mig.Close() }, nil
}
