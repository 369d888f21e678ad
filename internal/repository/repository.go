package repository

import (
	"context"
	"fmt"
	"sync/atomic"

	"communitybot/pkg/logger"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrPollConflict  = errors.New("another poll is active for this chat and day")
)

const pgUniqueViolation = "23505"

type Repository struct {
	db *sqlx.DB

	savepointSeq atomic.Uint64
}

type Config struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (c *Config) GetDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
	)
}

func New(cfg Config) (*Repository, error) {
	db, err := sqlx.Connect("pgx", cfg.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Logger().Info("Connected to database successfully")

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// Transaction runs t inside a single unit of work. Any error rolls the
// whole transaction back.
func (r *Repository) Transaction(ctx context.Context, t func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	err = t(tx)
	if err != nil {
		if txErr := tx.Rollback(); txErr != nil {
			return errors.Wrapf(err, "rollback error: %v", txErr)
		}
		return err
	}
	return tx.Commit()
}

// nested runs t under a savepoint so that its failure (typically a unique
// violation) rolls back only t's own writes and leaves the surrounding
// transaction usable. This is the one nesting primitive every
// sub-operation uses; callers never branch on whether a transaction is
// already open.
func (r *Repository) nested(ctx context.Context, tx *sqlx.Tx, t func() error) error {
	name := fmt.Sprintf("sp_%d", r.savepointSeq.Add(1))

	if _, err := tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return errors.Wrap(err, "failed to create savepoint")
	}

	if err := t(); err != nil {
		if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			return errors.Wrapf(err, "rollback to savepoint error: %v", rbErr)
		}
		return err
	}

	if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return errors.Wrap(err, "failed to release savepoint")
	}
	return nil
}

// isUniqueViolation reports whether err is a postgres unique-constraint
// violation. The unique constraints are the serialization points of the
// whole system: losing a concurrent insert surfaces here and nowhere else.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
