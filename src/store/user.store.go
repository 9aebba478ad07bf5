package store

//go:generate mockgen -source=user.store.go -destination=mocks/mock_user_repository.go -package=mocks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/trace"

	"userapi/src/models"
)

// UserRepository is the set of queries the HTTP handlers run against users.
type UserRepository interface {
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context, limit, offset uint64) ([]models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, in models.NewUser) (int64, error)
}

// UserStore implements UserRepository on a sqlx pool.
type UserStore struct {
	db          *sqlx.DB
	placeholder sq.PlaceholderFormat
	table       string

	logger     *slog.Logger
	tracer     trace.Tracer
	metrics    *queryMetrics
	slowQuery  time.Duration
	logQueries bool
}

var _ UserRepository = (*UserStore)(nil)

// NewUserStore builds a store over db. placeholder must match the driver
// (sq.Dollar for Postgres, sq.Question for SQLite).
func NewUserStore(db *sqlx.DB, placeholder sq.PlaceholderFormat, opts ...Option) *UserStore {
	s := &UserStore{
		db:          db,
		placeholder: placeholder,
		table:       models.UsersTable.TableName(),
		tracer:      defaultTracer(),
		metrics:     defaultMetrics(),
		slowQuery:   200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *UserStore) selectUsers() sq.SelectBuilder {
	return sq.Select(models.UsersTable.SelectColumns()...).
		From(s.table).
		PlaceholderFormat(s.placeholder)
}

// Count returns the number of rows in the users table.
func (s *UserStore) Count(ctx context.Context) (int64, error) {
	query, args, err := sq.Select("COUNT(*)").From(s.table).PlaceholderFormat(s.placeholder).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}
	var total int64
	err = s.observe(ctx, "count", query, func(ctx context.Context) error {
		return s.db.GetContext(ctx, &total, query, args...)
	})
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return total, nil
}

// List returns one page of users ordered by ascending id. The result is
// never nil.
func (s *UserStore) List(ctx context.Context, limit, offset uint64) ([]models.User, error) {
	query, args, err := s.selectUsers().
		OrderBy(models.UsersTable.ID.Asc()).
		Limit(limit).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list: %w", err)
	}
	users := make([]models.User, 0, limit)
	err = s.observe(ctx, "list", query, func(ctx context.Context) error {
		return s.db.SelectContext(ctx, &users, query, args...)
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// FindByID returns ErrNotFound when no row has the id.
func (s *UserStore) FindByID(ctx context.Context, id int64) (*models.User, error) {
	return s.findOne(ctx, "find_by_id", models.UsersTable.ID.Eq(id))
}

// FindByEmail matches the email exactly (case-sensitive).
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, "find_by_email", models.UsersTable.Email.Eq(email))
}

func (s *UserStore) findOne(ctx context.Context, operation string, pred sq.Sqlizer) (*models.User, error) {
	query, args, err := s.selectUsers().Where(pred).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", operation, err)
	}
	var u models.User
	err = s.observe(ctx, operation, query, func(ctx context.Context) error {
		return s.db.GetContext(ctx, &u, query, args...)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	return &u, nil
}

// Create inserts a user and returns the id assigned by the database.
// A unique constraint violation is reported as ErrDuplicateEmail.
func (s *UserStore) Create(ctx context.Context, in models.NewUser) (int64, error) {
	cols, vals := models.UsersTable.InsertRow(in)
	query, args, err := sq.Insert(s.table).
		Columns(cols...).
		Values(vals...).
		Suffix("RETURNING " + models.UsersTable.ID.Name()).
		PlaceholderFormat(s.placeholder).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}

	var id int64
	err = s.observe(ctx, "insert", query, func(ctx context.Context) error {
		return s.db.QueryRowxContext(ctx, query, args...).Scan(&id)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateEmail
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

// DeleteAll removes every user and returns the number of deleted rows.
// Only the seed script calls it.
func (s *UserStore) DeleteAll(ctx context.Context) (int64, error) {
	query, args, err := sq.Delete(s.table).PlaceholderFormat(s.placeholder).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}
	var affected int64
	err = s.observe(ctx, "delete_all", query, func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("delete users: %w", err)
	}
	return affected, nil
}
