package models

import (
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// Column is a typed reference to a column of the users table. The type
// parameter keeps comparisons honest: Users.Email.Eq only accepts a string.
type Column[T any] struct {
	name string
}

// Name returns the unqualified column name.
func (c Column[T]) Name() string { return c.name }

// Eq builds an equality predicate (column = value).
func (c Column[T]) Eq(value T) sq.Eq {
	return sq.Eq{c.name: value}
}

// Asc builds an ascending ORDER BY term.
func (c Column[T]) Asc() string { return c.name + " ASC" }

// Desc builds a descending ORDER BY term.
func (c Column[T]) Desc() string { return c.name + " DESC" }

type usersTable struct {
	ID        Column[int64]
	Name      Column[string]
	Email     Column[string]
	Age       Column[int]
	CreatedAt Column[time.Time]
	UpdatedAt Column[time.Time]
}

// UsersTable describes the users table.
var UsersTable = usersTable{
	ID:        Column[int64]{name: "id"},
	Name:      Column[string]{name: "name"},
	Email:     Column[string]{name: "email"},
	Age:       Column[int]{name: "age"},
	CreatedAt: Column[time.Time]{name: "created_at"},
	UpdatedAt: Column[time.Time]{name: "updated_at"},
}

func (usersTable) TableName() string { return "users" }

// SelectColumns lists the columns scanned into a User, in declaration order.
func (t usersTable) SelectColumns() []string {
	return []string{
		t.ID.Name(),
		t.Name.Name(),
		t.Email.Name(),
		t.Age.Name(),
		t.CreatedAt.Name(),
		t.UpdatedAt.Name(),
	}
}

// InsertRow returns the columns and values written on insert. id,
// created_at and updated_at are left to column defaults.
func (t usersTable) InsertRow(u NewUser) ([]string, []any) {
	return []string{t.Name.Name(), t.Email.Name(), t.Age.Name()},
		[]any{u.Name, u.Email, u.Age}
}

// SQLiteDDL creates the table, its unique email index and the trigger that
// refreshes updated_at.
func (t usersTable) SQLiteDDL() string {
	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name VARCHAR(%[2]d) NOT NULL,
	email VARCHAR(%[3]d) NOT NULL UNIQUE,
	age INTEGER NOT NULL CHECK (age BETWEEN %[4]d AND %[5]d),
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TRIGGER IF NOT EXISTS %[1]s_touch_updated_at
AFTER UPDATE ON %[1]s FOR EACH ROW WHEN NEW.updated_at = OLD.updated_at
BEGIN
	UPDATE %[1]s SET updated_at = CURRENT_TIMESTAMP WHERE id = NEW.id;
END;
`, t.TableName(), NameMaxLength, EmailMaxLength, AgeMin, AgeMax)
}

// PostgresDDL is the Postgres equivalent of SQLiteDDL.
func (t usersTable) PostgresDDL() string {
	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
	id BIGSERIAL PRIMARY KEY,
	name VARCHAR(%[2]d) NOT NULL,
	email VARCHAR(%[3]d) NOT NULL UNIQUE,
	age INTEGER NOT NULL CHECK (age BETWEEN %[4]d AND %[5]d),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE OR REPLACE FUNCTION %[1]s_touch_updated_at() RETURNS trigger AS $$
BEGIN
	NEW.updated_at = now();
	RETURN NEW;
END;
$$ LANGUAGE plpgsql;
DROP TRIGGER IF EXISTS %[1]s_touch_updated_at ON %[1]s;
CREATE TRIGGER %[1]s_touch_updated_at BEFORE UPDATE ON %[1]s
FOR EACH ROW EXECUTE FUNCTION %[1]s_touch_updated_at();
`, t.TableName(), NameMaxLength, EmailMaxLength, AgeMin, AgeMax)
}
