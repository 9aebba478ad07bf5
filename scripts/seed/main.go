// Command seed loads a fixed set of sample users. Outside production the
// users table is emptied first.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"userapi/config"
	"userapi/src/models"
	"userapi/src/store"
)

var sampleUsers = []models.NewUser{
	{Name: "Taro Tanaka", Email: "taro.tanaka@example.com", Age: 28},
	{Name: "Hanako Sato", Email: "hanako.sato@example.com", Age: 25},
	{Name: "Ichiro Suzuki", Email: "ichiro.suzuki@example.com", Age: 32},
	{Name: "Misaki Takahashi", Email: "misaki.takahashi@example.com", Age: 29},
	{Name: "Kenta Ito", Email: "kenta.ito@example.com", Age: 24},
	{Name: "Ai Yamada", Email: "ai.yamada@example.com", Age: 31},
	{Name: "Daisuke Nakamura", Email: "daisuke.nakamura@example.com", Age: 27},
	{Name: "Mari Kobayashi", Email: "mari.kobayashi@example.com", Age: 26},
	{Name: "Yuichi Kato", Email: "yuichi.kato@example.com", Age: 35},
	{Name: "Mai Yoshida", Email: "mai.yoshida@example.com", Age: 23},
}

// seedStore is the part of store.UserStore the seeder needs.
type seedStore interface {
	DeleteAll(ctx context.Context) (int64, error)
	Create(ctx context.Context, in models.NewUser) (int64, error)
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context, limit, offset uint64) ([]models.User, error)
}

func main() {
	createSchema := flag.Bool("create-schema", false, "create the users table if it does not exist")
	flag.Parse()

	if err := run(context.Background(), *createSchema, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "database seeding failed:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, createSchema bool, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := config.NewLogger(cfg, os.Stderr)

	db, err := config.OpenDatabase(cfg.DB, logger)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	return seedDatabase(ctx, db, createSchema, !cfg.IsProduction(), logger, out)
}

// seedDatabase checks the connection, optionally creates the schema and
// seeds. The completion line is printed only when every step succeeds.
func seedDatabase(ctx context.Context, db *config.Database, createSchema, clear bool, logger *slog.Logger, out io.Writer) error {
	if !db.TestConnection(ctx) {
		return errors.New("database connection failed")
	}
	if createSchema {
		if err := db.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	users := store.NewUserStore(db.DB(), db.Placeholder(), store.WithLogger(logger))
	if err := seed(ctx, users, clear, logger, out); err != nil {
		return err
	}
	fmt.Fprintln(out, "database seeding completed")
	return nil
}

// seed optionally clears the table, inserts sampleUsers and prints what
// ended up stored. A failed insert is logged and skipped.
func seed(ctx context.Context, users seedStore, clear bool, logger *slog.Logger, out io.Writer) error {
	if clear {
		n, err := users.DeleteAll(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "cleared %d existing users\n", n)
	}

	for _, u := range sampleUsers {
		if _, err := users.Create(ctx, u); err != nil {
			logger.ErrorContext(ctx, "failed to create user",
				slog.String("name", u.Name),
				slog.String("email", u.Email),
				slog.String("error", err.Error()),
			)
			continue
		}
		fmt.Fprintf(out, "created user: %s (%s)\n", u.Name, u.Email)
	}

	total, err := users.Count(ctx)
	if err != nil {
		return err
	}
	created, err := users.List(ctx, uint64(total), 0)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\nseeded database with %d users\n", len(created))
	for i, u := range created {
		fmt.Fprintf(out, "%d. %s (%s) - Age: %d\n", i+1, u.Name, u.Email, u.Age)
	}
	return nil
}
