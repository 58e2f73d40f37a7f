// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"codeberg.org/oliverandrich/space-signup/internal/config"
	"codeberg.org/oliverandrich/space-signup/internal/database"
	"codeberg.org/oliverandrich/space-signup/internal/server"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:   "space-signup",
		Usage:  "Serve the space travel signup page",
		Flags:  config.Flags(),
		Action: server.Run,
		Commands: []*cli.Command{
			migrateCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage the database schema",
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "Apply all pending migrations",
				Action: withMigrator(func(ctx context.Context, m *database.Migrator) error {
					n, err := m.Up(ctx)
					if err != nil {
						return err
					}
					fmt.Printf("applied %d migration(s)\n", n)
					return nil
				}),
			},
			{
				Name:  "down",
				Usage: "Roll back the most recent migration",
				Action: withMigrator(func(ctx context.Context, m *database.Migrator) error {
					return m.Down(ctx)
				}),
			},
			{
				Name:  "reset",
				Usage: "Roll back all migrations",
				Action: withMigrator(func(ctx context.Context, m *database.Migrator) error {
					return m.Reset(ctx)
				}),
			},
			{
				Name:  "status",
				Usage: "Print the current schema version",
				Action: withMigrator(func(ctx context.Context, m *database.Migrator) error {
					v, err := m.Version(ctx)
					if err != nil {
						return err
					}
					fmt.Printf("schema version %d\n", v)
					return nil
				}),
			},
		},
	}
}

// withMigrator connects to the configured database without migrating it.
func withMigrator(fn func(context.Context, *database.Migrator) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg := config.NewFromCLI(cmd)
		db, err := database.Connect(cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer db.Close()
		return fn(ctx, database.NewMigrator(db.DB))
	}
}
