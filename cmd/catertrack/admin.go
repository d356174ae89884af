package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"syscall"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/Strob0t/CaterTrack/internal/adapter/mongo"
	"github.com/Strob0t/CaterTrack/internal/adapter/postgres"
	"github.com/Strob0t/CaterTrack/internal/config"
	"github.com/Strob0t/CaterTrack/internal/domain/user"
	"github.com/Strob0t/CaterTrack/internal/service"
)

// runAdmin dispatches admin subcommands.
func runAdmin(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "migrate":
		return runAdminMigrate(args[1:])
	case "rollback":
		return runAdminRollback(args[1:])
	case "create-owner":
		return runAdminCreateOwner(args[1:])
	case "list-users":
		return runAdminListUsers(args[1:])
	case "reconcile":
		return runAdminReconcile(args[1:])
	default:
		printAdminHelp()
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: catertrack admin <command> [options]

Commands:
  migrate        Apply pending database migrations
  rollback       Roll back database migrations
  create-owner   Register a caterer with its owner account
  list-users     List the staff of a caterer
  reconcile      Recompute every order of a caterer and report drift
  help           Show this help message

Examples:
  catertrack admin migrate
  catertrack admin rollback --steps 1
  catertrack admin create-owner --email owner@example.com --caterer "Spice Route"
  catertrack admin list-users --tenant 3f0c...
  catertrack admin reconcile --tenant 3f0c...
`)
}

func runAdminMigrate(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	n, err := postgres.RunMigrations(ctx, cfg.Postgres.DSN)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	v, err := postgres.MigrationVersion(ctx, cfg.Postgres.DSN)
	if err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Applied %d migration(s), schema version %d\n", n, v)
	return nil
}

func runAdminRollback(args []string) error {
	fs := flag.NewFlagSet("rollback", flag.ContinueOnError)
	steps := fs.Int("steps", 1, "number of migrations to roll back")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *steps < 1 {
		return errors.New("--steps must be at least 1")
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	if err := postgres.RollbackMigrations(ctx, cfg.Postgres.DSN, *steps); err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	v, err := postgres.MigrationVersion(ctx, cfg.Postgres.DSN)
	if err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Rolled back %d migration(s), schema version %d\n", *steps, v)
	return nil
}

type adminDeps struct {
	auth   *service.AuthService
	ledger *service.Ledger
	close  func()
}

func loadAdminDeps(withDocs bool) (*adminDeps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	store := postgres.NewStore(pool)

	deps := &adminDeps{
		auth:  service.NewAuthService(store, cfg.Auth, cfg.Server.FrontendURL, nil),
		close: pool.Close,
	}
	if withDocs {
		docs, err := mongo.Connect(ctx, cfg.Mongo)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("connect to document store: %w", err)
		}
		deps.ledger = service.NewLedger(store, docs, cfg.Ledger)
		deps.close = func() {
			_ = docs.Close(context.Background())
			pool.Close()
		}
	}
	return deps, nil
}

func runAdminCreateOwner(args []string) error {
	fs := flag.NewFlagSet("create-owner", flag.ContinueOnError)
	email := fs.String("email", "", "owner email address (required)")
	contact := fs.String("contact", "", "owner contact number (required)")
	catererName := fs.String("caterer", "", "caterer display name")
	password := fs.String("password", "", "password (prompted if not provided)") //nolint:gosec // CLI flag
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		return errors.New("--email is required")
	}
	if *contact == "" {
		return errors.New("--contact is required")
	}

	pass := *password
	if pass == "" {
		var err error
		pass, err = promptPassword("Password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		confirm, err := promptPassword("Confirm password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		if pass != confirm {
			return errors.New("passwords do not match")
		}
	}

	deps, err := loadAdminDeps(false)
	if err != nil {
		return err
	}
	defer deps.close()

	u, err := deps.auth.RegisterOwner(context.Background(), &user.RegisterRequest{
		Email:       *email,
		Contact:     *contact,
		Password:    pass,
		CatererName: *catererName,
	})
	if err != nil {
		return fmt.Errorf("create owner: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Owner created: %s (id=%s, caterer=%s)\n", u.Email, u.ID, u.CatererID)
	return nil
}

func runAdminListUsers(args []string) error {
	fs := flag.NewFlagSet("list-users", flag.ContinueOnError)
	tenant := fs.String("tenant", "", "caterer id (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *tenant == "" {
		return errors.New("--tenant is required")
	}

	deps, err := loadAdminDeps(false)
	if err != nil {
		return err
	}
	defer deps.close()

	users, err := deps.auth.ListUsers(context.Background(), *tenant)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	if len(users) == 0 {
		fmt.Println("No users found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tEMAIL\tCONTACT\tROLE\tCREATED")
	for i := range users {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			users[i].ID, users[i].Email, users[i].Contact, users[i].Role, users[i].CreatedAt.Format("2006-01-02"))
	}
	return w.Flush()
}

func runAdminReconcile(args []string) error {
	fs := flag.NewFlagSet("reconcile", flag.ContinueOnError)
	tenant := fs.String("tenant", "", "caterer id (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *tenant == "" {
		return errors.New("--tenant is required")
	}

	deps, err := loadAdminDeps(true)
	if err != nil {
		return err
	}
	defer deps.close()

	report, err := deps.ledger.Reconcile(context.Background(), *tenant)
	fmt.Fprintf(os.Stderr, "Orders: %d  drifted: %d  failed: %d\n", report.Orders, report.Drifted, report.Failed)
	if err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}
	return nil
}

// promptPassword reads a password from the terminal without echoing.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin)) //nolint:unconvert // int conversion needed on some platforms
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
