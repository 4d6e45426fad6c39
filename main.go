package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"challenger/api"
	"challenger/cmd"
	"challenger/config"
	"challenger/database"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

func main() {
	if len(os.Args) > 1 {
		var err error
		switch os.Args[1] {
		case "migrate":
			err = handleMigrationCommand()
		case "audit":
			err = handleAuditCommand()
		case "token":
			err = handleTokenCommand()
		case "serve":
		default:
			err = fmt.Errorf("unknown command %q: expected serve, migrate, audit or token", os.Args[1])
		}
		if err != nil {
			log.WithError(err).Fatalf("%s failed", os.Args[1])
		}
		if os.Args[1] != "serve" {
			return
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Run(ctx); err != nil {
		log.WithError(err).Fatal("Application error")
	}
}

func handleMigrationCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: challenger migrate [up|down|status] [args...]")
	}

	switch os.Args[2] {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := "1"
		if len(os.Args) > 3 {
			steps = os.Args[3]
		}
		return database.MigrateDown(steps)
	case "status":
		return database.MigrateStatus()
	default:
		return fmt.Errorf("unknown migration command: %s", os.Args[2])
	}
}

// handleAuditCommand prints the duplicate payout report as JSON
func handleAuditCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: challenger audit [analyze|fix]")
	}

	var fix bool
	switch os.Args[2] {
	case "analyze":
	case "fix":
		fix = true
	default:
		return fmt.Errorf("unknown audit command: %s", os.Args[2])
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	report, err := cmd.RunAudit(ctx, fix)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return err
	}
	if report.Interrupted {
		return fmt.Errorf("audit interrupted after removing %d duplicates", report.DuplicatesRemoved)
	}
	return nil
}

// handleTokenCommand mints a bearer token for local testing
func handleTokenCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: challenger token <user-uuid> [email]")
	}

	userID, err := uuid.Parse(os.Args[2])
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}
	var email string
	if len(os.Args) > 3 {
		email = os.Args[3]
	}

	token, err := api.GenerateToken(config.Get(), userID, email, 24*time.Hour)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
