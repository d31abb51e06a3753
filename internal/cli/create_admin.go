// Package cli implements the maintenance subcommands of the binary.
package cli

import (
	"flag"
	"fmt"

	"github.com/ciaranmckenna/book-club/internal/config"
	"github.com/ciaranmckenna/book-club/internal/database"
	"github.com/ciaranmckenna/book-club/internal/entities"
	"github.com/ciaranmckenna/book-club/internal/services"
)

// CreateAdminCommand creates an administrator account from the command
// line, for bootstrapping a fresh installation.
type CreateAdminCommand struct {
	fs *flag.FlagSet

	dbPath   string
	username string
	email    string
	password string
}

// NewCreateAdminCommand creates the create-admin subcommand.
func NewCreateAdminCommand() *CreateAdminCommand {
	cmd := &CreateAdminCommand{
		fs: flag.NewFlagSet("create-admin", flag.ContinueOnError),
	}
	cmd.fs.StringVar(&cmd.dbPath, "db", config.DefaultDatabasePath, "Path to the application database")
	cmd.fs.StringVar(&cmd.username, "username", "", "Username for the new administrator (required)")
	cmd.fs.StringVar(&cmd.email, "email", "", "Email for the new administrator (required)")
	cmd.fs.StringVar(&cmd.password, "password", "", "Password for the new administrator (required)")
	return cmd
}

// ParseFlags parses the command line arguments.
func (cmd *CreateAdminCommand) ParseFlags(args []string) error {
	if err := cmd.fs.Parse(args); err != nil {
		return err
	}
	if cmd.username == "" || cmd.email == "" || cmd.password == "" {
		return fmt.Errorf("username, email and password are all required")
	}
	return nil
}

// Run registers the account and grants it the admin role.
func (cmd *CreateAdminCommand) Run() error {
	db, err := database.NewDatabase(cmd.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	cfg := config.NewConfig()
	users := services.NewUserService(db.DB, cfg.Auth.BcryptCost)

	user, err := users.Register(services.RegistrationInput{
		Username: cmd.username,
		Email:    cmd.email,
		Password: cmd.password,
	})
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	if err := users.GrantRole(user.ID, entities.RoleAdmin); err != nil {
		return fmt.Errorf("failed to grant admin role: %w", err)
	}

	fmt.Printf("Created administrator %q (id %d)\n", user.Username, user.ID)
	return nil
}
