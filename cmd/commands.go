package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ethixlearn/ethixlearn-backend/internal/app"
	"github.com/ethixlearn/ethixlearn-backend/internal/data/db"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/logger"
	"github.com/ethixlearn/ethixlearn-backend/internal/services"
)

type rootOptions struct {
	configFile string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "ethixlearn",
		Short:         "EthixLearn compliance training backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.configFile != "" {
				return os.Setenv("CONFIG_FILE", opts.configFile)
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "path to a YAML config file (overrides CONFIG_FILE)")

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newCreateAdminCommand())
	return cmd
}

// bootstrap builds the logger and loads configuration for every command.
func bootstrap() (*logger.Logger, app.Config, error) {
	log, err := app.NewLogger(os.Getenv("LOG_MODE"))
	if err != nil {
		return nil, app.Config{}, err
	}
	log.Info("Loading configuration...")
	cfg, err := app.LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, app.Config{}, err
	}
	return log, cfg, nil
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, cfg, err := bootstrap()
			if err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), log, cfg)
			if err != nil {
				log.Error("Failed to initialize app", "error", err)
				log.Sync()
				return err
			}
			defer a.Close()
			if err := a.Run(cmd.Context()); err != nil {
				log.Error("Server stopped", "error", err)
				return err
			}
			log.Info("Server shut down")
			return nil
		},
	}
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, cfg, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()
			theDB, err := app.OpenDatabase(log, cfg)
			if err != nil {
				return err
			}
			defer db.Close(theDB)
			log.Info("Migration complete", "driver", cfg.DB.Driver)
			return nil
		},
	}
}

func newCreateAdminCommand() *cobra.Command {
	var in services.RegisterInput
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account or promote an existing one",
		Long: `Create an admin account, or promote the account with that email and
reset its password.

Example:
  ethixlearn create-admin --email ops@example.com --password 's3cret' --name Ops`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.Password == "" {
				in.Password = os.Getenv("ADMIN_PASSWORD")
			}
			log, cfg, err := bootstrap()
			if err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), log, cfg)
			if err != nil {
				log.Sync()
				return err
			}
			defer a.Close()
			u, err := a.Services.Auth.EnsureAdmin(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin ready: %s (%s)\n", u.Email, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Email, "email", "", "admin email (required)")
	cmd.Flags().StringVar(&in.Password, "password", "", "admin password (defaults to ADMIN_PASSWORD)")
	cmd.Flags().StringVar(&in.Name, "name", "", "display name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
