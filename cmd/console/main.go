// Command console is the operator CLI for the CPS marketing console. It talks
// to the REST API by default, or to an in-process demo catalogue with --demo.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cps-console/internal/app"
	"cps-console/internal/backend/memory"
	"cps-console/internal/config"
	"cps-console/internal/store"
	apperrors "cps-console/pkg/errors"
	"cps-console/pkg/logger"
)

const envFilePath = ".env"

// errCanceled reports a mutation whose result was dropped because the
// command was interrupted.
var errCanceled = apperrors.Canceled()

// console is the state shared by every subcommand once the root pre-run has
// resolved configuration and the backend.
type console struct {
	// Global flags
	verbose  bool
	demo     bool
	apiURL   string
	apiToken string

	cfg     *config.Config
	log     *zap.Logger
	backend store.Backend
	stores  *store.Stores
}

func newRootCmd() *cobra.Command {
	c := &console{}

	root := &cobra.Command{
		Use:   "console",
		Short: "CPS marketing console",
		Long: `Manage CPS marketing projects, their sub-projects, promotional content
and expiring text commands, and browse the generated documentation.

Commands run against the REST API configured by API_BASE_URL, or against a
built-in demo catalogue with --demo.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.log != nil {
				_ = c.log.Sync()
			}
		},
	}

	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().BoolVar(&c.demo, "demo", false, "Use the in-memory demo catalogue instead of the API")
	root.PersistentFlags().StringVar(&c.apiURL, "api-url", "", "API base URL (overrides API_BASE_URL)")
	root.PersistentFlags().StringVar(&c.apiToken, "token", "", "Bearer token (overrides API_TOKEN)")

	root.AddCommand(
		newProjectsCmd(c),
		newCategoriesCmd(c),
		newSubProjectsCmd(c),
		newContentTypesCmd(c),
		newContentsCmd(c),
		newCommandsCmd(c),
		newDocsCmd(c),
		newImagesCmd(c),
		newTokenCmd(c),
	)
	return root
}

func (c *console) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if c.apiURL != "" {
		cfg.API.BaseURL = c.apiURL
	}
	if c.apiToken != "" {
		cfg.API.Token = c.apiToken
	}
	c.cfg = cfg

	log, err := logger.New(logger.Options{
		Level:   cfg.Log.Level,
		Format:  logger.FormatConsole,
		Verbose: c.verbose,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	c.log = log

	if c.demo {
		c.backend = memory.NewDemo(memory.WithThresholds(cfg.Expiry))
	} else {
		backend, _, err := app.NewRemoteBackend(cfg, log)
		if err != nil {
			return err
		}
		c.backend = backend
	}
	c.stores = store.New(c.backend, store.WithLogger(log), store.WithThresholds(cfg.Expiry))
	return nil
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := parseID(arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// optionalID maps the zero flag value to no filter.
func optionalID(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}

func main() {
	_ = godotenv.Load(envFilePath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", apperrors.Message(err))
		os.Exit(1)
	}
}
