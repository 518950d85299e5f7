package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"gopower/internal/config"
	"gopower/internal/container"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

func main() {
	// a missing .env is normal for the CLI
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// cliApp carries the dependencies shared by every command
type cliApp struct {
	config    *config.Config
	container *container.Container
	jsonOut   bool
}

func newRootCmd() *cobra.Command {
	a := &cliApp{}

	rootCmd := &cobra.Command{
		Use:   "gopower-cli",
		Short: "Survey sample sizes for detecting a change in a proportion",
		Long: `Computes how many yes/no responses a survey needs so that a shift of the
true proportion away from a reference value is detected with a given power.

Calculations are stored in PostgreSQL when DATABASE_URL is set and kept in
memory for the duration of the command otherwise.`,
		SilenceUsage:       true,
		PersistentPreRunE:  func(cmd *cobra.Command, _ []string) error { return a.init(cmd.Context()) },
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error { return a.close(cmd.Context()) },
	}

	rootCmd.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "Print results as JSON")

	rootCmd.AddCommand(
		a.newSampleSizeCmd(),
		a.newPowerCmd(),
		a.newRetrodesignCmd(),
		a.newSimulateCmd(),
		a.newCurveCmd(),
		a.newBatchCmd(),
		a.newReportCmd(),
		a.newHistoryCmd(),
	)

	return rootCmd
}

func (a *cliApp) init(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	c, err := container.New(cfg)
	if err != nil {
		return err
	}

	if cfg.Database.Enabled() {
		db, err := container.Connect(ctx, cfg.Database)
		if err != nil {
			return err
		}
		if err := c.InitWithDatabase(db); err != nil {
			db.Close()
			return err
		}
	}

	a.config = cfg
	a.container = c
	return nil
}

func (a *cliApp) close(ctx context.Context) error {
	if a.container == nil {
		return nil
	}
	return a.container.Shutdown(ctx)
}

// emit writes v as indented JSON when --json is set and calls text otherwise
func (a *cliApp) emit(w io.Writer, v interface{}, text func(io.Writer)) error {
	if a.jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}
