// Package main is the entry point for the docview CLI: sign in with Google,
// exchange the identity for a document service session and follow documents
// while the service generates their study material.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ai-docview/internal/bootstrap"
	"ai-docview/internal/config"
	"ai-docview/internal/pkg/logger"
	"ai-docview/internal/tracer"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	verbose        bool
	app            *bootstrap.Container
	shutdownTracer func(context.Context) error
)

var rootCmd = &cobra.Command{
	Use:   "docview",
	Short: "Follow AI-processed documents from the terminal",
	Long: `docview signs in with Google, trades the Google identity for a document
service session and shows documents while the service is still generating
their topics, mind map and predicted questions.

The session is kept between invocations (SESSION_STORE=file|redis|memory).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if verbose {
			cfg.App.Verbose = true
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		log := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction(), cfg.App.Verbose)
		shutdownTracer = tracer.InitTracer(cfg.Tracing, "docview", log)

		c, err := bootstrap.NewContainer(cfg, log)
		if err != nil {
			return err
		}
		app = c
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app != nil {
			app.Close()
		}
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show debug logs on the console")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}
