package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/verifai/automcp/internal/config"
	"github.com/verifai/automcp/internal/handler"
	expertservice "github.com/verifai/automcp/internal/service/expert"
	historyservice "github.com/verifai/automcp/internal/service/history"
	"github.com/verifai/automcp/internal/store"
	"github.com/verifai/automcp/internal/timeutil"
)

func main() {
	// Stdout carries the MCP wire; everything human-readable goes to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := newRootCmd().Execute(); err != nil {
		slog.Error("automcp failed", "err", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	var testMode bool

	cmd := &cobra.Command{
		Use:           "automcp",
		Short:         "MCP server for the VerifAI Assistant's experts.json and history.json",
		SilenceUsage:  true,
		SilenceErrors: true,
		// Hosts sometimes pass positional launcher arguments; ignore them.
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), v, testMode)
		},
	}

	cmd.Flags().String(config.PathKey, "", "Directory holding the assistant's experts.json and history.json")
	cmd.Flags().BoolVar(&testMode, "test", false, "Run get_experts locally, print the result and exit")

	cobra.CheckErr(config.BindEnv(v))
	cobra.CheckErr(v.BindPFlag(config.PathKey, cmd.Flags().Lookup(config.PathKey)))

	return cmd
}

func run(ctx context.Context, v *viper.Viper, testMode bool) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "err", err)
	}

	cfg := config.Load(v)
	if cfg.AssistantDir == "" {
		slog.Warn("assistant directory not configured; every tool call will report the missing configuration")
	}

	st := store.New(cfg.AssistantDir)
	clock := timeutil.NewClock()
	expertSvc := expertservice.NewService(st)
	historySvc := historyservice.NewService(st, clock)

	if testMode {
		return runDiagnostic(expertSvc)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := handler.NewServer(expertSvc, historySvc)
	slog.Info("automcp serving over stdio", "dir", cfg.AssistantDir)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ServeStdio(s)
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// runDiagnostic executes one read-only operation without a server, so a
// packager or host can verify the configuration from a shell.
func runDiagnostic(expertSvc *expertservice.Service) error {
	experts, err := expertSvc.List()
	if err != nil {
		fmt.Println("Error: " + err.Error())
		return nil
	}
	fmt.Println(handler.FormatExperts(experts))
	return nil
}
