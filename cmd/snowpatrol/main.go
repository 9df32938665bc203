package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/comigor/snowpatrol/internal/agent"
	"github.com/comigor/snowpatrol/internal/api"
	"github.com/comigor/snowpatrol/internal/chat"
	"github.com/comigor/snowpatrol/internal/config"
	"github.com/comigor/snowpatrol/internal/logger"
	"github.com/comigor/snowpatrol/internal/report"
	"github.com/comigor/snowpatrol/internal/warehouse"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.L.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.L.Debug("no .env file found, using environment variables")
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	logger.SetLevel(cfg.Log.Level)
	return cfg, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "snowpatrol",
		Short: "Behavior intelligence dashboard backend",
		Long: `snowpatrol serves the behavior intelligence dashboard: date-bounded queries
over the precomputed analytic views, a chat engine against the hosted
conversational agent, and business report generation.`,
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd())
	root.AddCommand(newReportCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			store, err := warehouse.Open(cfg.Warehouse.DSN, cfg.Warehouse.Schema)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := store.Close(); closeErr != nil {
					logger.L.Error("failed to close warehouse", "error", closeErr)
				}
			}()
			if err := store.Ping(context.Background()); err != nil {
				return fmt.Errorf("warehouse health check: %w", err)
			}
			logger.L.Info("warehouse connected", "dsn", cfg.Warehouse.DSN, "schema", cfg.Warehouse.Schema)

			window, err := warehouse.ParseWindow(cfg.Data.MinDate, cfg.Data.MaxDate)
			if err != nil {
				return err
			}

			engine := agent.NewEngine(agent.NewClient(cfg.Agent))
			handler := api.NewHandler(store, engine, chat.NewStore(), report.NewGenerator(store), window)

			addr := cfg.Server.Host + ":" + cfg.Server.Port
			logger.L.Info("starting server", "address", addr,
				"agent", cfg.Agent.Name, "window", cfg.Data.MinDate+".."+cfg.Data.MaxDate)
			return http.ListenAndServe(addr, handler.Router())
		},
	}
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate a business report without starting the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			start, _ := cmd.Flags().GetString("start")
			end, _ := cmd.Flags().GetString("end")
			sections, _ := cmd.Flags().GetStringSlice("sections")
			out, _ := cmd.Flags().GetString("out")

			window, err := warehouse.ParseWindow(cfg.Data.MinDate, cfg.Data.MaxDate)
			if err != nil {
				return err
			}
			dr, err := window.ParseRange(start, end)
			if err != nil {
				return err
			}
			if len(sections) == 0 {
				sections = report.AllSections
			}

			store, err := warehouse.Open(cfg.Warehouse.DSN, cfg.Warehouse.Schema)
			if err != nil {
				return err
			}
			defer store.Close()

			doc, err := report.NewGenerator(store).Generate(context.Background(), sections, dr)
			if err != nil {
				return err
			}
			if out == "" {
				out = report.Filename(dr)
			}
			if err := os.WriteFile(out, doc, 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			logger.L.Info("report written", "path", out, "sections", strings.Join(sections, ", "))
			return nil
		},
	}
	cmd.Flags().String("start", "", "Report start date (YYYY-MM-DD, defaults to the data window)")
	cmd.Flags().String("end", "", "Report end date (YYYY-MM-DD, defaults to the data window)")
	cmd.Flags().StringSlice("sections", nil, "Sections to include (defaults to all)")
	cmd.Flags().String("out", "", "Output path (defaults to the canonical report filename)")
	return cmd
}
