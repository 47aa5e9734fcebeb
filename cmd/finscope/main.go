package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"
	"github.com/subosito/gotenv"

	"github.com/finscope/finscope/pkg/aggregate"
	"github.com/finscope/finscope/pkg/api"
	"github.com/finscope/finscope/pkg/cache"
	"github.com/finscope/finscope/pkg/config"
	"github.com/finscope/finscope/pkg/profile"
	"github.com/finscope/finscope/pkg/report"
	"github.com/finscope/finscope/pkg/server"
	"github.com/finscope/finscope/pkg/service"
	"github.com/finscope/finscope/pkg/store"
)

var (
	cliFilters filters
	cfgFile    string
	dump       bool
)

var rootCmd = &cobra.Command{
	Use:   "finscope",
	Short: "Personal-finance aggregation and reporting pipeline",
	RunE: func(cmd *cobra.Command, _ []string) error {
		// Show help when no subcommand is provided
		return cmd.Help()
	},
}

// newLogger builds the process logger: stderr, caller and timestamp
// reporting, command name as prefix.
func newLogger() *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		Prefix:          "finscope",
	})
}

// setup resolves config and wires the loader with its sqlite-backed cache.
// The returned closer releases the store.
func setup(cmd *cobra.Command, logger *log.Logger) (*config.Config, *service.Loader, func(), error) {
	cfg, err := config.Build(cfgFile, cmd.Flags())
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.APIBaseURL == "" {
		return nil, nil, nil, fmt.Errorf("no api url configured (set FINSCOPE_API_URL or api-url)")
	}

	creds := api.NewCredentials()
	if cfg.HeadersFile != "" {
		headers, err := readHeaders(cfg.HeadersFile)
		if err != nil {
			return nil, nil, nil, err
		}
		creds.Set(headers)
	} else {
		logger.Warn("no headers file configured, fetches will wait for credentials",
			"timeout", cfg.CredentialWait)
	}

	st, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open cache store: %w", err)
	}

	client := api.NewClient(cfg.APIBaseURL, creds, logger)
	client.CredentialWait = cfg.CredentialWait
	loader := service.NewLoader(client, cache.New(st, cfg.CacheTTL, logger), logger)
	closer := func() {
		if err := st.Close(); err != nil {
			logger.Warn("failed to close store", "error", err)
		}
	}
	return cfg, loader, closer, nil
}

// readHeaders loads the credential header bundle from a JSON object file.
// The contents stay opaque; they are replayed verbatim onto API requests.
func readHeaders(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read headers file: %w", err)
	}
	var headers map[string]string
	if err := json.Unmarshal(data, &headers); err != nil {
		return nil, fmt.Errorf("parse headers file %s: %w", path, err)
	}
	return headers, nil
}

// loadSnapshot runs setup and one bounded load, honoring the credential wait.
func loadSnapshot(cmd *cobra.Command, logger *log.Logger) (*config.Config, *service.Snapshot, error) {
	cfg, loader, closer, err := setup(cmd, logger)
	if err != nil {
		return nil, nil, err
	}
	defer closer()

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	snap, err := loader.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	if dump {
		pp.Fprintln(os.Stderr, snap)
	}
	return cfg, snap, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve chart data and report exports over HTTP",
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := newLogger()
		cfg, loader, closer, err := setup(cmd, logger)
		if err != nil {
			return err
		}
		defer closer()

		srv := server.New(cfg, loader, logger)
		logger.Info("starting server", "addr", cfg.ListenAddr)
		return srv.Start(cfg.ListenAddr)
	},
}

var seriesCmd = &cobra.Command{
	Use:   "series",
	Short: "Print monthly series per root category as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := newLogger()
		cfg, snap, err := loadSnapshot(cmd, logger)
		if err != nil {
			return err
		}
		params, prof, err := cliFilters.resolve(cfg.ProfilesFile)
		if err != nil {
			return err
		}
		params.ExcludeCategoryIDs = append(params.ExcludeCategoryIDs, cfg.ExcludeCategoryIDs...)

		cumulative, _ := cmd.Flags().GetBool("cumulative")
		activeOnly, _ := cmd.Flags().GetBool("active-only")
		data := aggregate.Series(snap.Filter(params), snap.Index, aggregate.SeriesOptions{
			Cumulative: cumulativeMode(cumulative, cmd.Flags().Changed("cumulative"), prof),
			ActiveOnly: activeOnly,
		})
		return printJSON(data)
	},
}

var flowsCmd = &cobra.Command{
	Use:   "flows",
	Short: "Print Sankey flow edges as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := newLogger()
		cfg, snap, err := loadSnapshot(cmd, logger)
		if err != nil {
			return err
		}
		params, err := cliFilters.toParams(cfg.ProfilesFile)
		if err != nil {
			return err
		}
		params.ExcludeCategoryIDs = append(params.ExcludeCategoryIDs, cfg.ExcludeCategoryIDs...)

		edges := aggregate.Flows(snap.Filter(params), snap.Index, cfg.BudgetRootIDs)
		return printJSON(edges)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print budget-comparison statistics per category as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := newLogger()
		cfg, snap, err := loadSnapshot(cmd, logger)
		if err != nil {
			return err
		}
		params, prof, err := cliFilters.resolve(cfg.ProfilesFile)
		if err != nil {
			return err
		}
		params.ExcludeCategoryIDs = append(params.ExcludeCategoryIDs, cfg.ExcludeCategoryIDs...)

		calcFlag, _ := cmd.Flags().GetString("calc")
		calc := calcMode(calcFlag, cmd.Flags().Changed("calc"), prof)
		year, _ := cmd.Flags().GetInt("year")
		month, _ := cmd.Flags().GetInt("month")
		before, _ := cmd.Flags().GetInt("before")

		history := aggregate.BuildHistory(snap.Filter(params), snap.Index)
		now := time.Now()
		if month >= 1 && month <= 12 {
			if before == 0 {
				before = now.Year()
			}
			return printJSON(history.HistoricalValue(time.Month(month), before, calc))
		}
		if year == 0 {
			year = now.Year()
		}
		return printJSON(history.MonthlyValue(year, now, calc))
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the merged transaction report as CSV",
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := newLogger()
		cfg, snap, err := loadSnapshot(cmd, logger)
		if err != nil {
			return err
		}
		// The report keeps globally excluded categories unless the caller
		// excludes them explicitly.
		params, err := cliFilters.toParams(cfg.ProfilesFile)
		if err != nil {
			return err
		}

		rows := report.Rows(snap.Transactions, snap.Index, snap.Accounts, report.Options{
			Start:              params.Start,
			End:                params.End,
			AccountIDs:         params.AccountIDs,
			ExcludeCategoryIDs: params.ExcludeCategoryIDs,
		})

		out := report.CSV(rows)
		if path, _ := cmd.Flags().GetString("output"); path != "" {
			if err := os.WriteFile(path, []byte(out), 0644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			logger.Info("report written", "path", path, "rows", len(rows))
			return nil
		}
		fmt.Print(out)
		return nil
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Drop cached datasets so the next run refetches",
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := newLogger()
		_, loader, closer, err := setup(cmd, logger)
		if err != nil {
			return err
		}
		defer closer()

		if err := loader.Refresh(cmd.Context()); err != nil {
			return err
		}
		logger.Info("cache invalidated")
		return nil
	},
}

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List the report profiles in the configured profiles file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Build(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		if cfg.ProfilesFile == "" {
			return fmt.Errorf("no profiles file configured")
		}
		profiles, err := profile.Load(cfg.ProfilesFile)
		if err != nil {
			return err
		}
		profiles.Print()
		return nil
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default is finscope.yaml)")
	rootCmd.PersistentFlags().BoolVar(&dump, "dump", false, "Pretty-print the loaded snapshot to stderr")

	// Filter flags (global)
	rootCmd.PersistentFlags().StringVar(&cliFilters.profileName, "profile", "", "Report profile name")
	rootCmd.PersistentFlags().StringVar(&cliFilters.startDate, "start", "", "Start date (YYYY-MM-DD, inclusive)")
	rootCmd.PersistentFlags().StringVar(&cliFilters.endDate, "end", "", "End date (YYYY-MM-DD, inclusive)")
	rootCmd.PersistentFlags().StringSliceVar(&cliFilters.accounts, "accounts", nil, "Restrict to these account ids")
	rootCmd.PersistentFlags().StringSliceVar(&cliFilters.exclude, "exclude", nil, "Additionally exclude these category ids")

	seriesCmd.Flags().Bool("cumulative", true, "One summed point per month instead of one per transaction")
	seriesCmd.Flags().Bool("active-only", false, "Drop categories without activity")

	statsCmd.Flags().String("calc", "median", "Statistic: median or average")
	statsCmd.Flags().Int("year", 0, "Year for monthly values (default: current)")
	statsCmd.Flags().Int("month", 0, "Calendar month for historical values (1-12)")
	statsCmd.Flags().Int("before", 0, "Pool historical years strictly before this year")

	exportCmd.Flags().StringP("output", "o", "", "Write CSV to this file instead of stdout")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seriesCmd)
	rootCmd.AddCommand(flowsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(profilesCmd)
}

func main() {
	_ = gotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
