package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kevinmichaelchen/portfolio/internal/cache"
	"github.com/kevinmichaelchen/portfolio/internal/config"
	"github.com/kevinmichaelchen/portfolio/internal/github"
	"github.com/kevinmichaelchen/portfolio/internal/llm"
	"github.com/kevinmichaelchen/portfolio/internal/models"
	"github.com/kevinmichaelchen/portfolio/internal/pipeline"
	"github.com/kevinmichaelchen/portfolio/internal/provider"
	"github.com/kevinmichaelchen/portfolio/internal/server"
	"github.com/kevinmichaelchen/portfolio/internal/showcase"
	"github.com/kevinmichaelchen/portfolio/internal/snapshot"
	"github.com/kevinmichaelchen/portfolio/internal/surrealdb"
	"github.com/spf13/cobra"
)

var logLevel string

func main() {
	root := &cobra.Command{
		Use:          "portfolio",
		Short:        "Project data for the portfolio site (GitHub → cache → JSON API)",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")

	root.AddCommand(
		projectsCmd(), reposCmd(), userCmd(), repoCmd(),
		snapshotCmd(), serveCmd(),
		schemaCmd(), archiveCmd(), statsCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup() (*config.Config, *slog.Logger) {
	cfg := config.Load()
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	logger := config.NewLogger(os.Stderr, cfg.LogLevel)
	slog.SetDefault(logger)
	return cfg, logger
}

func newProvider(cfg *config.Config, logger *slog.Logger) *provider.Provider {
	gh := github.NewClient(cfg.GitHubToken,
		github.WithBaseURL(cfg.GitHubAPIURL),
		github.WithGraphQLURL(cfg.GitHubGraphQLURL),
	)
	return provider.New(gh, snapshot.NewLoader(cfg.SnapshotSource), cache.New(provider.TTL), cfg.GitHubHandle, logger)
}

func projectsCmd() *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List the projects the site shows (pinned → all → snapshot)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger := setup()
			p := newProvider(cfg, logger)

			repos, tier := showcase.LoadProjects(cmd.Context(), p)
			if tier == showcase.TierNone {
				fmt.Println("No projects available")
				return nil
			}

			fmt.Printf("Source: %s\n", tier)
			if langs := showcase.Languages(repos); len(langs) > 0 {
				fmt.Printf("Languages: %s\n", strings.Join(langs, ", "))
			}
			fmt.Println()
			printRepos(showcase.Filter(repos, filter))
			return nil
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "all", `"all", "featured" or a language name`)
	return cmd
}

func reposCmd() *cobra.Command {
	var sortFlag string

	cmd := &cobra.Command{
		Use:   "repos",
		Short: "List all public repositories",
		RunE: func(cmd *cobra.Command, args []string) error {
			sortBy, err := models.ParseSortBy(sortFlag)
			if err != nil {
				return err
			}
			cfg, logger := setup()

			repos := newProvider(cfg, logger).FetchAll(cmd.Context(), sortBy)
			if len(repos) == 0 {
				fmt.Println("No repositories available")
				return nil
			}
			printRepos(repos)
			return nil
		},
	}
	cmd.Flags().StringVar(&sortFlag, "sort", "updated", "updated, stars or created")
	return cmd
}

func userCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "user",
		Short: "Show the GitHub profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger := setup()

			user := newProvider(cfg, logger).FetchUser(cmd.Context())
			if user == nil {
				return fmt.Errorf("profile for %s not available", cfg.GitHubHandle)
			}

			name := user.Login
			if user.Name != nil && *user.Name != "" {
				name = fmt.Sprintf("%s (%s)", *user.Name, user.Login)
			}
			fmt.Println(name)
			if user.Bio != nil {
				fmt.Println(*user.Bio)
			}
			fmt.Printf("Repos: %d  Followers: %d  Following: %d\n", user.PublicRepos, user.Followers, user.Following)
			fmt.Println(user.URL)
			return nil
		},
	}
}

func repoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repo [name]",
		Short: "Show a single repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger := setup()

			repo := newProvider(cfg, logger).FetchRepository(cmd.Context(), args[0])
			if repo == nil {
				return fmt.Errorf("repository %s/%s not available", cfg.GitHubHandle, args[0])
			}
			printRepos([]models.RepositoryRecord{*repo})
			return nil
		},
	}
}

func snapshotCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Write the static fallback document from live GitHub data",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger := setup()

			if out == "" {
				out = cfg.SnapshotSource
				if _, isURL := snapshot.NewLoader(out).(snapshot.URLLoader); isURL {
					out = "docs/api/github.json"
				}
			}

			snap, err := snapshot.Build(cmd.Context(), newProvider(cfg, logger), time.Now())
			if err != nil {
				return err
			}
			if err := snapshot.Write(out, snap); err != nil {
				return err
			}
			fmt.Printf("Wrote %s (%d pinned, %d total)\n", out, len(snap.PinnedRepositories), len(snap.Repositories))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output path (defaults to SNAPSHOT_SOURCE)")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the project data as a JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger := setup()
			if addr == "" {
				addr = cfg.ListenAddr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			router := server.NewRouter(newProvider(cfg, logger), logger)
			return server.Serve(ctx, addr, router, logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to LISTEN_ADDR)")
	return cmd
}

func schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Initialize/update SurrealDB schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, _ := setup()

			db, err := surrealdb.NewClient(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close(ctx) }()

			if err := db.InitSchema(ctx); err != nil {
				return err
			}
			fmt.Println("Schema initialized")
			return nil
		},
	}
}

func archiveCmd() *cobra.Command {
	var skipEnrich bool

	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Store public repositories in SurrealDB and describe undocumented ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, logger := setup()

			db, err := surrealdb.NewClient(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close(ctx) }()

			describer := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel)
			report, err := pipeline.Run(ctx, newProvider(cfg, logger), db, describer,
				pipeline.Options{SkipEnrich: skipEnrich}, logger)
			if err != nil {
				return err
			}
			fmt.Printf("Archived %d, described %d, failed %d\n", report.Archived, report.Described, report.Failed)
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipEnrich, "skip-enrich", false, "Store only (no AI calls)")
	return cmd
}

func statsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show archived project counts and language breakdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, _ := setup()

			db, err := surrealdb.NewClient(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close(ctx) }()

			stats, err := db.GetStats(ctx)
			if err != nil {
				return err
			}
			langs, err := db.GetLanguageBreakdown(ctx)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{"stats": stats, "languages": langs})
			}

			fmt.Printf("Projects: %d\n", stats.Total)
			fmt.Printf("Stars:    %d\n", stats.Stars)
			fmt.Printf("Enriched: %d\n", stats.Enriched)
			if len(langs) > 0 {
				fmt.Println("\nLanguage breakdown:")
				for _, l := range langs {
					fmt.Printf("  %-20s %d\n", l.Language, l.Count)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func printRepos(repos []models.RepositoryRecord) {
	for i, r := range repos {
		line := fmt.Sprintf("%d. %s  ★ %d  forks %d", i+1, r.Name, r.Stars, r.Forks)
		if r.Language != nil {
			line += "  " + *r.Language
		}
		if r.UpdatedAt != "" {
			line += "  " + showcase.FormatDate(r.UpdatedAt)
		}
		fmt.Println(line)
		fmt.Printf("   %s\n", r.URL)
		if r.Description != nil && *r.Description != "" {
			fmt.Printf("   %s\n", *r.Description)
		}
		if len(r.Topics) > 0 {
			n := min(len(r.Topics), 3)
			fmt.Printf("   Topics: %s\n", strings.Join(r.Topics[:n], ", "))
		}
		fmt.Println()
	}
}

// Verify at compile time that each consumer's interface is satisfied.
var (
	_ server.Provider    = (*provider.Provider)(nil)
	_ snapshot.Fetcher   = (*provider.Provider)(nil)
	_ pipeline.Source    = (*provider.Provider)(nil)
	_ pipeline.Store     = (*surrealdb.Client)(nil)
	_ pipeline.Describer = (*llm.Client)(nil)
	_ provider.Source    = (*github.Client)(nil)
)
