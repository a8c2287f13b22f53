package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"newsgraph/backend/internal/graph"
	"newsgraph/backend/internal/lobsters"
	"newsgraph/backend/pkg/config"
	"newsgraph/backend/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type importOptions struct {
	pages       int
	concurrency int
	baseURL     string
	schema      bool
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "importer",
		Short:         "Load lobste.rs stories into the article graph",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newImportCmd(), newSchemaCmd(), newResetCmd())
	return root
}

func newImportCmd() *cobra.Command {
	opts := importOptions{}
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Fetch the newest stories and upsert them into Neo4j",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()
			opts.applyDefaults(cmd, cfg)
			return runImport(cmd.Context(), cfg, opts)
		},
	}
	cmd.Flags().IntVar(&opts.pages, "pages", 0, "number of listing pages to fetch (default IMPORT_PAGES)")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "pages fetched in parallel (default IMPORT_CONCURRENCY)")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "site to import from (default LOBSTERS_BASE_URL)")
	cmd.Flags().BoolVar(&opts.schema, "schema", true, "ensure constraints and indexes before importing")
	return cmd
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Create the constraints and indexes used by the article queries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			repo, closeRepo, err := openRepository(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeRepo()

			if err := repo.EnsureSchema(cmd.Context()); err != nil {
				return err
			}
			logger.Get().Info("Schema ready")
			return nil
		},
	}
}

func newResetCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every article, user and tag from Neo4j",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout()) {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
				return nil
			}

			cfg, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			repo, closeRepo, err := openRepository(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeRepo()

			return repo.DeleteAll(cmd.Context())
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

// confirm asks before destroying data. Only "yes" or "y" proceeds.
func confirm(in io.Reader, out io.Writer) bool {
	fmt.Fprint(out, "This deletes the whole article graph. Continue? (yes/no): ")
	answer, _ := bufio.NewReader(in).ReadString('\n')
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "yes" || answer == "y"
}

func (o *importOptions) applyDefaults(cmd *cobra.Command, cfg *config.Config) {
	if !cmd.Flags().Changed("pages") {
		o.pages = cfg.ImportPages
	}
	if !cmd.Flags().Changed("concurrency") {
		o.concurrency = cfg.ImportConcurrency
	}
	if o.baseURL == "" {
		o.baseURL = cfg.LobstersBaseURL
	}
}

func setup() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Env); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

func openRepository(ctx context.Context, cfg *config.Config) (*graph.Repository, func(), error) {
	driver, err := graph.Connect(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
	if err != nil {
		return nil, nil, err
	}
	return graph.NewRepository(driver, cfg.Neo4jDatabase), func() { _ = driver.Close(context.Background()) }, nil
}

func runImport(ctx context.Context, cfg *config.Config, opts importOptions) error {
	log := logger.Get()
	if opts.pages < 1 {
		return fmt.Errorf("--pages must be positive, got %d", opts.pages)
	}

	repo, closeRepo, err := openRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	if opts.schema {
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Warn("Failed to ensure schema", zap.Error(err))
		}
	}

	client, err := lobsters.NewClient(opts.baseURL, nil)
	if err != nil {
		return err
	}

	log.Info("Starting import",
		zap.String("source", opts.baseURL),
		zap.Int("pages", opts.pages),
		zap.Int("concurrency", opts.concurrency),
	)
	summary, err := lobsters.NewImporter(client, repo, opts.baseURL, opts.concurrency).Run(ctx, opts.pages)
	if err != nil {
		log.Error("Import failed", zap.Error(err))
		return err
	}

	total, err := repo.CountArticles(ctx)
	if err != nil {
		log.Warn("Failed to count articles", zap.Error(err))
	}
	fmt.Printf("Imported %d articles (%d users, %d tags) from %d pages in %s; %d articles stored\n",
		summary.Articles, summary.Users, summary.Tags, summary.Pages, summary.Took.Round(1e6), total)
	return nil
}
