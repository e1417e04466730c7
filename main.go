package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"property-media/config"
	"property-media/media"
	"property-media/services"
	"property-media/storage"
	"property-media/utils"
)

const (
	backendSupabase = "supabase"
	backendPostgres = "postgres"
)

// app carries what every command needs once the root command has run.
type app struct {
	cfg     *config.Config
	logger  *utils.Logger
	backend string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "property-media",
		Short:         "Normalise property listings and their media galleries",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.cfg = config.Load()
			logger, err := utils.NewConfiguredLogger(a.cfg.LogLevel, a.cfg.LogFormat)
			if err != nil {
				return err
			}
			a.logger = logger
			if a.backend == "" {
				a.backend = backendPostgres
				if a.cfg.SupabaseURL != "" {
					a.backend = backendSupabase
				}
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.backend, "backend", "",
		"row backend: supabase or postgres (default: supabase when SUPABASE_URL is set)")

	root.AddCommand(a.showCmd(), a.exportCmd())
	return root
}

func (a *app) showCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Look a property up across all table sources and print it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			catalog, closeFn, err := a.openCatalog(ctx)
			if err != nil {
				a.logger.Error("%v", err)
				return err
			}
			defer closeFn()

			property, err := catalog.Lookup(ctx, args[0])
			if err != nil {
				a.logger.Error("Lookup failed: %v", err)
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(property)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", property.Name, property.ID)
			fmt.Fprintf(out, "  Source   : %s\n", property.Source)
			fmt.Fprintf(out, "  Location : %s, %s\n", property.City, property.Country)
			fmt.Fprintf(out, "  Price    : %.2f (was %.2f)\n", property.Price, property.OldPrice)
			fmt.Fprintf(out, "  Rating   : %.1f from %d reviews\n", property.OverallRating, property.ReviewsCount)
			fmt.Fprintf(out, "  Backdrop : %s\n", property.FeatureBackdrop)
			fmt.Fprintf(out, "  Gallery  : %d images (storage: %t)\n", len(property.Gallery), property.StorageGallery)
			for _, img := range property.Gallery {
				fmt.Fprintf(out, "    - %s [%s]\n", img.URL, img.Alt)
			}
			fmt.Fprintf(out, "  Features :\n")
			for _, f := range property.Features {
				fmt.Fprintf(out, "    • %s\n", f)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the property as JSON")
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	var skipDB bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Normalise every listing, write CSV and PostgreSQL, print insights",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, logger := a.cfg, a.logger

			logger.Info("=== Property export starting ===")
			logger.Info("Config | backend: %s | tables: %d | concurrency: %d | rate: %dms",
				a.backend, len(cfg.TableSources), cfg.MaxConcurrency, cfg.RateLimitMs)

			catalog, closeFn, err := a.openCatalog(ctx)
			if err != nil {
				logger.Error("%v", err)
				return err
			}
			defer closeFn()

			properties, err := catalog.NormalizeAll(ctx, cfg.MaxConcurrency, cfg.RateLimitMs)
			if err != nil {
				logger.Error("Normalisation aborted: %v", err)
				return err
			}
			if len(properties) == 0 {
				logger.Error("No properties were read. Exiting.")
				return fmt.Errorf("no properties")
			}

			writers := []storage.PropertyWriter{}
			csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath)
			if err != nil {
				logger.Error("Failed to create CSV writer: %v", err)
			} else {
				writers = append(writers, csvWriter)
			}
			if !skipDB {
				pg, err := storage.NewPostgresStore(ctx, cfg.DSN())
				if err != nil {
					logger.Error("Failed to connect to PostgreSQL: %v", err)
				} else {
					writers = append(writers, pg)
				}
			}

			for _, w := range writers {
				if err := w.Write(ctx, properties); err != nil {
					logger.Error("Write failed (%T): %v", w, err)
				} else {
					logger.Info("Wrote %d properties (%T)", len(properties), w)
				}
				_ = w.Close()
			}

			insightSvc := services.NewInsightService(logger)
			insightSvc.Print(cmd.OutOrStdout(), insightSvc.Generate(properties))

			fmt.Fprintf(cmd.OutOrStdout(), "  Done. CSV → %s | Postgres → %t\n\n", cfg.CSVOutputPath, !skipDB)
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipDB, "skip-db", false, "do not write normalised properties to PostgreSQL")
	return cmd
}

// openCatalog wires the row backend, the storage gallery resolver and the
// media normaliser into a Catalog. The storage resolver needs Supabase and
// is left out when SUPABASE_URL is unset.
func (a *app) openCatalog(ctx context.Context) (*services.Catalog, func(), error) {
	cfg, logger := a.cfg, a.logger

	var supabase *storage.SupabaseClient
	if cfg.SupabaseURL != "" {
		retry := &utils.RetryConfig{MaxAttempts: cfg.MaxRetries, BaseDelay: 500 * time.Millisecond, Logger: logger}
		timeout := time.Duration(cfg.StorageHTTPTimeoutMs) * time.Millisecond
		client, err := storage.NewSupabaseClient(cfg.SupabaseURL, cfg.SupabaseKey, timeout, retry)
		if err != nil {
			return nil, nil, err
		}
		supabase = client
	}

	var rows storage.RowStore
	switch a.backend {
	case backendSupabase:
		if supabase == nil {
			return nil, nil, fmt.Errorf("backend %q needs SUPABASE_URL", a.backend)
		}
		rows = supabase
	case backendPostgres:
		pg, err := storage.NewPostgresStore(ctx, cfg.DSN())
		if err != nil {
			return nil, nil, err
		}
		rows = pg
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", a.backend)
	}

	var resolver *media.StorageResolver
	if supabase != nil {
		resolver = media.NewStorageResolver(supabase,
			media.WithMarker(cfg.StorageMarker),
			media.WithCache(media.NewGalleryCache(cfg.GalleryCacheSize)),
			media.WithWarningFunc(logger.Warning("storage")),
		)
	} else {
		logger.Warn("[main] SUPABASE_URL unset, storage galleries disabled")
	}

	normalizer := media.NewNormalizer(logger.Warning("media"))
	catalog := services.NewCatalog(rows, resolver, normalizer, cfg.TableSources, logger)

	closeFn := func() {
		_ = rows.Close()
		if supabase != nil && rows != storage.RowStore(supabase) {
			_ = supabase.Close()
		}
	}
	return catalog, closeFn, nil
}
