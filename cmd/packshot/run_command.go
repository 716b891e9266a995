package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"packshot/internal/catalog"
	"packshot/internal/config"
	"packshot/internal/events"
	"packshot/internal/idcache"
	"packshot/internal/logging"
	"packshot/internal/notifications"
	"packshot/internal/records"
	"packshot/internal/resolve"
	"packshot/internal/retailer"
	"packshot/internal/runner"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var retailersFlag []string
	var quiet bool

	cmd := &cobra.Command{
		Use:   "run <input.csv>",
		Short: "Retrieve assets for a spreadsheet of identifiers in one shot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return runOneShot(cmd, cfg, args[0], retailersFlag, quiet)
		},
	}

	cmd.Flags().StringSliceVarP(&retailersFlag, "retailer", "r", []string{"all"}, "Retailers to retrieve for (amazon, sobeys, instacart, or all)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress per-item output; print only the summary")
	return cmd
}

func runOneShot(cmd *cobra.Command, cfg *config.Config, inputPath string, retailers []string, quiet bool) error {
	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	source, err := catalog.NewClient(catalog.ClientOptions{
		BaseURL:       cfg.Portal.BaseURL,
		Timeout:       time.Duration(cfg.Portal.RequestTimeout) * time.Second,
		RetryAttempts: cfg.Portal.RetryAttempts,
		RetryBackoff:  time.Duration(cfg.Portal.RetryBackoff) * time.Second,
	}, logger)
	if err != nil {
		return err
	}

	var cache *idcache.Cache
	if cfg.Resolver.CacheEnabled {
		if cache, err = idcache.Open(cfg.Resolver.CachePath); err != nil {
			logger.Warn("asin cache unavailable; resolving without cache", logging.Error(err))
			cache = nil
		} else {
			defer cache.Close()
		}
	}
	resolver, err := resolve.New(resolve.Options{
		BaseURL:       cfg.Portal.BaseURL,
		Timeout:       time.Duration(cfg.Portal.RequestTimeout) * time.Second,
		RetryAttempts: cfg.Portal.RetryAttempts,
		RetryBackoff:  time.Duration(cfg.Portal.RetryBackoff) * time.Second,
		Cache:         cache,
	}, logger)
	if err != nil {
		return err
	}

	registry, err := newRegistry(cfg)
	if err != nil {
		return err
	}

	items, err := records.ReadCSV(inputPath)
	if err != nil {
		return err
	}

	hub := events.NewHub(cfg.Workflow.EventBuffer)
	run := runner.New(cfg, registry, source, resolver, hub, notifications.NewService(cfg), logger)

	runID, err := run.Start(signalCtx, items, retailers)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !quiet {
		fmt.Fprintf(out, "run %s started\n", runID)
	}
	interactive := isatty.IsTerminal(os.Stdout.Fd()) && !quiet
	summary := consumeEvents(signalCtx, hub, out, interactive, quiet)
	run.Wait()

	if summary == nil {
		if final := run.Status().Summary; final != nil {
			summary = final
		}
	}
	if summary == nil {
		return errors.New("run ended without a summary")
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, renderSummary(summary))
	if summary.Status != string(runner.StateSucceeded) {
		return fmt.Errorf("run finished with status %s", summary.Status)
	}
	return nil
}

// consumeEvents drains the hub until the done event arrives, printing item
// results as they land. Cancellation stops the loop; the caller then reads
// the final summary off the runner.
func consumeEvents(ctx context.Context, hub *events.Hub, out io.Writer, interactive, quiet bool) *events.Summary {
	var since uint64
	for {
		evts, next, err := hub.Fetch(ctx, since, 200, true)
		if err != nil && !errors.Is(err, context.Canceled) {
			return nil
		}
		for _, evt := range evts {
			switch evt.Kind {
			case events.KindItem:
				if !quiet && evt.Item != nil {
					printItem(out, evt.Item)
				}
			case events.KindProgress:
				if interactive && evt.Progress != nil {
					fmt.Fprintf(out, "\r%s: %d/%d items, %d files written",
						evt.Progress.Stage, evt.Progress.CompletedItems, evt.Progress.TotalItems, evt.Progress.FilesWritten)
				}
			case events.KindLog:
				if !quiet && evt.Log != nil {
					fmt.Fprintf(out, "%s: %s\n", evt.Log.Level, evt.Log.Message)
				}
			case events.KindDone:
				if interactive {
					fmt.Fprintln(out)
				}
				return evt.Summary
			}
		}
		since = next
		if err != nil {
			return nil
		}
	}
}

func printItem(out io.Writer, item *events.Item) {
	line := fmt.Sprintf("%-14s %-10s %s", item.Identifier, item.Retailer, item.Status)
	if len(item.Files) > 0 {
		line += " " + strings.Join(item.Files, ", ")
	}
	if item.Detail != "" {
		line += " (" + item.Detail + ")"
	}
	fmt.Fprintln(out, line)
}

func renderSummary(summary *events.Summary) string {
	rows := [][]string{
		{"Status", summary.Status},
		{"Items", strconv.Itoa(summary.TotalItems)},
		{"Files written", strconv.Itoa(summary.FilesWritten)},
		{"Files skipped", strconv.Itoa(summary.FilesSkipped)},
		{"Failed", strings.Join(summary.Failed, ", ")},
		{"Restricted", strings.Join(summary.Restricted, ", ")},
		{"Duplicates dropped", strings.Join(summary.DuplicateRows, ", ")},
		{"Elapsed", fmt.Sprintf("%.1fs", summary.ElapsedSeconds)},
	}
	return renderFieldTable(rows)
}

func newRegistry(cfg *config.Config) (*retailer.Registry, error) {
	roots := make(retailer.FolderRoots)
	for name, root := range cfg.Retailers {
		roots[name] = root
	}
	for _, name := range []string{"amazon", "sobeys", "instacart"} {
		if _, ok := roots[name]; !ok {
			roots[name] = filepath.Join(cfg.Paths.DownloadDir, name)
		}
	}
	return retailer.NewRegistry(roots)
}
