package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"tvidentify/internal/services"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the extraction cache",
	}
	cmd.AddCommand(newCacheListCommand(ctx))
	cmd.AddCommand(newCacheClearCommand(ctx))
	cmd.AddCommand(newCachePruneCommand(ctx))
	return cmd
}

var cacheColumns = []column{
	{Header: "Key"},
	{Header: "File"},
	{Header: "Track", Numeric: true},
	{Header: "Lang"},
	{Header: "Events", Numeric: true},
	{Header: "Created"},
}

type cacheEntryView struct {
	Key         string    `json:"key"`
	Source      string    `json:"source"`
	Track       int       `json:"track"`
	Language    string    `json:"language,omitempty"`
	Events      int       `json:"events"`
	Fingerprint string    `json:"fingerprint"`
	CreatedAt   time.Time `json:"created_at"`
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached extractions",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openCache()
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context())
			if err != nil {
				return services.Wrap(services.ErrTransient, "cache", "list", "", err)
			}
			views := make([]cacheEntryView, 0, len(entries))
			for _, e := range entries {
				views = append(views, cacheEntryView{
					Key:         e.Key,
					Source:      e.SourcePath,
					Track:       e.TrackIndex,
					Language:    e.Language,
					Events:      e.EventCount,
					Fingerprint: e.Fingerprint,
					CreatedAt:   e.CreatedAt,
				})
			}
			if jsonOutput {
				return writeJSON(cmd, views)
			}
			out := cmd.OutOrStdout()
			if len(views) == 0 {
				fmt.Fprintln(out, "Cache is empty")
				return nil
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				rows = append(rows, []string{
					shortKey(v.Key),
					filepath.Base(v.Source),
					strconv.Itoa(v.Track),
					dashIfEmpty(v.Language),
					strconv.Itoa(v.Events),
					v.CreatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(out, renderTable(cacheColumns, rows))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached extraction",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openCache()
			if err != nil {
				return err
			}
			defer store.Close()
			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return services.Wrap(services.ErrTransient, "cache", "clear", "", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cache entries\n", removed)
			return nil
		},
	}
}

func newCachePruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove cached extractions older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			maxAge := cfg.CacheMaxAge()
			if cmd.Flags().Changed("older-than") {
				maxAge = olderThan
			}
			if maxAge <= 0 {
				return services.Wrap(services.ErrValidation, "cache", "prune", "retention must be positive", nil)
			}
			store, err := ctx.openCache()
			if err != nil {
				return err
			}
			defer store.Close()
			removed, err := store.Prune(cmd.Context(), maxAge)
			if err != nil {
				return services.Wrap(services.ErrTransient, "cache", "prune", "", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cache entries older than %s\n", removed, maxAge)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Override cache.max_age_days (e.g. 72h)")
	return cmd
}

func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
