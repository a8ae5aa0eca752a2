package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"tvidentify/internal/config"
	"tvidentify/internal/preflight"
	"tvidentify/internal/services"
	"tvidentify/internal/subtitles"
)

var extractColumns = []column{
	{Header: "File"},
	{Header: "Track", Numeric: true},
	{Header: "Lang"},
	{Header: "Lines", Numeric: true},
	{Header: "Rejected", Numeric: true},
	{Header: "Dups", Numeric: true},
	{Header: "Cached"},
	{Header: "Output"},
}

type extractOptions struct {
	offset       int
	scanDuration int
	maxFrames    int
	track        int
	language     string
	outputDir    string
	jobs         int
	noCache      bool
	strictRLE    bool
	jsonOutput   bool
	printText    bool
}

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var opts extractOptions

	cmd := &cobra.Command{
		Use:   "extract FILE...",
		Short: "Extract subtitle text from the PGS track of each file",
		Long: `Extract subtitle text from the PGS track of each file.

Each file is probed with ffprobe, the selected subtitle stream is copied
with ffmpeg, decoded and passed through tesseract. Accepted lines are
written to <name>_subtitles.json in the output directory. When no
output directory is configured they are printed instead.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg, err := applyExtractFlags(cmd, base, opts)
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			if err := checkExtractTools(cmd, cfg); err != nil {
				return err
			}

			var svcOpts []subtitles.ServiceOption
			if cfg.Cache.Enabled {
				store, err := ctx.openCache()
				if err != nil {
					return err
				}
				defer store.Close()
				svcOpts = append(svcOpts, subtitles.WithCache(store))
			}
			svc := subtitles.NewService(cfg, logger, svcOpts...)

			reqs := make([]subtitles.Request, 0, len(args))
			for _, arg := range args {
				path, err := filepath.Abs(strings.TrimSpace(arg))
				if err != nil {
					return services.Wrap(services.ErrValidation, "extract", "resolve path", arg, err)
				}
				reqs = append(reqs, subtitles.RequestFromConfig(cfg, path))
			}

			items, err := svc.ExtractBatch(cmd.Context(), reqs, cfg.Extraction.Jobs)
			if err != nil {
				return err
			}
			return renderExtractResults(cmd, cfg, opts, items)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.offset, "offset", 0, "Skip subtitles before this many minutes")
	flags.IntVar(&opts.scanDuration, "scan-duration", 0, "Minutes of subtitles to scan after the offset (0 scans to the end)")
	flags.IntVar(&opts.maxFrames, "max-frames", 0, "Stop after this many subtitle events (0 for no limit)")
	flags.IntVar(&opts.track, "track", subtitles.AutoTrack, "Subtitle stream index (-1 selects by language)")
	flags.StringVar(&opts.language, "language", "", "Preferred subtitle language")
	flags.StringVar(&opts.outputDir, "output-dir", "", "Directory for JSON results")
	flags.IntVar(&opts.jobs, "jobs", 0, "Files to process in parallel")
	flags.BoolVar(&opts.noCache, "no-cache", false, "Bypass the extraction cache")
	flags.BoolVar(&opts.strictRLE, "strict-rle", false, "Reject bitmaps with short RLE rows instead of padding them")
	flags.BoolVar(&opts.jsonOutput, "json", false, "Print results as JSON")
	flags.BoolVar(&opts.printText, "text", false, "Print accepted lines after the summary")

	return cmd
}

// applyExtractFlags returns a copy of base with the flags the user set.
func applyExtractFlags(cmd *cobra.Command, base *config.Config, opts extractOptions) (*config.Config, error) {
	cfg := *base
	flags := cmd.Flags()
	if flags.Changed("offset") {
		cfg.Extraction.OffsetMinutes = opts.offset
	}
	if flags.Changed("scan-duration") {
		cfg.Extraction.ScanDurationMinutes = opts.scanDuration
	}
	if flags.Changed("max-frames") {
		cfg.Extraction.MaxFrames = opts.maxFrames
	}
	if flags.Changed("track") {
		cfg.Extraction.SubtitleTrack = opts.track
	}
	if flags.Changed("language") {
		cfg.Extraction.SubtitleLanguage = strings.TrimSpace(opts.language)
	}
	if flags.Changed("jobs") {
		cfg.Extraction.Jobs = opts.jobs
	}
	if flags.Changed("strict-rle") {
		cfg.Extraction.StrictRLERows = opts.strictRLE
	}
	if opts.noCache {
		cfg.Cache.Enabled = false
	}
	if flags.Changed("output-dir") {
		dir, err := config.ExpandPath(opts.outputDir)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "extract", "output dir", opts.outputDir, err)
		}
		cfg.Paths.OutputDir = dir
	}
	if err := cfg.Validate(); err != nil {
		return nil, services.Wrap(services.ErrValidation, "extract", "flags", "", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "extract", "directories", "", err)
	}
	return &cfg, nil
}

func checkExtractTools(cmd *cobra.Command, cfg *config.Config) error {
	failed := preflight.Failed(preflight.RunAll(cmd.Context(), cfg))
	if len(failed) == 0 {
		return nil
	}
	names := make([]string, 0, len(failed))
	for _, result := range failed {
		names = append(names, fmt.Sprintf("%s (%s)", result.Name, result.Detail))
	}
	return services.Wrap(services.ErrExternalTool, "preflight", "check", strings.Join(names, "; "), nil)
}

func renderExtractResults(cmd *cobra.Command, cfg *config.Config, opts extractOptions, items []subtitles.BatchItem) error {
	// Without an output directory results only go to the console.
	writeFiles := strings.TrimSpace(cfg.Paths.OutputDir) != "" &&
		(!opts.jsonOutput || cmd.Flags().Changed("output-dir"))
	printText := opts.printText || (!opts.jsonOutput && !writeFiles)

	var firstErr error
	results := make([]*subtitles.Result, 0, len(items))
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		if item.Err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", item.Request.SourcePath, item.Err)
			if firstErr == nil {
				firstErr = item.Err
			}
			continue
		}
		res := item.Result
		results = append(results, res)
		output := "-"
		if writeFiles {
			path, err := subtitles.WriteJSON(cfg.Paths.OutputDir, res)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", res.Source, err)
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			output = path
		}
		rows = append(rows, []string{
			filepath.Base(res.Source),
			strconv.Itoa(res.Track.Index),
			dashIfEmpty(res.Track.Language),
			strconv.Itoa(len(res.Lines)),
			strconv.Itoa(res.Stats.Rejected),
			strconv.Itoa(res.Stats.Duplicates),
			yesNo(res.CacheHit),
			output,
		})
	}

	if opts.jsonOutput {
		if err := writeJSON(cmd, results); err != nil {
			return err
		}
		return firstErr
	}

	out := cmd.OutOrStdout()
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable(extractColumns, rows))
	}
	if printText {
		for _, res := range results {
			fmt.Fprintf(out, "\n%s\n", res.Source)
			for _, line := range res.Lines {
				fmt.Fprintf(out, "  %s  %s\n", line.Timestamp, line.Text)
			}
		}
	}
	return firstErr
}
