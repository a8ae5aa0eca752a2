package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tvidentify/internal/config"
	"tvidentify/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration, tool and cache status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			report := newStatusReport(cmd.OutOrStdout())

			report.section("Configuration")
			if ctx.configSeen {
				report.line("Config", statusOK, ctx.configPath)
			} else {
				report.line("Config", statusWarn, "using defaults; run 'tvidentify config init'")
			}
			report.line("Subtitle language", statusInfo, cfg.Extraction.SubtitleLanguage)
			report.line("Scan window", statusInfo, scanWindowLabel(cfg))

			report.section("Tools")
			for _, status := range preflight.CheckSystemDeps(cmd.Context(), cfg) {
				switch {
				case !status.Available:
					report.line(status.Name, statusError, status.Detail)
				case strings.HasPrefix(status.Name, "Tesseract "):
					report.line(status.Name, statusOK, "traineddata installed")
				default:
					message := status.Path
					if version := toolVersion(cmd, cfg, status.Command); version != "" {
						message = version
					}
					report.line(status.Name, statusOK, message)
				}
			}

			report.section("Directories")
			for _, result := range preflight.CheckDirectories(cfg) {
				kind := statusOK
				if !result.Passed {
					kind = statusError
				}
				report.line(result.Name, kind, result.Detail)
			}

			report.section("Cache")
			reportCache(cmd, ctx, cfg, report)

			if _, err := report.WriteTo(cmd.OutOrStdout()); err != nil {
				return err
			}
			if report.errors > 0 {
				return fmt.Errorf("status: %d checks failed", report.errors)
			}
			return nil
		},
	}
}

func toolVersion(cmd *cobra.Command, cfg *config.Config, command string) string {
	if command == cfg.Tools.Tesseract {
		return preflight.ToolVersion(cmd.Context(), command, "--version")
	}
	return preflight.ToolVersion(cmd.Context(), command, "-version")
}

func reportCache(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, report *statusReport) {
	const label = "Extraction cache"
	if !cfg.Cache.Enabled {
		report.line(label, statusInfo, "disabled")
		return
	}
	store, err := ctx.openCache()
	if err != nil {
		report.line(label, statusError, err.Error())
		return
	}
	defer store.Close()
	entries, err := store.List(cmd.Context())
	if err != nil {
		report.line(label, statusError, err.Error())
		return
	}
	report.line(label, statusOK, fmt.Sprintf("%d entries in %s", len(entries), store.Dir()))
}

func scanWindowLabel(cfg *config.Config) string {
	if cfg.ScanDuration() <= 0 {
		return fmt.Sprintf("from %s to end", cfg.Offset())
	}
	return fmt.Sprintf("%s + %s", cfg.Offset(), cfg.ScanDuration())
}
