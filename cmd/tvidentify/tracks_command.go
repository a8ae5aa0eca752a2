package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"tvidentify/internal/language"
	"tvidentify/internal/media/ffprobe"
	"tvidentify/internal/pgs"
	"tvidentify/internal/services"
	"tvidentify/internal/subtitles"
)

var inspectMedia = ffprobe.Inspect

var trackColumns = []column{
	{Header: ""},
	{Header: "Index", Numeric: true},
	{Header: "Codec"},
	{Header: "Language"},
	{Header: "Title"},
	{Header: "Forced"},
	{Header: "SDH"},
	{Header: "PGS"},
}

type trackView struct {
	Index           int    `json:"index"`
	Codec           string `json:"codec"`
	Language        string `json:"language,omitempty"`
	LanguageName    string `json:"language_name,omitempty"`
	Title           string `json:"title,omitempty"`
	Forced          bool   `json:"forced"`
	HearingImpaired bool   `json:"hearing_impaired"`
	PGS             bool   `json:"pgs"`
	Selected        bool   `json:"selected"`
}

func newTracksCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "tracks FILE",
		Short: "List subtitle tracks and show which one extract would use",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := filepath.Abs(args[0])
			if err != nil {
				return services.Wrap(services.ErrValidation, "tracks", "resolve path", args[0], err)
			}
			probe, err := inspectMedia(cmd.Context(), cfg.Tools.FFprobe, path)
			if err != nil {
				return services.Wrap(services.ErrExternalTool, "tracks", "ffprobe", path, err)
			}

			selectedIndex := -1
			selected, selErr := subtitles.SelectTrack(probe.Streams, subtitles.Selection{
				Index:    cfg.Extraction.SubtitleTrack,
				Language: cfg.Extraction.SubtitleLanguage,
			})
			if selErr == nil {
				selectedIndex = selected.Index
			}

			var views []trackView
			for _, stream := range probe.SubtitleStreams() {
				lang := stream.Language()
				views = append(views, trackView{
					Index:           stream.Index,
					Codec:           stream.CodecName,
					Language:        lang,
					LanguageName:    language.DisplayName(lang),
					Title:           stream.Title(),
					Forced:          stream.Forced(),
					HearingImpaired: stream.HearingImpaired(),
					PGS:             pgs.CheckCodec(stream.CodecName) == nil,
					Selected:        stream.Index == selectedIndex,
				})
			}

			if jsonOutput {
				if views == nil {
					views = []trackView{}
				}
				return writeJSON(cmd, views)
			}
			if len(views) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No subtitle tracks found")
				return nil
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				marker := ""
				if v.Selected {
					marker = "*"
				}
				rows = append(rows, []string{
					marker,
					strconv.Itoa(v.Index),
					v.Codec,
					dashIfEmpty(v.Language),
					dashIfEmpty(v.Title),
					yesNo(v.Forced),
					yesNo(v.HearingImpaired),
					yesNo(v.PGS),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(trackColumns, rows))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
