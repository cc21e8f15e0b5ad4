package main

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ombresaco/shortsmaker/internal/config"
	"github.com/ombresaco/shortsmaker/internal/media"
	"github.com/ombresaco/shortsmaker/internal/venue"
	"github.com/ombresaco/shortsmaker/pkg/util"
)

var (
	processStart       float64
	processEnd         float64
	processText        string
	processForceClient bool
)

var processCmd = &cobra.Command{
	Use:   "process [video id]",
	Short: "Extract one segment, with optional text overlay",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		if processEnd <= processStart {
			return fmt.Errorf("--end must be greater than --start")
		}

		a, err := newApp(cfg)
		if err != nil {
			return err
		}

		req := venue.Request{
			SourceID:    args[0],
			Start:       processStart,
			End:         processEnd,
			OverlayText: processText,
			ForceClient: processForceClient || cfg.Source.ForceClient,
		}

		result, err := a.orchestrator.Process(cmd.Context(), req, func(p media.Progress) {
			log.Info().Str("stage", p.Stage).Float64("percent", p.Percent).Msg("progress")
		})
		if err != nil {
			return err
		}

		// The cached artifact stays in the cache; the user-facing copy goes
		// to the output directory under a readable name.
		outPath := result.Path
		if cfg.OutputDir != "" {
			outPath = filepath.Join(cfg.OutputDir, fmt.Sprintf("%s_%.2f-%.2f.mp4", req.SourceID, req.Start, req.End))
			if err := util.CopyFile(result.Path, outPath); err != nil {
				return err
			}
		}

		log.Info().
			Str("path", outPath).
			Str("venue", result.Venue).
			Bool("cached", result.Cached).
			Msg("segment ready")

		return nil
	},
}

func init() {
	processCmd.Flags().Float64Var(&processStart, "start", 0, "segment start in seconds")
	processCmd.Flags().Float64Var(&processEnd, "end", 0, "segment end in seconds")
	processCmd.Flags().StringVar(&processText, "text", "", "overlay text (blank for none)")
	processCmd.Flags().BoolVar(&processForceClient, "force-client", false, "try the client venue first")
	processCmd.MarkFlagRequired("end")
}
