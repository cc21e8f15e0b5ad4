package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ombresaco/shortsmaker/internal/config"
	"github.com/ombresaco/shortsmaker/internal/queue"
	"github.com/ombresaco/shortsmaker/internal/seams"
	"github.com/ombresaco/shortsmaker/internal/store"
	"github.com/ombresaco/shortsmaker/pkg/util"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Queue management commands",
}

var queueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List queued jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		a, err := newApp(cfg)
		if err != nil {
			return err
		}

		items := a.queue.Items()
		if len(items) == 0 {
			fmt.Println("queue is empty")
			return nil
		}
		for i, item := range items {
			line := fmt.Sprintf("%2d. [%s] %s #%d %.2f-%.2f", i+1, item.Status, item.VideoID, item.SegmentIndex, item.StartTime, item.EndTime)
			if item.Error != "" {
				line += " error: " + item.Error
			}
			if item.YouTubeURL != "" {
				line += " " + item.YouTubeURL
			}
			fmt.Println(line)
		}
		return nil
	},
}

var queueAddCmd = &cobra.Command{
	Use:   "add [video id]",
	Short: "Queue every stored segment of a video",
	Long:  "Derives segments from the video's stored seams and queues one job per segment, applying stored names and overlays.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		a, err := newApp(cfg)
		if err != nil {
			return err
		}

		videoID := args[0]
		data := a.store.Video(videoID)
		if len(data.Seams) < 2 {
			return fmt.Errorf("video %s has no stored seams", videoID)
		}

		duration := data.Seams[len(data.Seams)-1].Time
		model := seams.FromData(data.Seams, sparseToSlice(data.SegmentNames), sparseToSlice(data.TextOverlays), duration)

		longLimit := float64(cfg.Queue.LongSegmentSecs)
		if longLimit <= 0 {
			longLimit = seams.LongSegmentThreshold
		}
		settings := uploadDefaults(a.store.GetUploadSettings(), cfg.Upload)

		added := 0
		for _, seg := range model.Segments() {
			if seg.Duration() > longLimit {
				log.Warn().Int("segment", seg.Index).Float64("duration", seg.Duration()).Msg("segment exceeds short-form length, queueing anyway")
			}
			base := videoID
			if data.TitleOverride != "" {
				base = data.TitleOverride
			}
			title := seg.Name
			if title == "" || data.TitleOverride != "" {
				title = renderTitle(settings.TitleTemplate, base, seg.Index+1)
			}

			a.queue.Add(queue.Item{
				VideoID:           videoID,
				SegmentIndex:      seg.Index,
				SegmentName:       seg.Name,
				StartTime:         util.RoundSeconds(seg.Start),
				EndTime:           util.RoundSeconds(seg.End),
				OverlayText:       seg.OverlayText,
				UploadTitle:       title,
				UploadDescription: settings.Description,
				UploadTags:        settings.Tags,
				UploadPrivacy:     settings.Privacy,
			})
			added++
		}

		log.Info().Str("video", videoID).Int("added", added).Msg("segments queued")
		return nil
	},
}

var queueProcessCmd = &cobra.Command{
	Use:   "process",
	Short: "Process all pending jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		a, err := newApp(cfg)
		if err != nil {
			return err
		}

		if a.remote != nil {
			remoteItems, err := a.remote.Items(cmd.Context())
			if err != nil {
				log.Warn().Err(err).Msg("remote queue unreachable, processing local items only")
			} else if added := a.queue.MergeRemote(remoteItems); added > 0 {
				log.Info().Int("added", added).Msg("pulled remote queue items")
			}
		}

		return a.processor.ProcessAll(cmd.Context())
	},
}

var queueClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove completed jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		a, err := newApp(cfg)
		if err != nil {
			return err
		}

		removed := a.queue.ClearCompleted()
		log.Info().Int("removed", removed).Msg("completed jobs cleared")
		return nil
	},
}

// uploadDefaults fills blank per-video upload settings from the config
// defaults.
func uploadDefaults(s store.UploadSettings, c config.UploadConfig) store.UploadSettings {
	if s.TitleTemplate == "" {
		s.TitleTemplate = c.TitleTemplate
	}
	if s.Description == "" {
		s.Description = c.Description
	}
	if len(s.Tags) == 0 && c.Tags != "" {
		s.Tags = splitTags(c.Tags)
	}
	if s.Privacy == "" {
		s.Privacy = c.Privacy
	}
	return s
}

// renderTitle expands {title} and {n} in the template. A blank template
// falls back to "<title> part <n>".
func renderTitle(template, base string, n int) string {
	if template == "" {
		return fmt.Sprintf("%s part %d", base, n)
	}
	return strings.NewReplacer("{title}", base, "{n}", strconv.Itoa(n)).Replace(template)
}

func splitTags(csv string) []string {
	var tags []string
	for _, tag := range strings.Split(csv, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// sparseToSlice turns an index-keyed map into a dense slice sized to the
// highest index.
func sparseToSlice(m map[int]string) []string {
	max := -1
	for i := range m {
		if i > max {
			max = i
		}
	}
	out := make([]string, max+1)
	for i, v := range m {
		if i >= 0 {
			out[i] = v
		}
	}
	return out
}

func init() {
	queueCmd.AddCommand(queueListCmd)
	queueCmd.AddCommand(queueAddCmd)
	queueCmd.AddCommand(queueProcessCmd)
	queueCmd.AddCommand(queueClearCmd)
}
