package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
	"github.com/saturnino-fabrica-de-software/vigia/internal/imaging"
	"github.com/saturnino-fabrica-de-software/vigia/internal/tracker"
)

var frameExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".webp": true,
}

type trackOptions struct {
	NthFrame    int
	ChangesOnly bool
	Quiet       bool
}

// trackStats summarizes one run for the closing line on stderr
type trackStats struct {
	processed int
	dropped   int
	labels    map[string]int
}

func (a *app) trackCmd() *cobra.Command {
	var opts trackOptions

	cmd := &cobra.Command{
		Use:   "track SOURCE",
		Short: "Label the faces of a video, a frame directory or an MJPEG stream",
		Long: `Runs a tracking session over SOURCE and prints one JSON line per frame.

SOURCE can be a video file (decoded with ffmpeg), a directory of images
processed in name order, or "-" to read concatenated JPEG frames from stdin.
Frames the detector cannot handle are dropped and the session continues.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTrack(cmd, args[0], opts)
		},
	}

	cmd.Flags().IntVarP(&opts.NthFrame, "nth-frame", "n", 1, "Only process every nth video frame")
	cmd.Flags().BoolVar(&opts.ChangesOnly, "changes-only", false, "Print only frames whose labels changed")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Hide the progress bar")
	return cmd
}

func (a *app) runTrack(cmd *cobra.Command, source string, opts trackOptions) error {
	if opts.NthFrame < 1 {
		return fmt.Errorf("--nth-frame must be at least 1, got %d", opts.NthFrame)
	}

	ctx := cmd.Context()
	session := a.components.Engine.NewSession(uuid.NewString(), a.components.Snapshots.Load())
	enc := json.NewEncoder(cmd.OutOrStdout())
	stats := &trackStats{labels: make(map[string]int)}

	progress := cmd.ErrOrStderr()
	if opts.Quiet {
		progress = io.Discard
	}

	step := func(bar *progressbar.ProgressBar) func(int, []byte) error {
		return func(_ int, frame []byte) error {
			_ = bar.Add(1)
			return a.trackFrame(ctx, session, frame, enc, stats, opts)
		}
	}

	var err error
	switch info, statErr := os.Stat(source); {
	case source == "-":
		bar := newBar(-1, "Tracking stdin", progress)
		err = imaging.ReadFrames(cmd.InOrStdin(), step(bar))
	case statErr != nil:
		return fmt.Errorf("open %s: %w", source, statErr)
	case info.IsDir():
		err = a.trackDir(source, progress, step)
	default:
		err = a.trackVideo(ctx, source, opts.NthFrame, progress, step)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "\nsession %s: %d frame(s) processed, %d dropped, labels %s\n",
		session.ID(), stats.processed, stats.dropped, formatLabelCounts(stats.labels))
	return nil
}

func (a *app) trackDir(dir string, progress io.Writer, step func(*progressbar.ProgressBar) func(int, []byte) error) error {
	frames, err := listFrames(dir)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("no image files in %s", dir)
	}

	fn := step(newBar(len(frames), "Tracking", progress))
	for i, path := range frames {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if err := fn(i, data); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) trackVideo(ctx context.Context, path string, nth int, progress io.Writer, step func(*progressbar.ProgressBar) func(int, []byte) error) error {
	ffmpeg := imaging.NewFFmpegCmd(ctx, path, nth)

	var stderr bytes.Buffer
	ffmpeg.Stderr = &stderr

	stdout, err := ffmpeg.StdoutPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdout: %w", err)
	}
	if err := ffmpeg.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	readErr := imaging.ReadFrames(stdout, step(newBar(-1, "Tracking "+filepath.Base(path), progress)))
	if readErr != nil {
		// ffmpeg would block on a pipe nobody reads
		_ = ffmpeg.Process.Kill()
		_ = ffmpeg.Wait()
		return readErr
	}
	waitErr := ffmpeg.Wait()

	if waitErr != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg: %w: %s", waitErr, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// trackFrame steps the session. Only a gallery dimension mismatch or cancellation
// stops the run; other failures drop the frame.
func (a *app) trackFrame(ctx context.Context, session *tracker.Session, frame []byte, enc *json.Encoder, stats *trackStats, opts trackOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	result, err := session.Step(ctx, frame)
	if err != nil {
		if errors.Is(err, domain.ErrDimensionMismatch) || errors.Is(err, context.Canceled) {
			return err
		}
		stats.dropped++
		return nil
	}

	stats.processed++
	for _, face := range result.Faces {
		stats.labels[face.Label]++
	}

	if opts.ChangesOnly && !result.LabelsChanged {
		return nil
	}
	return enc.Encode(result)
}

func newBar(total int, description string, w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
	)
}

// listFrames returns the image files directly under dir in name order
func listFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	var frames []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if frameExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			frames = append(frames, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(frames)
	return frames, nil
}

func formatLabelCounts(counts map[string]int) string {
	if len(counts) == 0 {
		return "none"
	}
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	parts := make([]string, len(labels))
	for i, label := range labels {
		parts[i] = fmt.Sprintf("%s=%d", label, counts[label])
	}
	return strings.Join(parts, " ")
}
