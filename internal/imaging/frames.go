package imaging

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
)

const megabyte = 1024 * 1024

var (
	jpegSOI = []byte{0xFF, 0xD8}
	jpegEOI = []byte{0xFF, 0xD9}
)

// SplitJPEG is a bufio.SplitFunc that yields whole JPEG images from a concatenated stream
// by locating the Start Of Image (FFD8) and End Of Image (FFD9) markers.
func SplitJPEG(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	start := bytes.Index(data, jpegSOI)
	if start == -1 {
		if atEOF {
			return len(data), nil, nil
		}
		return 0, nil, nil
	}
	end := bytes.Index(data[start:], jpegEOI)
	if end == -1 {
		if atEOF {
			return len(data), nil, nil
		}
		return 0, nil, nil
	}
	return start + end + 2, data[start : start+end+2], nil
}

// ReadFrames calls fn for every JPEG in r, in order, with a 0-based index.
// The frame slice is only valid during the callback.
func ReadFrames(r io.Reader, fn func(index int, frame []byte) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, megabyte), 64*megabyte)
	scanner.Split(SplitJPEG)

	index := 0
	for scanner.Scan() {
		if err := fn(index, scanner.Bytes()); err != nil {
			return err
		}
		index++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan frames: %w", err)
	}
	return nil
}

// NewFFmpegCmd decodes inputPath into an MJPEG stream on stdout, every nth frame.
func NewFFmpegCmd(ctx context.Context, inputPath string, nth int) *exec.Cmd {
	args := []string{"-hide_banner", "-loglevel", "error", "-i", inputPath}
	if nth > 1 {
		args = append(args, "-vf", fmt.Sprintf("select=not(mod(n\\,%d))", nth), "-vsync", "vfr")
	}
	args = append(args, "-f", "image2pipe", "-vcodec", "mjpeg", "-")
	//nolint:gosec // inputPath comes from the local operator's command line
	return exec.CommandContext(ctx, "ffmpeg", args...)
}
