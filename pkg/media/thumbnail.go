package media

import (
	"fmt"
	"os/exec"
)

// Thumbnailer derives a still image from a stored video file.
type Thumbnailer interface {
	Generate(videoPath, thumbPath string) error
}

// FFmpeg extracts a frame two seconds into the video, scaled to 320x240.
type FFmpeg struct{}

func (FFmpeg) Generate(videoPath, thumbPath string) error {
	cmd := exec.Command("ffmpeg", "-y", "-ss", "2", "-i", videoPath, "-vframes", "1", "-s", "320x240", thumbPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, out)
	}
	return nil
}
