package pipeline

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"minitube/pkg/media"
	"minitube/pkg/models"
	"minitube/pkg/s3"
	"minitube/pkg/store"
)

var (
	ErrBadVideoType = errors.New("only .mp4 and .webm allowed")
	ErrBadImageType = errors.New("only .png, .jpg, .jpeg thumbnails allowed")
	ErrNotOwner     = errors.New("not your video")
)

// ThumbnailError reports a failed thumbnail derivation for an upload that
// already reached disk. The stored video file is not rolled back, but no
// record is created for it.
type ThumbnailError struct {
	Filename string
	Err      error
}

func (e *ThumbnailError) Error() string {
	return fmt.Sprintf("video %s uploaded but thumbnail generation failed: %v", e.Filename, e.Err)
}

func (e *ThumbnailError) Unwrap() error { return e.Err }

// Pipeline turns an uploaded file into a durable video record: extension
// gate, placement under a server-generated filename, thumbnail derivation,
// then record append and persist.
type Pipeline struct {
	store    *store.Store
	thumbs   media.Thumbnailer
	mirror   *s3.Mirror
	videoDir string
	thumbDir string
}

func New(st *store.Store, thumbs media.Thumbnailer, mirror *s3.Mirror, videoDir, thumbDir string) (*Pipeline, error) {
	for _, dir := range []string{videoDir, thumbDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating media dir: %w", err)
		}
	}
	return &Pipeline{store: st, thumbs: thumbs, mirror: mirror, videoDir: videoDir, thumbDir: thumbDir}, nil
}

// Ingest runs the upload pipeline for the authenticated uploader. Nothing is
// written for a disallowed extension. A *ThumbnailError means the video file
// is on disk but no record exists for it.
func (p *Pipeline) Ingest(file *multipart.FileHeader, uploader string) (models.Video, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".mp4" && ext != ".webm" {
		return models.Video{}, ErrBadVideoType
	}

	// Time-derived id doubles as the stored filename prefix, so identical
	// original names never collide on disk.
	id := time.Now().UnixMilli()
	storedName := fmt.Sprintf("%d%s", id, ext)
	videoPath := filepath.Join(p.videoDir, storedName)
	if err := saveUpload(file, videoPath); err != nil {
		return models.Video{}, fmt.Errorf("storing video: %w", err)
	}
	p.mirror.MirrorFile(videoPath, "videos")

	thumbName := fmt.Sprintf("%d.png", time.Now().UnixMilli())
	if err := p.thumbs.Generate(videoPath, filepath.Join(p.thumbDir, thumbName)); err != nil {
		return models.Video{}, &ThumbnailError{Filename: storedName, Err: err}
	}
	p.mirror.MirrorFile(filepath.Join(p.thumbDir, thumbName), "thumbnails")

	video := &models.Video{
		ID:        id,
		Title:     file.Filename,
		Filename:  storedName,
		Uploader:  uploader,
		Likes:     []string{},
		Comments:  []models.Comment{},
		Thumbnail: thumbName,
	}
	if err := p.store.AddVideo(video); err != nil {
		return models.Video{}, fmt.Errorf("saving video record: %w", err)
	}
	return *video, nil
}

// ReplaceThumbnail stores a new thumbnail for the video and updates its
// record. Only the video's uploader may replace it. The previous thumbnail
// file stays on disk.
func (p *Pipeline) ReplaceThumbnail(id int64, file *multipart.FileHeader, username string) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".png" && ext != ".jpg" && ext != ".jpeg" {
		return "", ErrBadImageType
	}

	video, err := p.store.FindVideo(id)
	if err != nil {
		return "", err
	}
	if video.Uploader != username {
		return "", ErrNotOwner
	}

	thumbName := fmt.Sprintf("%d%s", time.Now().UnixMilli(), ext)
	thumbPath := filepath.Join(p.thumbDir, thumbName)
	if err := saveUpload(file, thumbPath); err != nil {
		return "", fmt.Errorf("storing thumbnail: %w", err)
	}
	p.mirror.MirrorFile(thumbPath, "thumbnails")

	err = p.store.MutateVideo(id, func(v *models.Video) error {
		// Re-check under the table lock; the uploader string never changes
		// today, but the gate belongs with the mutation.
		if v.Uploader != username {
			return ErrNotOwner
		}
		v.Thumbnail = thumbName
		return nil
	})
	if err != nil {
		return "", err
	}
	return thumbName, nil
}

func saveUpload(file *multipart.FileHeader, dst string) error {
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	_, err = io.Copy(out, src)
	// A failed close can mean unflushed data; report it so no record is
	// created for a short file.
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return err
}
