package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"minitube/pkg/auth"
	"minitube/pkg/models"
	"minitube/pkg/pipeline"
	"minitube/pkg/store"
)

func (h *Handler) ListVideos(c *gin.Context) {
	c.JSON(http.StatusOK, h.Store.Videos())
}

func (h *Handler) GetVideo(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	video, err := h.Store.FindVideo(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	c.JSON(http.StatusOK, video)
}

func (h *Handler) Upload(c *gin.Context) {
	username := auth.Username(c)
	if _, err := h.Store.FindUserByName(username); err != nil {
		// Session valid but the user is gone; should not happen.
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unknown uploader"})
		return
	}

	file, err := c.FormFile("video")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Video file not found in form data"})
		return
	}

	video, err := h.Pipeline.Ingest(file, username)
	if err != nil {
		var thumbErr *pipeline.ThumbnailError
		switch {
		case errors.Is(err, pipeline.ErrBadVideoType):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Only .mp4 and .webm allowed"})
		case errors.As(err, &thumbErr):
			log.Printf("Thumbnail generation error: %v", thumbErr)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Video uploaded but thumbnail generation failed."})
		default:
			log.Printf("Upload error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save video"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "video": video})
}

func (h *Handler) ReplaceThumbnail(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Video not found"})
		return
	}

	file, err := c.FormFile("thumbnail")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Thumbnail file not found in form data"})
		return
	}

	thumbnail, err := h.Pipeline.ReplaceThumbnail(id, file, auth.Username(c))
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Video not found"})
		case errors.Is(err, pipeline.ErrNotOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "Not your video"})
		case errors.Is(err, pipeline.ErrBadImageType):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Only .png, .jpg, .jpeg thumbnails allowed"})
		default:
			log.Printf("Thumbnail replace error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save thumbnail"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "thumbnail": thumbnail})
}

func (h *Handler) Like(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	username := auth.Username(c)

	var likes int
	err = h.Store.MutateVideo(id, func(v *models.Video) error {
		for i, u := range v.Likes {
			if u == username {
				v.Likes = append(v.Likes[:i], v.Likes[i+1:]...)
				likes = len(v.Likes)
				return nil
			}
		}
		v.Likes = append(v.Likes, username)
		likes = len(v.Likes)
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save like"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"likes": likes})
}

type CommentRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *Handler) Comment(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	var req CommentRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	comment := models.Comment{User: auth.Username(c), Text: req.Text}
	err = h.Store.MutateVideo(id, func(v *models.Video) error {
		v.Comments = append(v.Comments, comment)
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save comment"})
		return
	}

	c.JSON(http.StatusOK, comment)
}
