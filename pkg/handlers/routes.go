package handlers

import (
	"github.com/gin-gonic/gin"
	"minitube/pkg/auth"
)

// RegisterRoutes mounts the JSON API under /api.
func RegisterRoutes(r gin.IRouter, h *Handler) {
	api := r.Group("/api")

	api.POST("/register", h.Register)
	api.POST("/login", h.Login)
	api.POST("/logout", h.Logout)

	api.GET("/videos", h.ListVideos)
	api.GET("/videos/:id", h.GetVideo)
	api.POST("/upload", auth.RequireLogin, h.Upload)
	api.POST("/videos/:id/thumbnail", auth.RequireLogin, h.ReplaceThumbnail)
	api.POST("/videos/:id/like", auth.RequireLogin, h.Like)
	api.POST("/videos/:id/comment", auth.RequireLogin, h.Comment)

	api.GET("/user/:username", h.UserPage)
	api.POST("/subscribe/:username", auth.RequireLogin, h.Subscribe)
}
