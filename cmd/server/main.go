package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"minitube/cmd/config"
	"minitube/pkg/handlers"
	"minitube/pkg/media"
	"minitube/pkg/pipeline"
	"minitube/pkg/s3"
	"minitube/pkg/store"
)

func main() {
	config.Load()

	// A corrupt table file is fatal; the process must not start on it.
	st, err := store.Open(config.DataDir)
	if err != nil {
		log.Fatal("failed to open record store: ", err)
	}

	mirror := s3.NewMirror(config.AWSRegion, config.S3Bucket)
	p, err := pipeline.New(st, media.FFmpeg{}, mirror, config.VideoDir, config.ThumbnailDir)
	if err != nil {
		log.Fatal("failed to set up pipeline: ", err)
	}

	// Set up Gin router
	r := gin.Default()
	r.Use(handlers.RequestLog())

	// Routes
	handlers.RegisterRoutes(r, handlers.New(st, p))

	// Static media and the front-end
	r.Static("/videos", config.VideoDir)
	r.Static("/thumbnails", config.ThumbnailDir)
	r.NoRoute(gin.WrapH(http.FileServer(http.Dir(config.PublicDir))))

	// Start the server
	r.Run(config.Addr)
}
