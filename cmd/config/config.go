package config

import (
	"errors"
	"log"

	"github.com/spf13/viper"
)

var (
	Addr         string
	DataDir      string
	VideoDir     string
	ThumbnailDir string
	PublicDir    string
	JWTSecret    string
	AWSRegion    string
	S3Bucket     string
)

func Load() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("cmd/config/")
	viper.AddConfigPath(".")

	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("data.dir", "data")
	viper.SetDefault("media.video_dir", "videos")
	viper.SetDefault("media.thumbnail_dir", "thumbnails")
	viper.SetDefault("media.public_dir", "public")
	viper.SetDefault("auth.jwt_secret", "minitube_secret_key")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Fatalf("Error reading config file, %s", err)
		}
		// No config file: run on defaults.
	}

	Addr = viper.GetString("server.addr")
	DataDir = viper.GetString("data.dir")
	VideoDir = viper.GetString("media.video_dir")
	ThumbnailDir = viper.GetString("media.thumbnail_dir")
	PublicDir = viper.GetString("media.public_dir")
	JWTSecret = viper.GetString("auth.jwt_secret")
	AWSRegion = viper.GetString("aws.region")
	S3Bucket = viper.GetString("aws.s3_bucket")
}
