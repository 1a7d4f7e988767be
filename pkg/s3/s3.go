package s3

import (
	"log"
	"mime"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// Mirror copies stored media files into an S3 bucket. Local disk stays the
// store of record; the mirror is best-effort and a nil *Mirror is a no-op.
type Mirror struct {
	uploader *s3manager.Uploader
	bucket   string
}

func NewMirror(region, bucket string) *Mirror {
	if bucket == "" {
		return nil
	}
	sess := session.Must(session.NewSession(&aws.Config{
		Region: aws.String(region),
	}))
	return &Mirror{uploader: s3manager.NewUploader(sess), bucket: bucket}
}

// MirrorFile uploads the file at path under prefix/basename. Failures are
// logged and swallowed; the local write already succeeded.
func (m *Mirror) MirrorFile(path, prefix string) {
	if m == nil {
		return
	}
	file, err := os.Open(path)
	if err != nil {
		log.Printf("Failed to open %s for S3 mirror: %v", path, err)
		return
	}
	defer file.Close()

	key := prefix + "/" + filepath.Base(path)
	contentType := mime.TypeByExtension(filepath.Ext(path))

	_, err = m.uploader.Upload(&s3manager.UploadInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		log.Printf("Failed to mirror %s to S3: %v", key, err)
	}
}
