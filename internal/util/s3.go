package util

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"github.com/minio/minio-go/v7"
)

type FileUploadOptions struct {
	// Directory path prefix inside the bucket, e.g. "contracts/<id>"
	DirectoryPath string
	// Prefix the object name with a random string to avoid collisions
	UniquePrefix bool
	Bucket       string
	ContentType  string
	S3           *minio.Client
}

func UploadBytesToS3(ctx context.Context, data []byte, filename string, opts *FileUploadOptions) (*minio.UploadInfo, error) {
	if opts == nil || opts.S3 == nil || opts.Bucket == "" {
		return nil, fmt.Errorf("invalid upload options")
	}

	objectName := filepath.Base(filename)
	if opts.UniquePrefix {
		prefix, err := GenerateNChar(8)
		if err != nil {
			return nil, err
		}
		objectName = fmt.Sprintf("%s_%s", prefix, objectName)
	}
	if opts.DirectoryPath != "" {
		objectName = filepath.Join(opts.DirectoryPath, objectName)
	}

	contentType := opts.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	info, err := opts.S3.PutObject(ctx, opts.Bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, err
	}

	return &info, nil
}

// EnsureBucket creates the bucket if it does not exist yet.
func EnsureBucket(ctx context.Context, s3 *minio.Client, bucket string) error {
	exists, err := s3.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	return s3.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
}
