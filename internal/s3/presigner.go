package s3

import (
	"context"
	"errors"
	"strings"
	"time"

	appconfig "task-service/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const uploadExpiry = 15 * time.Minute

// FilePresigner signs PUT urls so clients upload avatars straight to the bucket.
type FilePresigner struct {
	presignClient *s3.PresignClient
	bucketName    string
	publicBase    string
}

func NewFilePresigner(ctx context.Context, cfg appconfig.S3Config) (*FilePresigner, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("s3: endpoint and bucket are required")
	}

	awsCfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, err
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &FilePresigner{
		presignClient: s3.NewPresignClient(s3Client),
		bucketName:    cfg.Bucket,
		publicBase:    strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket,
	}, nil
}

// PresignUpload returns a short-lived PUT url for objectKey and the url the object is served from afterwards.
func (p *FilePresigner) PresignUpload(ctx context.Context, objectKey string) (string, string, error) {
	request, err := p.presignClient.PresignPutObject(
		ctx,
		&s3.PutObjectInput{
			Bucket: aws.String(p.bucketName),
			Key:    aws.String(objectKey),
		},
		func(opts *s3.PresignOptions) {
			opts.Expires = uploadExpiry
		},
	)
	if err != nil {
		return "", "", err
	}

	return request.URL, p.publicBase + "/" + objectKey, nil
}
