package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pasteldream/pastel-backend/config"
	"github.com/pasteldream/pastel-backend/pkg/logger"
)

// ProductFolder is the key prefix for product images.
const ProductFolder = "products"

const presignExpiry = 15 * time.Minute

// MaxImageSize bounds an uploaded product image.
const MaxImageSize = 5 << 20

var ImageContentTypes = []string{
	"image/jpeg",
	"image/jpg",
	"image/png",
	"image/gif",
	"image/webp",
}

var ErrEmptyFileName = errors.New("file name is required")

// objectAPI is the part of the S3 client the bucket writes through.
type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Bucket stores product images in one S3 bucket.
type Bucket struct {
	objects objectAPI
	presign *s3.PresignClient
	bucket  string
	region  string
	baseURL string
	now     func() time.Time
}

type Object struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type PresignedUpload struct {
	UploadURL string `json:"upload_url"`
	FileURL   string `json:"file_url"`
	Key       string `json:"key"`
}

// NewBucket builds the S3 client from static credentials when they are
// configured and from the default credential chain otherwise.
func NewBucket(ctx context.Context, cfg config.S3Config) *Bucket {
	var awsCfg aws.Config
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg = aws.Config{
			Region:      cfg.Region,
			Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		}
	} else {
		loaded, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			logger.Warn("Failed to load AWS credential chain", map[string]interface{}{
				"error": err.Error(),
			})
			loaded = aws.Config{Region: cfg.Region}
		}
		awsCfg = loaded
	}

	client := s3.NewFromConfig(awsCfg)
	return newBucket(client, s3.NewPresignClient(client), cfg)
}

func newBucket(objects objectAPI, presign *s3.PresignClient, cfg config.S3Config) *Bucket {
	return &Bucket{
		objects: objects,
		presign: presign,
		bucket:  cfg.Bucket,
		region:  cfg.Region,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		now:     time.Now,
	}
}

// ProductImageKey names an upload products/<unix ms>_<file name>.
func (b *Bucket) ProductImageKey(fileName string) (string, error) {
	name := filepath.Base(strings.TrimSpace(fileName))
	if name == "" || name == "." || name == "/" {
		return "", ErrEmptyFileName
	}
	return fmt.Sprintf("%s/%d_%s", ProductFolder, b.now().UnixMilli(), name), nil
}

// PublicURL is the read URL for key, through BaseURL when one is set.
func (b *Bucket) PublicURL(key string) string {
	if b.baseURL != "" {
		return b.baseURL + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", b.bucket, b.region, key)
}

// UploadProductImage writes body under a fresh product key and returns its
// public URL.
func (b *Bucket) UploadProductImage(ctx context.Context, fileName, contentType string, body io.Reader) (*Object, error) {
	key, err := b.ProductImageKey(fileName)
	if err != nil {
		return nil, err
	}

	logger.Debug("Uploading object to S3", map[string]interface{}{
		"bucket": b.bucket,
		"key":    key,
	})
	_, err = b.objects.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
		Body:        body,
	})
	if err != nil {
		logger.Error("Failed to upload object to S3", err, map[string]interface{}{
			"bucket": b.bucket,
			"key":    key,
		})
		return nil, fmt.Errorf("failed to upload %s: %w", key, err)
	}

	return &Object{Key: key, URL: b.PublicURL(key)}, nil
}

// PresignProductImage returns a PUT URL valid for 15 minutes so the browser
// can upload directly.
func (b *Bucket) PresignProductImage(ctx context.Context, fileName, contentType string) (*PresignedUpload, error) {
	key, err := b.ProductImageKey(fileName)
	if err != nil {
		return nil, err
	}

	req, err := b.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return &PresignedUpload{
		UploadURL: req.URL,
		FileURL:   b.PublicURL(key),
		Key:       key,
	}, nil
}

func ValidateFileSize(size, maxSize int64) error {
	if size > maxSize {
		return fmt.Errorf("file size exceeds maximum allowed size of %d bytes", maxSize)
	}
	return nil
}

func ValidateContentType(contentType string, allowedTypes []string) error {
	for _, allowed := range allowedTypes {
		if contentType == allowed {
			return nil
		}
	}
	return fmt.Errorf("content type %s is not allowed", contentType)
}
