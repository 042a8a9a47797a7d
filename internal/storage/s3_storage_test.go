package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pasteldream/pastel-backend/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakeObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = in
	data, _ := io.ReadAll(in.Body)
	f.body = string(data)
	return &s3.PutObjectOutput{}, nil
}

func newTestBucket(objects objectAPI, baseURL string) *Bucket {
	client := s3.NewFromConfig(aws.Config{
		Region:      "ap-south-1",
		Credentials: credentials.NewStaticCredentialsProvider("AKID", "SECRET", ""),
	})
	b := newBucket(objects, s3.NewPresignClient(client), config.S3Config{
		Region:  "ap-south-1",
		Bucket:  "product-images",
		BaseURL: baseURL,
	})
	b.now = func() time.Time { return time.UnixMilli(1700000000123) }
	return b
}

func TestBucket_ProductImageKey(t *testing.T) {
	b := newTestBucket(&fakeObjects{}, "")

	key, err := b.ProductImageKey("dress.png")
	require.NoError(t, err)
	assert.Equal(t, "products/1700000000123_dress.png", key)

	key, err = b.ProductImageKey("../../etc/dress.png")
	require.NoError(t, err)
	assert.Equal(t, "products/1700000000123_dress.png", key)

	_, err = b.ProductImageKey("  ")
	assert.ErrorIs(t, err, ErrEmptyFileName)
}

func TestBucket_PublicURL(t *testing.T) {
	assert.Equal(t,
		"https://product-images.s3.ap-south-1.amazonaws.com/products/a.png",
		newTestBucket(&fakeObjects{}, "").PublicURL("products/a.png"))
	assert.Equal(t,
		"https://cdn.pastel.test/products/a.png",
		newTestBucket(&fakeObjects{}, "https://cdn.pastel.test/").PublicURL("products/a.png"))
}

func TestBucket_UploadProductImage(t *testing.T) {
	objects := &fakeObjects{}
	b := newTestBucket(objects, "")

	obj, err := b.UploadProductImage(context.Background(), "dress.png", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "products/1700000000123_dress.png", obj.Key)
	assert.Equal(t, "https://product-images.s3.ap-south-1.amazonaws.com/products/1700000000123_dress.png", obj.URL)

	require.NotNil(t, objects.input)
	assert.Equal(t, "product-images", aws.ToString(objects.input.Bucket))
	assert.Equal(t, "image/png", aws.ToString(objects.input.ContentType))
	assert.Equal(t, "png-bytes", objects.body)

	failing := newTestBucket(&fakeObjects{err: errors.New("access denied")}, "")
	_, err = failing.UploadProductImage(context.Background(), "dress.png", "image/png", strings.NewReader("x"))
	assert.ErrorContains(t, err, "access denied")
}

func TestBucket_PresignProductImage(t *testing.T) {
	b := newTestBucket(&fakeObjects{}, "")

	upload, err := b.PresignProductImage(context.Background(), "dress.png", "image/png")
	require.NoError(t, err)
	assert.Equal(t, "products/1700000000123_dress.png", upload.Key)
	assert.Contains(t, upload.UploadURL, "products/1700000000123_dress.png")
	assert.Contains(t, upload.UploadURL, "X-Amz-Signature=")
	assert.Equal(t, b.PublicURL(upload.Key), upload.FileURL)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, ValidateContentType("image/webp", ImageContentTypes))
	assert.Error(t, ValidateContentType("application/pdf", ImageContentTypes))
	assert.NoError(t, ValidateFileSize(MaxImageSize, MaxImageSize))
	assert.Error(t, ValidateFileSize(MaxImageSize+1, MaxImageSize))
}
