package services

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	sc "github.com/clipcast/clipcast/internal/server/config"
	"github.com/stretchr/testify/require"
)

func newMediaConfig() *sc.Config {
	cfg := &sc.Config{}
	cfg.LoadDefaults()
	cfg.S3Bucket = "media"
	cfg.S3BaseEndpoint = "http://127.0.0.1:9000/"
	return cfg
}

func TestGetRandomStorageKey_Unique(t *testing.T) {
	t.Parallel()

	k1 := GetRandomStorageKey()
	k2 := GetRandomStorageKey()
	require.NotEqual(t, k1, k2)
	require.True(t, strings.HasPrefix(k1, "users/"))
}

func TestUpload_PutsObjectAndBuildsURL(t *testing.T) {
	origPut := putObject
	t.Cleanup(func() { putObject = origPut })

	var gotBucket, gotKey, gotContentType string
	var gotBody string
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		gotBucket = aws.ToString(in.Bucket)
		gotKey = aws.ToString(in.Key)
		gotContentType = aws.ToString(in.ContentType)
		b, err := io.ReadAll(in.Body)
		require.NoError(t, err)
		gotBody = string(b)
		return &s3.PutObjectOutput{}, nil
	}

	s := NewMediaService(newMediaConfig())

	url, err := s.Upload(context.Background(), strings.NewReader("image-bytes"), "image/png")
	require.NoError(t, err)

	require.Equal(t, "media", gotBucket)
	require.Equal(t, "image/png", gotContentType)
	require.Equal(t, "image-bytes", gotBody)
	require.Equal(t, "http://127.0.0.1:9000/media/"+gotKey, url)
}

func TestUpload_PutError(t *testing.T) {
	origPut := putObject
	t.Cleanup(func() { putObject = origPut })

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return nil, context.DeadlineExceeded
	}

	s := NewMediaService(newMediaConfig())

	_, err := s.Upload(context.Background(), strings.NewReader("x"), "image/png")
	require.Error(t, err)
}
