package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecommerce-shop/shared/pkg/config"
)

type fakePut struct {
	in   *s3.PutObjectInput
	body string
	err  error
}

func (f *fakePut) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3Put(t *testing.T) {
	fp := &fakePut{}
	s := &S3{Client: fp, Bucket: "docs"}

	ref, err := s.Put(context.Background(), "users/u1/documents/DNI/a.pdf", strings.NewReader("pdf"), 3, "application/pdf")
	require.NoError(t, err)

	assert.Equal(t, "s3://docs/users/u1/documents/DNI/a.pdf", ref)
	assert.Equal(t, "docs", aws.ToString(fp.in.Bucket))
	assert.Equal(t, "application/pdf", aws.ToString(fp.in.ContentType))
	assert.Equal(t, int64(3), aws.ToInt64(fp.in.ContentLength))
	assert.Equal(t, "pdf", fp.body)
}

func TestS3Put_Error(t *testing.T) {
	boom := errors.New("access denied")
	s := &S3{Client: &fakePut{err: boom}, Bucket: "docs"}

	_, err := s.Put(context.Background(), "k", strings.NewReader(""), 0, "")
	assert.ErrorIs(t, err, boom)
}

func TestNewS3_UsesSeam(t *testing.T) {
	orig := newS3Client
	defer func() { newS3Client = orig }()

	var gotEndpoint string
	var gotRegion string
	newS3Client = func(cfg aws.Config, endpoint string) PutObjectAPI {
		gotEndpoint, gotRegion = endpoint, cfg.Region
		return &fakePut{}
	}

	s, err := NewS3(context.Background(), config.S3Config{
		Bucket: "docs", Region: "eu-west-1", BaseEndpoint: "http://minio:9000",
		AccessKey: "ak", SecretKey: "sk",
	})
	require.NoError(t, err)
	assert.Equal(t, "docs", s.Bucket)
	assert.Equal(t, "http://minio:9000", gotEndpoint)
	assert.Equal(t, "eu-west-1", gotRegion)
}
