package pdfstore

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubSeams(t *testing.T) {
	t.Helper()
	origLoad := loadDefaultAWSConfig
	origNewS3 := newS3ClientFromConfig
	origNewPre := newS3PresignClient
	origPut := putObject
	origPresign := presignGetObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
		putObject = origPut
		presignGetObject = origPresign
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return &s3.Client{}
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return &s3.PresignClient{}
	}
}

func TestNewS3Store_AppliesOptions(t *testing.T) {
	stubSeams(t)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "ap-northeast-1", lo.Region)
		assert.NotNil(t, lo.Credentials, "static credentials expected")
		return aws.Config{}, nil
	}

	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &s3.Client{}
	}

	_, err := NewS3Store(context.Background(), Options{
		Region: "ap-northeast-1", AccessKey: "minio", SecretKey: "minio123",
		Bucket: "works", BaseEndpoint: "http://127.0.0.1:9000",
	})
	require.NoError(t, err)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)
}

func TestNewS3Store_DefaultChainWithoutKeys(t *testing.T) {
	stubSeams(t)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Nil(t, lo.Credentials)
		return aws.Config{}, nil
	}

	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &s3.Client{}
	}

	_, err := NewS3Store(context.Background(), Options{Region: "us-east-1", Bucket: "works"})
	require.NoError(t, err)
	assert.Nil(t, opts.BaseEndpoint)
	assert.False(t, opts.UsePathStyle)
}

func TestNewS3Store_LoadError(t *testing.T) {
	stubSeams(t)
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no region")
	}

	_, err := NewS3Store(context.Background(), Options{})
	require.ErrorContains(t, err, "no region")
}

func TestPut(t *testing.T) {
	stubSeams(t)

	var got *s3.PutObjectInput
	var body []byte
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		got = in
		body, _ = io.ReadAll(in.Body)
		return &s3.PutObjectOutput{}, nil
	}

	store, err := NewS3Store(context.Background(), Options{Bucket: "works"})
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), "invoice/1_x.pdf", []byte("%PDF")))

	assert.Equal(t, "works", aws.ToString(got.Bucket))
	assert.Equal(t, "invoice/1_x.pdf", aws.ToString(got.Key))
	assert.Equal(t, "application/pdf", aws.ToString(got.ContentType))
	assert.Equal(t, []byte("%PDF"), body)
}

func TestPut_Error(t *testing.T) {
	stubSeams(t)
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return nil, errors.New("access denied")
	}

	store, err := NewS3Store(context.Background(), Options{Bucket: "works"})
	require.NoError(t, err)
	require.ErrorContains(t, store.Put(context.Background(), "k", nil), "access denied")
}

func TestPresignGet(t *testing.T) {
	stubSeams(t)

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		var po s3.PresignOptions
		for _, fn := range optFns {
			fn(&po)
		}
		assert.Equal(t, 24*time.Hour, po.Expires)
		assert.Equal(t, "invoice/1_x.pdf", aws.ToString(in.Key))
		return &v4.PresignedHTTPRequest{URL: "https://s3.example/invoice/1_x.pdf?sig=1"}, nil
	}

	store, err := NewS3Store(context.Background(), Options{Bucket: "works"})
	require.NoError(t, err)

	u, err := store.PresignGet(context.Background(), "invoice/1_x.pdf", 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "https://s3.example/invoice/1_x.pdf?sig=1", u)
}
