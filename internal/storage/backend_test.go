package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"backend-pedalhub/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	puts    map[string]string
	deletes []string
	err     error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(in.Body)
	if f.puts == nil {
		f.puts = map[string]string{}
	}
	f.puts[aws.ToString(in.Key)] = string(body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deletes = append(f.deletes, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestLocalBackend(t *testing.T) {
	dir := t.TempDir()
	b := NewLocal(dir)
	ctx := context.Background()

	url, err := b.Save(ctx, "../escape.jpg", "image/jpeg", strings.NewReader("img"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/escape.jpg", url)

	data, err := os.ReadFile(filepath.Join(dir, "escape.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "img", string(data))

	require.NoError(t, b.Delete(ctx, url))
	_, err = os.Stat(filepath.Join(dir, "escape.jpg"))
	assert.True(t, os.IsNotExist(err))

	// already gone
	require.NoError(t, b.Delete(ctx, url))
	assert.ErrorIs(t, b.Delete(ctx, "https://elsewhere/x.jpg"), ErrForeignURL)
}

func TestObjectStoreBackend(t *testing.T) {
	api := &fakeS3{}
	b := NewObjectStore(api, "pedal", "ap-northeast-2")
	ctx := context.Background()

	url, err := b.Save(ctx, "abc.png", "image/png", strings.NewReader("png"))
	require.NoError(t, err)
	assert.Equal(t, "https://pedal.s3.ap-northeast-2.amazonaws.com/abc.png", url)
	assert.Equal(t, "png", api.puts["abc.png"])

	require.NoError(t, b.Delete(ctx, url))
	assert.Equal(t, []string{"abc.png"}, api.deletes)
	assert.ErrorIs(t, b.Delete(ctx, "/uploads/abc.png"), ErrForeignURL)
}

func TestObjectStoreErrors(t *testing.T) {
	api := &fakeS3{err: errors.New("denied")}
	b := NewObjectStore(api, "pedal", "us-east-1")

	_, err := b.Save(context.Background(), "a", "", strings.NewReader("x"))
	assert.Error(t, err)
	assert.Error(t, b.Delete(context.Background(), "https://pedal.s3.us-east-1.amazonaws.com/a"))
}

func TestZeroBackend(t *testing.T) {
	var b Backend
	_, err := b.Save(context.Background(), "a", "", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUnknownKind)
	assert.ErrorIs(t, b.Delete(context.Background(), "a"), ErrUnknownKind)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	b, err := Open(ctx, config.Config{StorageType: "local", UploadDir: filepath.Join(t.TempDir(), "up")})
	require.NoError(t, err)
	assert.Equal(t, KindLocal, b.Kind)

	_, err = Open(ctx, config.Config{StorageType: "ftp"})
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = Open(ctx, config.Config{StorageType: "s3"})
	assert.Error(t, err)

	old := loadAWSConfigFn
	defer func() { loadAWSConfigFn = old }()
	loadAWSConfigFn = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{Region: "ap-northeast-2"}, nil
	}
	b, err = Open(ctx, config.Config{StorageType: "s3", S3Bucket: "pedal", S3Region: "ap-northeast-2"})
	require.NoError(t, err)
	assert.Equal(t, KindObjectStore, b.Kind)

	loadAWSConfigFn = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no credentials")
	}
	_, err = Open(ctx, config.Config{StorageType: "s3", S3Bucket: "pedal"})
	assert.Error(t, err)
}

func TestLocalDir(t *testing.T) {
	assert.Equal(t, "/tmp/up", NewLocal("/tmp/up").LocalDir())
	assert.Empty(t, NewObjectStore(&fakeS3{}, "pedal", "us-east-1").LocalDir())
	assert.Empty(t, Backend{}.LocalDir())
}
