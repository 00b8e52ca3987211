package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"backend-pedalhub/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type Kind string

const (
	KindLocal       Kind = "local"
	KindObjectStore Kind = "s3"

	// LocalURLPath is where local uploads are served from.
	LocalURLPath   = "/uploads"
	localURLPrefix = LocalURLPath + "/"
)

var (
	ErrUnknownKind = errors.New("unknown storage type")
	ErrForeignURL  = errors.New("url does not belong to this storage backend")
)

// ObjectAPI is the subset of the S3 client used by the object-store variant.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Backend is either a local directory or an S3 bucket. Exactly one of the
// variant fields is populated, matching Kind.
type Backend struct {
	Kind   Kind
	local  *localStore
	object *objectStore
}

type localStore struct {
	dir string
}

type objectStore struct {
	api     ObjectAPI
	bucket  string
	baseURL string
}

func NewLocal(dir string) Backend {
	return Backend{Kind: KindLocal, local: &localStore{dir: dir}}
}

// LocalDir is the upload directory of a local backend, empty otherwise.
func (b Backend) LocalDir() string {
	if b.Kind != KindLocal || b.local == nil {
		return ""
	}
	return b.local.dir
}

func NewObjectStore(api ObjectAPI, bucket, region string) Backend {
	return Backend{Kind: KindObjectStore, object: &objectStore{
		api:     api,
		bucket:  bucket,
		baseURL: fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", bucket, region),
	}}
}

// Open selects the backend named by STORAGE_TYPE.
func Open(ctx context.Context, cfg config.Config) (Backend, error) {
	switch Kind(cfg.StorageType) {
	case KindLocal:
		if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
			return Backend{}, err
		}
		return NewLocal(cfg.UploadDir), nil
	case KindObjectStore:
		if cfg.S3Bucket == "" {
			return Backend{}, errors.New("S3_BUCKET is required for s3 storage")
		}
		awsCfg, err := loadAWSConfigFn(ctx, awsconfig.WithRegion(cfg.S3Region))
		if err != nil {
			return Backend{}, err
		}
		return NewObjectStore(s3.NewFromConfig(awsCfg), cfg.S3Bucket, cfg.S3Region), nil
	default:
		return Backend{}, fmt.Errorf("%w: %q", ErrUnknownKind, cfg.StorageType)
	}
}

var loadAWSConfigFn = awsconfig.LoadDefaultConfig

func (b Backend) Save(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	switch b.Kind {
	case KindLocal:
		return b.local.save(name, r)
	case KindObjectStore:
		return b.object.save(ctx, name, contentType, r)
	default:
		return "", ErrUnknownKind
	}
}

func (b Backend) Delete(ctx context.Context, url string) error {
	switch b.Kind {
	case KindLocal:
		return b.local.delete(url)
	case KindObjectStore:
		return b.object.delete(ctx, url)
	default:
		return ErrUnknownKind
	}
}

func (s *localStore) save(name string, r io.Reader) (string, error) {
	name = filepath.Base(name)
	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", err
	}
	return localURLPrefix + name, nil
}

func (s *localStore) delete(url string) error {
	if !strings.HasPrefix(url, localURLPrefix) {
		return ErrForeignURL
	}
	name := filepath.Base(strings.TrimPrefix(url, localURLPrefix))
	err := os.Remove(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (s *objectStore) save(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   r,
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if _, err := s.api.PutObject(ctx, in); err != nil {
		return "", err
	}
	return s.baseURL + key, nil
}

func (s *objectStore) delete(ctx context.Context, url string) error {
	if !strings.HasPrefix(url, s.baseURL) {
		return ErrForeignURL
	}
	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(strings.TrimPrefix(url, s.baseURL)),
	})
	return err
}
