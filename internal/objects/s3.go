package objects

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"ecorpus-go/internal/config"
	"ecorpus-go/internal/vfs"
)

// S3Client is the subset of the S3 API used by S3Store.
type S3Client interface {
	manager.UploadAPIClient
	s3.ListObjectsV2APIClient
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store keeps objects in a bucket under <prefix>/objects/<hash>.
// Uploads are staged in a local directory so the hash is known before the
// object key is written.
type S3Store struct {
	client     S3Client
	uploader   *manager.Uploader
	bucket     string
	prefix     string
	stagingDir string
	logger     vfs.Logger
}

// NewS3Store wraps an S3 client.
func NewS3Store(client S3Client, bucket, prefix, stagingDir string, logger vfs.Logger) (*S3Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 object store requires a bucket")
	}
	if stagingDir == "" {
		stagingDir = os.TempDir()
	}
	if err := os.MkdirAll(stagingDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	return &S3Store{
		client:     client,
		uploader:   manager.NewUploader(client),
		bucket:     bucket,
		prefix:     strings.Trim(prefix, "/"),
		stagingDir: stagingDir,
		logger:     logger,
	}, nil
}

// NewS3StoreFromConfig builds the AWS client from cfg. Static credentials are
// used when both keys are set, otherwise the default credential chain applies.
func NewS3StoreFromConfig(ctx context.Context, cfg config.ObjectsConfig, logger vfs.Logger) (*S3Store, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.S3Region))
	}
	if cfg.S3AccessKey != "" && cfg.S3SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3Store(client, cfg.S3Bucket, cfg.S3Prefix, cfg.S3StagingDir, logger)
}

func (s *S3Store) key(hash string) string {
	return path.Join(s.prefix, "objects", hash)
}

// Put stages r locally while hashing it, then uploads the file unless the
// bucket already holds that hash.
func (s *S3Store) Put(ctx context.Context, r io.Reader) (vfs.Object, error) {
	f, err := os.CreateTemp(s.stagingDir, "upload-"+uploadName()+"-*")
	if err != nil {
		return vfs.Object{}, fmt.Errorf("failed to create upload file: %w", err)
	}
	tmpPath := f.Name()
	defer func() {
		f.Close()
		if err := os.Remove(tmpPath); err != nil {
			s.logger.Warn("failed to remove upload file", "path", tmpPath, "error", err)
		}
	}()

	h := newHash()
	cr := newCtxReader(ctx, r)
	defer cr.Close()
	size, err := io.Copy(io.MultiWriter(f, h), cr)
	if err != nil {
		return vfs.Object{}, fmt.Errorf("failed to write upload: %w", err)
	}
	obj := vfs.Object{Hash: encodeHash(h.Sum(nil)), Size: size}

	exists, err := s.Exists(ctx, obj.Hash)
	if err != nil {
		return vfs.Object{}, err
	}
	if exists {
		return obj, nil
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return vfs.Object{}, fmt.Errorf("failed to rewind upload: %w", err)
	}
	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(obj.Hash)),
		Body:          f,
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return vfs.Object{}, fmt.Errorf("failed to upload object %s: %w", obj.Hash, err)
	}
	return obj, nil
}

// Open streams the object body. The caller must close it.
func (s *S3Store) Open(ctx context.Context, hash string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(hash)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, vfs.ErrNotFound.New("object %s", hash)
		}
		return nil, fmt.Errorf("failed to get object %s: %w", hash, err)
	}
	return out.Body, nil
}

func (s *S3Store) Exists(ctx context.Context, hash string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(hash)),
	})
	if err == nil {
		return true, nil
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	return false, fmt.Errorf("failed to head object %s: %w", hash, err)
}

func (s *S3Store) Remove(ctx context.Context, hash string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(hash)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", hash, err)
	}
	return nil
}

// List pages through every key under <prefix>/objects/.
func (s *S3Store) List(ctx context.Context) ([]string, error) {
	dir := s.key("") + "/"
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(dir),
	})

	var hashes []string
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), dir)
			if validHash(name) {
				hashes = append(hashes, name)
			}
		}
	}
	return hashes, nil
}

// ValidateSetup checks the local staging directory. Bucket access is only
// verified by the first request.
func (s *S3Store) ValidateSetup() error {
	info, err := os.Stat(s.stagingDir)
	if err != nil {
		return fmt.Errorf("staging directory not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("staging path is not a directory: %s", s.stagingDir)
	}
	return nil
}

var _ vfs.ObjectStore = (*S3Store)(nil)
