package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"fim-go/internal/fim"
)

// versionMetadataKey is the object metadata entry holding the export version.
const versionMetadataKey = "version"

// S3API is the subset of the S3 client used by S3Archive.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// Uploader puts objects, splitting large ones into multipart uploads.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Options configures an S3 archive.
type S3Options struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string // for S3-compatible stores; enables path-style addressing
	AccessKeyID     string
	SecretAccessKey string
}

// S3Archive stores exports as objects under <prefix>/<agentID>/<name>.
// The version is kept in the object metadata.
type S3Archive struct {
	name     string
	bucket   string
	prefix   string
	client   S3API
	uploader Uploader
}

// NewS3Archive builds an archive from the default AWS credential chain, or
// from static credentials when both keys are set.
func NewS3Archive(ctx context.Context, name string, opts S3Options) (*S3Archive, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 archive requires s3_bucket to be set")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3ArchiveWithClient(name, opts.Bucket, opts.Prefix, client, manager.NewUploader(client)), nil
}

// NewS3ArchiveWithClient builds an archive over existing clients.
func NewS3ArchiveWithClient(name, bucket, prefix string, client S3API, uploader Uploader) *S3Archive {
	return &S3Archive{name: name, bucket: bucket, prefix: prefix, client: client, uploader: uploader}
}

func (a *S3Archive) key(agentID, name string) string {
	return path.Join(a.prefix, agentID, name)
}

func (a *S3Archive) Put(agentID, name string, r io.Reader, size int64, version int64) error {
	counter := &countingReader{r: r}
	_, err := a.uploader.Upload(context.Background(), &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(a.key(agentID, name)),
		Body:          counter,
		ContentLength: aws.Int64(size),
		Metadata:      map[string]string{versionMetadataKey: strconv.FormatInt(version, 10)},
	})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", a.key(agentID, name), err)
	}
	if counter.n != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, counter.n)
	}
	return nil
}

func (a *S3Archive) Get(agentID, name string, w io.Writer) error {
	out, err := a.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.key(agentID, name)),
	})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%q for agent %s: %w", name, agentID, ErrNotFound)
		}
		return fmt.Errorf("downloading %s: %w", a.key(agentID, name), err)
	}
	defer out.Body.Close()

	if _, err := io.Copy(w, out.Body); err != nil {
		return fmt.Errorf("reading %s: %w", a.key(agentID, name), err)
	}
	return nil
}

func (a *S3Archive) Version(agentID, name string) (int64, error) {
	out, err := a.client.HeadObject(context.Background(), &s3.HeadObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.key(agentID, name)),
	})
	if err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading metadata of %s: %w", a.key(agentID, name), err)
	}

	raw, ok := out.Metadata[versionMetadataKey]
	if !ok {
		return 0, nil
	}
	version, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing version: %w", err)
	}
	return version, nil
}

// ValidateSetup checks that the bucket exists and is reachable.
func (a *S3Archive) ValidateSetup() error {
	_, err := a.client.HeadBucket(context.Background(), &s3.HeadBucketInput{Bucket: aws.String(a.bucket)})
	if err != nil {
		return fmt.Errorf("s3 bucket %s not accessible: %w", a.bucket, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	var nsk *types.NoSuchKey
	return errors.As(err, &nf) || errors.As(err, &nsk)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

var _ fim.Archive = (*S3Archive)(nil)
