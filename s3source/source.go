// Package s3source provides upload content stored in an S3 bucket.
package s3source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/bitrise-io/go-bynder/upload"
	"github.com/bitrise-io/go-utils/retry"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/docker/go-units"
)

// StagePartSize is the part size of the parallel download used by Stage.
const StagePartSize = 10 * units.MiB

// ErrObjectNotFound ...
var ErrObjectNotFound = errors.New("object not found in s3 bucket")

// Params ...
type Params struct {
	Region          string
	Bucket          string
	Key             string
	AccessKeyID     string
	SecretAccessKey string
	// NumRetries is the number of extra attempts of the object requests.
	NumRetries uint
}

// ObjectAPI is the part of *s3.Client a Source uses.
type ObjectAPI interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Source reads one S3 object. It implements upload.ByteSource.
// The context given at creation is used for every request, as ByteSource methods take none.
type Source struct {
	ctx        context.Context
	client     ObjectAPI
	bucket     string
	key        string
	numRetries uint
	retryWait  time.Duration
	logger     log.Logger
}

var _ upload.ByteSource = (*Source)(nil)

// New loads the AWS configuration and creates a Source for the object in params.
func New(ctx context.Context, params Params, logger log.Logger) (*Source, error) {
	if params.Bucket == "" {
		return nil, fmt.Errorf("bucket must not be empty")
	}
	if params.Key == "" {
		return nil, fmt.Errorf("key must not be empty")
	}
	if logger == nil {
		logger = log.NewLogger()
	}

	cfg, err := loadAWSCredentials(ctx, params.Region, params.AccessKeyID, params.SecretAccessKey, logger)
	if err != nil {
		return nil, fmt.Errorf("load aws credentials: %w", err)
	}

	return NewWithClient(ctx, s3.NewFromConfig(*cfg), params, logger), nil
}

// NewWithClient creates a Source using an already configured client.
func NewWithClient(ctx context.Context, client ObjectAPI, params Params, logger log.Logger) *Source {
	if logger == nil {
		logger = log.NewLogger()
	}
	return &Source{
		ctx:        ctx,
		client:     client,
		bucket:     params.Bucket,
		key:        params.Key,
		numRetries: params.NumRetries,
		retryWait:  5 * time.Second,
		logger:     logger,
	}
}

// FileName returns the last element of the object key.
func (s *Source) FileName() string {
	return path.Base(s.key)
}

// Size returns the content length of the object.
// The error is ErrObjectNotFound if the key does not exist.
func (s *Source) Size() (int64, error) {
	var size int64
	err := retry.Times(s.numRetries).Wait(s.retryWait).TryWithAbort(func(attempt uint) (error, bool) {
		output, err := s.client.HeadObject(s.ctx, &s3.HeadObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.key),
		})
		if err != nil {
			err = mapError(err)
			if errors.Is(err, ErrObjectNotFound) {
				return err, true
			}
			s.logger.Debugf("head object %s (attempt %d): %s", s.key, attempt, err)
			return err, false
		}

		size = aws.ToInt64(output.ContentLength)
		return nil, true
	})
	if err != nil {
		return 0, err
	}
	return size, nil
}

// Open streams the object from the start.
func (s *Source) Open() (io.ReadCloser, error) {
	var body io.ReadCloser
	err := retry.Times(s.numRetries).Wait(s.retryWait).TryWithAbort(func(attempt uint) (error, bool) {
		output, err := s.client.GetObject(s.ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.key),
		})
		if err != nil {
			err = mapError(err)
			if errors.Is(err, ErrObjectNotFound) {
				return err, true
			}
			s.logger.Debugf("get object %s (attempt %d): %s", s.key, attempt, err)
			return err, false
		}

		body = output.Body
		return nil, true
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// Stage downloads the object into dir with parallel ranged requests and returns the file's path.
// Uploading the staged file reads the bucket once instead of twice.
func (s *Source) Stage(ctx context.Context, dir string) (string, error) {
	dest := filepath.Join(dir, s.FileName())
	file, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create staging file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			s.logger.Warnf("close staging file: %s", err)
		}
	}()

	downloader := manager.NewDownloader(s.client, func(d *manager.Downloader) {
		d.PartSize = StagePartSize
	})

	start := time.Now()
	written, err := downloader.Download(ctx, file, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		if removeErr := os.Remove(dest); removeErr != nil {
			s.logger.Warnf("remove partial staging file: %s", removeErr)
		}
		return "", fmt.Errorf("download object: %w", mapError(err))
	}
	s.logger.Debugf("Staged s3://%s/%s (%s) in %s", s.bucket, s.key, units.HumanSize(float64(written)), time.Since(start).Round(time.Millisecond))

	return dest, nil
}

func mapError(err error) error {
	var apiError smithy.APIError
	if errors.As(err, &apiError) {
		switch apiError.(type) {
		case *types.NotFound, *types.NoSuchKey:
			return fmt.Errorf("%w: %s", ErrObjectNotFound, err)
		default:
			return fmt.Errorf("aws api error: %w", err)
		}
	}
	return fmt.Errorf("generic aws error: %w", err)
}

func loadAWSCredentials(
	ctx context.Context,
	region string,
	accessKeyID string,
	secretKey string,
	logger log.Logger,
) (*aws.Config, error) {
	if region == "" {
		return nil, fmt.Errorf("region must not be empty")
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}

	if accessKeyID != "" && secretKey != "" {
		logger.Debugf("aws credentials provided, using them...")
		opts = append(opts,
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, secretKey, "")))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config, %v", err)
	}

	return &cfg, nil
}
