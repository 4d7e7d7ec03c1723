// Package predictions reads the precomputed predictions document from an
// S3-compatible object store.
package predictions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/dmitrijs2005/fplassistant/internal/common"
	"github.com/dmitrijs2005/fplassistant/internal/logging"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// ObjectGetter is the part of *s3.Client the store uses.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Settings locate the document. Empty AccessKey means the AWS default
// credential chain; empty BaseEndpoint means AWS itself.
type Settings struct {
	Bucket       string
	Key          string
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
}

type Store struct {
	settings Settings
	log      logging.Logger

	mu     sync.Mutex
	client ObjectGetter
	creds  aws.CredentialsProvider
}

// NewStore returns a Store that builds its S3 client on first use.
func NewStore(settings Settings, log logging.Logger) *Store {
	return &Store{settings: settings, log: log}
}

// NewStoreWithClient returns a Store using client.
func NewStoreWithClient(client ObjectGetter, settings Settings, log logging.Logger) *Store {
	return &Store{settings: settings, log: log, client: client}
}

// getClient builds the S3 client on first use. The returned provider is
// nil for an injected client.
func (s *Store) getClient(ctx context.Context) (ObjectGetter, aws.CredentialsProvider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, s.creds, nil
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(s.settings.Region)}
	if s.settings.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.settings.AccessKey, s.settings.SecretKey, "")))
	}

	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, nil, err
	}

	s.creds = cfg.Credentials
	s.client = newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.settings.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.settings.BaseEndpoint)
			o.UsePathStyle = true
		}
	})
	return s.client, s.creds, nil
}

// Latest returns the predictions document verbatim.
//
// Errors: common.ErrNotConfigured without bucket or key, common.ErrNotFound
// when the object is missing, common.ErrConfig for credential problems,
// common.ErrParse when the body is not JSON, otherwise
// common.ErrUpstreamUnavailable.
func (s *Store) Latest(ctx context.Context) (json.RawMessage, error) {
	if s.settings.Bucket == "" || s.settings.Key == "" {
		return nil, fmt.Errorf("%w: predictions bucket or key is empty", common.ErrNotConfigured)
	}

	client, creds, err := s.getClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrConfig, err)
	}
	// Signing reports a credential failure as a plain error.
	if creds != nil {
		if _, err := creds.Retrieve(ctx); err != nil {
			return nil, fmt.Errorf("%w: resolve aws credentials: %v", common.ErrConfig, err)
		}
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.settings.Bucket),
		Key:    aws.String(s.settings.Key),
	})
	if err != nil {
		return nil, classify(err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read predictions: %v", common.ErrUpstreamUnavailable, err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: predictions object s3://%s/%s is not valid JSON",
			common.ErrParse, s.settings.Bucket, s.settings.Key)
	}

	s.log.Debug(ctx, "predictions fetched", "bucket", s.settings.Bucket, "key", s.settings.Key, "bytes", len(body))
	return json.RawMessage(body), nil
}

func classify(err error) error {
	var noKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noKey) || errors.As(err, &notFound) {
		return fmt.Errorf("%w: %v", common.ErrNotFound, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			return fmt.Errorf("%w: %v", common.ErrNotFound, err)
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken", "InvalidToken":
			return fmt.Errorf("%w: %v", common.ErrConfig, err)
		}
	}

	return fmt.Errorf("%w: %v", common.ErrUpstreamUnavailable, err)
}
