package transfer

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dmitrijs2005/chatmedia/internal/common"
	"github.com/dmitrijs2005/chatmedia/internal/logging"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// S3Config carries the object-storage connection settings.
type S3Config struct {
	Region       string
	BaseEndpoint string
	RootUser     string // MINIO_ROOT_USER
	RootPassword string // MINIO_ROOT_PASSWORD
}

// S3Service downloads media stored in an S3-compatible repository. It accepts
// URLs of the form s3://bucket/key and shares the .part publishing discipline
// of the HTTP backend.
type S3Service struct {
	cfg S3Config
	log logging.Logger

	mu     sync.Mutex
	sink   func(Event)
	active map[string]struct{}
	client *s3.Client
}

func NewS3Service(cfg S3Config, log logging.Logger) *S3Service {
	return &S3Service{
		cfg:    cfg,
		log:    log,
		active: make(map[string]struct{}),
	}
}

func (s *S3Service) Subscribe(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = fn
}

func (s *S3Service) Existing(outputPath string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[outputPath]
	return ok
}

func (s *S3Service) Start(ctx context.Context, url, outputPath string) error {
	s.mu.Lock()
	if s.sink == nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: no completion sink subscribed", common.ErrTransferFailure)
	}
	if _, ok := s.active[outputPath]; ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: transfer already in flight for %s", common.ErrTransferFailure, outputPath)
	}
	s.active[outputPath] = struct{}{}
	s.mu.Unlock()

	go s.run(ctx, url, outputPath)
	return nil
}

func (s *S3Service) run(ctx context.Context, url, outputPath string) {
	err := s.download(ctx, url, outputPath)
	if err != nil {
		s.log.Warn(ctx, "object download failed", "url", url, "error", err)
	}

	s.mu.Lock()
	delete(s.active, outputPath)
	sink := s.sink
	s.mu.Unlock()

	sink(Event{URL: url, OutputPath: outputPath, Err: err})
}

func (s *S3Service) download(ctx context.Context, url, outputPath string) error {
	bucket, key, err := splitObjectURL(url)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrTransferFailure, err)
	}

	client, err := s.getClient(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrTransferFailure, err)
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return fmt.Errorf("%w: get s3://%s/%s: %w", common.ErrTransferFailure, bucket, key, err)
	}
	defer out.Body.Close()

	if err := writePart(outputPath, out.Body); err != nil {
		return fmt.Errorf("%w: %w", common.ErrTransferFailure, err)
	}
	return nil
}

func (s *S3Service) getClient(ctx context.Context) (*s3.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}

	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.cfg.RootUser,
			s.cfg.RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	s.client = newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.cfg.BaseEndpoint)
		o.UsePathStyle = true
	})
	return s.client, nil
}

func splitObjectURL(url string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(url, "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an object url: %s", url)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("malformed object url: %s", url)
	}
	return bucket, key, nil
}
