package upload

import (
	"bytes"
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Options selects the storage backend. S3 is used when Bucket is set,
// local disk otherwise.
type Options struct {
	LocalDir     string
	LocalBaseURL string
	S3           S3Config
}

// Service stores generated files through the configured provider
type Service struct {
	provider Provider
}

func NewService(provider Provider) *Service {
	return &Service{provider: provider}
}

// NewServiceFromOptions builds the provider chosen by opts.
func NewServiceFromOptions(ctx context.Context, opts Options) (*Service, error) {
	var (
		provider Provider
		err      error
	)
	if opts.S3.Bucket != "" {
		provider, err = NewS3Provider(ctx, opts.S3)
	} else {
		provider, err = NewLocalProvider(opts.LocalDir, opts.LocalBaseURL)
	}
	if err != nil {
		return nil, err
	}
	log.Info().Str("provider", provider.Name()).Msg("🗄️ File storage ready")
	return NewService(provider), nil
}

// Save stores data under key.
func (s *Service) Save(ctx context.Context, key string, data []byte, contentType string) (*Object, error) {
	if s == nil || s.provider == nil {
		return nil, fmt.Errorf("upload provider not configured")
	}
	obj, err := s.provider.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("provider", s.provider.Name()).
		Str("key", obj.Key).
		Int64("size", obj.Size).
		Msg("📁 File stored")
	return obj, nil
}

func (s *Service) Delete(ctx context.Context, key string) error {
	if s == nil || s.provider == nil {
		return fmt.Errorf("upload provider not configured")
	}
	return s.provider.Delete(ctx, key)
}

func (s *Service) ProviderName() string {
	if s == nil || s.provider == nil {
		return ""
	}
	return s.provider.Name()
}
