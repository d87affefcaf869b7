package image

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"combatai/internal/llm"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

var ErrDownloadFailed = errors.New("image download failed")

type Options struct {
	Model     string
	Size      string
	Dir       string
	URLPrefix string
	Modifiers []string
}

// Service generates a battle illustration and stores it under Dir, where it
// is served from URLPrefix.
type Service struct {
	provider  llm.ImageProvider
	client    *resty.Client
	opts      Options
	modifiers []Modifier
}

func NewService(provider llm.ImageProvider, client *resty.Client, opts Options) (*Service, error) {
	modifiers, err := ParseModifiers(opts.Modifiers)
	if err != nil {
		return nil, err
	}
	if opts.Dir == "" || opts.URLPrefix == "" {
		return nil, errors.New("image dir and url prefix are required")
	}

	return &Service{
		provider:  provider,
		client:    client,
		opts:      opts,
		modifiers: modifiers,
	}, nil
}

func (s *Service) Prompt(opponent1, opponent2 string) string {
	return fmt.Sprintf("%s and %s in a battle to the death, %s", opponent1, opponent2, joinModifiers(s.modifiers))
}

// Generate asks the image API for a picture of the fight, downloads it and
// returns its public path.
func (s *Service) Generate(ctx context.Context, opponent1, opponent2 string) (string, error) {
	url, err := s.provider.CreateImage(ctx, llm.ImageRequest{
		Prompt: s.Prompt(opponent1, opponent2),
		Model:  s.opts.Model,
		Size:   s.opts.Size,
	})
	if err != nil {
		return "", fmt.Errorf("generate image: %w", err)
	}

	if err := os.MkdirAll(s.opts.Dir, 0o750); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}

	name := uuid.NewString() + ".png"
	target := filepath.Join(s.opts.Dir, name)

	resp, err := s.client.R().
		SetContext(ctx).
		SetOutput(target).
		Get(url)
	if err != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}
	if resp.IsError() {
		_ = os.Remove(target)
		return "", fmt.Errorf("%w: status %d", ErrDownloadFailed, resp.StatusCode())
	}

	slog.Debug("image downloaded", "file", target, "bytes", resp.Size())
	return path.Join(s.opts.URLPrefix, name), nil
}
