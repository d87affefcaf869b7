package store

import (
	"context"
	"fmt"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Load returns the owner's list ready for new input, repairing it first if
// it is missing or invalid.
func (s *Service) Load(ctx context.Context, owner string) ([]Fight, error) {
	return s.update(ctx, owner, "load", func(battles []Fight) ([]Fight, error) {
		return Hydrate(battles), nil
	})
}

func (s *Service) SetBattle(ctx context.Context, owner, id string, patch Patch) ([]Fight, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	return s.update(ctx, owner, "set", func(battles []Fight) ([]Fight, error) {
		return SetBattle(battles, id, patch), nil
	})
}

func (s *Service) PushEmpty(ctx context.Context, owner string) ([]Fight, error) {
	return s.update(ctx, owner, "push", func(battles []Fight) ([]Fight, error) {
		return PushEmpty(battles), nil
	})
}

func (s *Service) Clean(ctx context.Context, owner string) ([]Fight, error) {
	return s.update(ctx, owner, "clean", func(battles []Fight) ([]Fight, error) {
		return Clean(battles), nil
	})
}

func (s *Service) update(ctx context.Context, owner, op string, fn UpdateFunc) ([]Fight, error) {
	battles, err := s.repo.Update(ctx, owner, fn)
	if err != nil {
		return nil, fmt.Errorf("%s battles: %w", op, err)
	}
	if battles == nil {
		battles = []Fight{}
	}
	return battles, nil
}
