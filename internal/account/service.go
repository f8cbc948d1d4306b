package account

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Service wraps a repository with the operations the game needs.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

// CreateAccount creates an account owning the given characters and demons.
func (s *Service) CreateAccount(ctx context.Context, characterIDs, demonIDs []string) (string, error) {
	accountID, err := s.repo.CreateAccount(ctx)
	if err != nil {
		return "", err
	}
	for _, id := range characterIDs {
		if _, err := s.repo.AddCharacter(ctx, accountID, id); err != nil {
			return "", fmt.Errorf("failed to grant character %s: %w", id, err)
		}
	}
	for _, id := range demonIDs {
		if _, err := s.repo.AddDemon(ctx, accountID, id); err != nil {
			return "", fmt.Errorf("failed to grant demon %s: %w", id, err)
		}
	}

	s.logger.Info("account created",
		zap.String("account_id", accountID),
		zap.Strings("characters", characterIDs),
		zap.Strings("demons", demonIDs),
	)
	return accountID, nil
}

func (s *Service) Exists(ctx context.Context, accountID string) (bool, error) {
	return s.repo.Exists(ctx, accountID)
}

// OwnsCharacters reports whether the account owns every listed character.
func (s *Service) OwnsCharacters(ctx context.Context, accountID string, characterIDs []string) (bool, error) {
	for _, id := range characterIDs {
		owned, err := s.repo.HasCharacter(ctx, accountID, id)
		if err != nil {
			return false, err
		}
		if !owned {
			s.logger.Debug("character not owned",
				zap.String("account_id", accountID),
				zap.String("character", id),
			)
			return false, nil
		}
	}
	return true, nil
}

func (s *Service) HasDemon(ctx context.Context, accountID, demonID string) (bool, error) {
	return s.repo.HasDemon(ctx, accountID, demonID)
}

func (s *Service) AddCharacter(ctx context.Context, accountID, characterID string) (int, error) {
	lives, err := s.repo.AddCharacter(ctx, accountID, characterID)
	if err != nil {
		return 0, err
	}
	s.logger.Info("character granted",
		zap.String("account_id", accountID),
		zap.String("character", characterID),
		zap.Int("lives", lives),
	)
	return lives, nil
}

func (s *Service) AddDemon(ctx context.Context, accountID, demonID string) (int, error) {
	lives, err := s.repo.AddDemon(ctx, accountID, demonID)
	if err != nil {
		return 0, err
	}
	s.logger.Info("demon granted",
		zap.String("account_id", accountID),
		zap.String("demon", demonID),
		zap.Int("lives", lives),
	)
	return lives, nil
}

func (s *Service) Snapshot(ctx context.Context, accountID string) (Snapshot, error) {
	return s.repo.Snapshot(ctx, accountID)
}
