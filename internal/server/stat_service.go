package server

import (
	"context"
	"fmt"
	"math"
	"strings"

	"silverrail/internal/models"
	"silverrail/internal/store"
)

// StatService encapsulates stat reads and edits of characters and
// lightcones.
type StatService struct {
	store store.CatalogueStore
}

func NewStatService(st store.CatalogueStore) *StatService {
	return &StatService{store: st}
}

func (s *StatService) List(ctx context.Context, owner models.StatOwner, ownerID int64) ([]models.Stat, error) {
	if err := s.checkOwner(ctx, owner, ownerID); err != nil {
		return nil, err
	}
	stats, err := s.store.ListStats(ctx, string(owner), ownerID)
	if err != nil {
		return nil, storeFailure(err)
	}
	return stats, nil
}

// Update sets the value of one stat row.
func (s *StatService) Update(ctx context.Context, id int64, value float64) (*models.Stat, error) {
	if err := validateStatValue(value); err != nil {
		return nil, err
	}
	updated, err := s.store.UpdateStatValue(ctx, id, value)
	if err != nil {
		return nil, storeFailure(err)
	}
	if !updated {
		return nil, statNotFound(id)
	}
	st, err := s.store.GetStat(ctx, id)
	if err != nil {
		return nil, storeFailure(err)
	}
	if st == nil {
		return nil, statNotFound(id)
	}
	return st, nil
}

// Set creates or overwrites the stat of the given type on an owner.
func (s *StatService) Set(ctx context.Context, owner models.StatOwner, ownerID int64, statType string, value float64) (*models.Stat, error) {
	statType = strings.ToLower(strings.TrimSpace(statType))
	category, ok := models.StatCategoryOf(statType)
	if !ok {
		return nil, badRequestCode(fmt.Errorf("unknown stat type %q", statType), ErrCodeInvalidStat)
	}
	if err := validateStatValue(value); err != nil {
		return nil, err
	}
	if err := s.checkOwner(ctx, owner, ownerID); err != nil {
		return nil, err
	}

	st := &models.Stat{
		OwnerType: string(owner),
		OwnerID:   ownerID,
		Category:  string(category),
		Type:      statType,
		Value:     value,
	}
	if err := s.store.UpsertStat(ctx, st); err != nil {
		return nil, storeFailure(err)
	}
	return st, nil
}

func (s *StatService) checkOwner(ctx context.Context, owner models.StatOwner, ownerID int64) error {
	var (
		exists bool
		err    error
	)
	switch owner {
	case models.StatOwnerCharacter:
		exists, err = s.store.CharacterExists(ctx, ownerID)
		if err == nil && !exists {
			return characterNotFound(ownerID)
		}
	case models.StatOwnerLightcone:
		exists, err = s.store.LightconeExists(ctx, ownerID)
		if err == nil && !exists {
			return lightconeNotFound(ownerID)
		}
	default:
		return badRequestCode(fmt.Errorf("invalid stat owner %q", owner), ErrCodeInvalidStat)
	}
	if err != nil {
		return storeFailure(err)
	}
	return nil
}

func validateStatValue(value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return badRequestCode(fmt.Errorf("value must be a finite number"), ErrCodeInvalidStat)
	}
	return nil
}

func statNotFound(id int64) error {
	return notFoundCode(fmt.Errorf("stat %d not found", id), ErrCodeStatNotFound)
}
