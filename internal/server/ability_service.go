package server

import (
	"context"
	"fmt"
	"time"

	"silverrail/internal/api"
	"silverrail/internal/blobstore"
	"silverrail/internal/lifecycle"
	"silverrail/internal/models"
	"silverrail/internal/store"
)

// AbilityService encapsulates ability operations.
type AbilityService struct {
	store   store.CatalogueStore
	files   *attachmentHelper
	binding *lifecycle.Binding[models.Ability]
}

func NewAbilityService(st store.CatalogueStore, files *attachmentHelper, binding *lifecycle.Binding[models.Ability]) *AbilityService {
	return &AbilityService{store: st, files: files, binding: binding}
}

// List returns abilities of one character, or every ability when
// characterID is 0.
func (s *AbilityService) List(ctx context.Context, characterID int64) ([]api.AbilityResponse, error) {
	if characterID > 0 {
		exists, err := s.store.CharacterExists(ctx, characterID)
		if err != nil {
			return nil, storeFailure(err)
		}
		if !exists {
			return nil, characterNotFound(characterID)
		}
	}
	abilities, err := s.store.ListAbilities(ctx, characterID)
	if err != nil {
		return nil, storeFailure(err)
	}
	return s.responses(abilities), nil
}

func (s *AbilityService) Get(ctx context.Context, id int64) (api.AbilityResponse, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return api.AbilityResponse{}, err
	}
	return s.response(*a), nil
}

func (s *AbilityService) Create(ctx context.Context, req api.AbilityCreateRequest) (api.AbilityResponse, error) {
	if req.CharacterID <= 0 {
		return api.AbilityResponse{}, badRequestCode(fmt.Errorf("character_id is required"), ErrCodeMissingRequired)
	}
	exists, err := s.store.CharacterExists(ctx, req.CharacterID)
	if err != nil {
		return api.AbilityResponse{}, storeFailure(err)
	}
	if !exists {
		return api.AbilityResponse{}, badRequestCode(fmt.Errorf("character %d does not exist", req.CharacterID), ErrCodeInvalidAbility)
	}

	a := &models.Ability{
		CharacterID:        req.CharacterID,
		EnergyCost:         req.EnergyCost,
		SkillPointCost:     req.SkillPointCost,
		EnergyRegeneration: req.EnergyRegeneration,
		BreakEffect:        req.BreakEffect,
	}
	if a.Name, err = normalizeName(req.Name); err != nil {
		return api.AbilityResponse{}, err
	}
	if a.Type, err = normalizeAbilityType(req.Type); err != nil {
		return api.AbilityResponse{}, err
	}
	if a.Targeting, err = normalizeTargeting(req.Targeting); err != nil {
		return api.AbilityResponse{}, err
	}
	if err := validateAbilityCosts(a); err != nil {
		return api.AbilityResponse{}, err
	}
	if a.Icon, err = s.files.checkKey(ctx, blobstore.PrefixAbilities, "icon", req.Icon); err != nil {
		return api.AbilityResponse{}, err
	}

	if err := saveWithHooks(ctx, s.binding, a, s.store.CreateAbility); err != nil {
		return api.AbilityResponse{}, err
	}
	return s.response(*a), nil
}

func (s *AbilityService) Update(ctx context.Context, id int64, req api.AbilityUpdateRequest) (api.AbilityResponse, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return api.AbilityResponse{}, err
	}
	if req.Name != nil {
		if a.Name, err = normalizeName(*req.Name); err != nil {
			return api.AbilityResponse{}, err
		}
	}
	if req.Type != nil {
		if a.Type, err = normalizeAbilityType(*req.Type); err != nil {
			return api.AbilityResponse{}, err
		}
	}
	if req.Targeting != nil {
		if a.Targeting, err = normalizeTargeting(*req.Targeting); err != nil {
			return api.AbilityResponse{}, err
		}
	}
	if req.EnergyCost != nil {
		a.EnergyCost = req.EnergyCost
	}
	if req.SkillPointCost != nil {
		a.SkillPointCost = req.SkillPointCost
	}
	if req.EnergyRegeneration != nil {
		a.EnergyRegeneration = req.EnergyRegeneration
	}
	if req.BreakEffect != nil {
		a.BreakEffect = req.BreakEffect
	}
	if err := validateAbilityCosts(a); err != nil {
		return api.AbilityResponse{}, err
	}
	if req.Icon != nil {
		if a.Icon, err = s.files.checkKey(ctx, blobstore.PrefixAbilities, "icon", *req.Icon); err != nil {
			return api.AbilityResponse{}, err
		}
	}
	a.UpdatedAt = time.Now().UTC()

	if err := saveWithHooks(ctx, s.binding, a, s.store.UpdateAbility); err != nil {
		return api.AbilityResponse{}, err
	}
	return s.response(*a), nil
}

func (s *AbilityService) SetIcon(ctx context.Context, id int64, up upload) (api.AbilityResponse, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return api.AbilityResponse{}, err
	}
	a.UpdatedAt = time.Now().UTC()
	err = attachUpload(ctx, s.files, s.binding, blobstore.PrefixAbilities, "icon", up, a,
		func(a *models.Ability, key string) { a.Icon = key },
		s.store.UpdateAbility)
	if err != nil {
		return api.AbilityResponse{}, err
	}
	return s.response(*a), nil
}

func (s *AbilityService) Delete(ctx context.Context, id int64) error {
	a, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	return deleteAbility(ctx, s.store, s.binding, a)
}

// deleteAbility runs the delete hook and removes one ability row.
func deleteAbility(ctx context.Context, st store.CatalogueStore, binding *lifecycle.Binding[models.Ability], a *models.Ability) error {
	binding.BeforeDelete(ctx, a)
	deleted, err := st.DeleteAbility(ctx, a.ID)
	if err != nil {
		return storeFailure(err)
	}
	if !deleted {
		return abilityNotFound(a.ID)
	}
	return nil
}

func (s *AbilityService) load(ctx context.Context, id int64) (*models.Ability, error) {
	a, err := s.store.GetAbility(ctx, id)
	if err != nil {
		return nil, storeFailure(err)
	}
	if a == nil {
		return nil, abilityNotFound(id)
	}
	return a, nil
}

func (s *AbilityService) response(a models.Ability) api.AbilityResponse {
	return api.AbilityResponse{Ability: a, IconURL: s.files.url(a.Icon)}
}

func (s *AbilityService) responses(abilities []models.Ability) []api.AbilityResponse {
	out := make([]api.AbilityResponse, 0, len(abilities))
	for _, a := range abilities {
		out = append(out, s.response(a))
	}
	return out
}

func validateAbilityCosts(a *models.Ability) error {
	for _, c := range []struct {
		field string
		value *int
	}{
		{"energy_cost", a.EnergyCost},
		{"skill_point_cost", a.SkillPointCost},
		{"energy_regeneration", a.EnergyRegeneration},
		{"break_effect", a.BreakEffect},
	} {
		if err := validateCost(c.field, c.value); err != nil {
			return err
		}
	}
	return nil
}

func abilityNotFound(id int64) error {
	return notFoundCode(fmt.Errorf("ability %d not found", id), ErrCodeAbilityNotFound)
}
