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

// CharacterService encapsulates character operations. Deleting a character
// also deletes its abilities, running their delete hooks one by one.
type CharacterService struct {
	store     store.CatalogueStore
	files     *attachmentHelper
	binding   *lifecycle.Binding[models.Character]
	abilities *lifecycle.Binding[models.Ability]
}

func NewCharacterService(st store.CatalogueStore, files *attachmentHelper, binding *lifecycle.Binding[models.Character], abilities *lifecycle.Binding[models.Ability]) *CharacterService {
	return &CharacterService{store: st, files: files, binding: binding, abilities: abilities}
}

func (s *CharacterService) List(ctx context.Context, filter store.CharacterFilter) ([]api.CharacterResponse, error) {
	characters, err := s.store.ListCharacters(ctx, filter)
	if err != nil {
		return nil, storeFailure(err)
	}
	out := make([]api.CharacterResponse, 0, len(characters))
	for _, c := range characters {
		out = append(out, api.CharacterResponse{Character: c, ImageURL: s.files.url(c.Image)})
	}
	return out, nil
}

// Get returns a character with its abilities, stats, and equipped lightcone.
func (s *CharacterService) Get(ctx context.Context, id int64) (api.CharacterResponse, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return api.CharacterResponse{}, err
	}
	abilities, err := s.store.ListAbilities(ctx, id)
	if err != nil {
		return api.CharacterResponse{}, storeFailure(err)
	}
	stats, err := s.store.ListStats(ctx, string(models.StatOwnerCharacter), id)
	if err != nil {
		return api.CharacterResponse{}, storeFailure(err)
	}
	c.Stats = stats

	resp := api.CharacterResponse{Character: *c, ImageURL: s.files.url(c.Image)}
	resp.Abilities = make([]api.AbilityResponse, 0, len(abilities))
	for _, a := range abilities {
		resp.Abilities = append(resp.Abilities, api.AbilityResponse{Ability: a, IconURL: s.files.url(a.Icon)})
	}
	if c.LightconeID != nil {
		l, err := s.store.GetLightcone(ctx, *c.LightconeID)
		if err != nil {
			return api.CharacterResponse{}, storeFailure(err)
		}
		if l != nil {
			resp.Lightcone = &api.LightconeResponse{Lightcone: *l, ImageURL: s.files.url(l.Image)}
		}
	}
	return resp, nil
}

// Create inserts a character. The store assigns its default stats.
func (s *CharacterService) Create(ctx context.Context, req api.CharacterCreateRequest) (api.CharacterResponse, error) {
	c := &models.Character{Rarity: req.Rarity}
	var err error
	if c.Name, err = normalizeName(req.Name); err != nil {
		return api.CharacterResponse{}, err
	}
	if c.Element, err = normalizeElement(req.Element); err != nil {
		return api.CharacterResponse{}, err
	}
	if c.Path, err = normalizePath(req.Path); err != nil {
		return api.CharacterResponse{}, err
	}
	if err := validateCharacterRarity(c.Rarity); err != nil {
		return api.CharacterResponse{}, err
	}
	if err := s.checkLightcone(ctx, req.LightconeID); err != nil {
		return api.CharacterResponse{}, err
	}
	c.LightconeID = req.LightconeID
	if c.Image, err = s.files.checkKey(ctx, blobstore.PrefixCharacters, "image", req.Image); err != nil {
		return api.CharacterResponse{}, err
	}

	if err := saveWithHooks(ctx, s.binding, c, s.store.CreateCharacter); err != nil {
		return api.CharacterResponse{}, err
	}
	return api.CharacterResponse{Character: *c, ImageURL: s.files.url(c.Image)}, nil
}

func (s *CharacterService) Update(ctx context.Context, id int64, req api.CharacterUpdateRequest) (api.CharacterResponse, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return api.CharacterResponse{}, err
	}
	if req.Name != nil {
		if c.Name, err = normalizeName(*req.Name); err != nil {
			return api.CharacterResponse{}, err
		}
	}
	if req.Element != nil {
		if c.Element, err = normalizeElement(*req.Element); err != nil {
			return api.CharacterResponse{}, err
		}
	}
	if req.Path != nil {
		if c.Path, err = normalizePath(*req.Path); err != nil {
			return api.CharacterResponse{}, err
		}
	}
	if req.Rarity != nil {
		if err := validateCharacterRarity(*req.Rarity); err != nil {
			return api.CharacterResponse{}, err
		}
		c.Rarity = *req.Rarity
	}
	switch {
	case req.ClearLightcone:
		c.LightconeID = nil
	case req.LightconeID != nil:
		if err := s.checkLightcone(ctx, req.LightconeID); err != nil {
			return api.CharacterResponse{}, err
		}
		c.LightconeID = req.LightconeID
	}
	if req.Image != nil {
		if c.Image, err = s.files.checkKey(ctx, blobstore.PrefixCharacters, "image", *req.Image); err != nil {
			return api.CharacterResponse{}, err
		}
	}
	c.UpdatedAt = time.Now().UTC()

	if err := saveWithHooks(ctx, s.binding, c, s.store.UpdateCharacter); err != nil {
		return api.CharacterResponse{}, err
	}
	return api.CharacterResponse{Character: *c, ImageURL: s.files.url(c.Image)}, nil
}

func (s *CharacterService) SetImage(ctx context.Context, id int64, up upload) (api.CharacterResponse, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return api.CharacterResponse{}, err
	}
	c.UpdatedAt = time.Now().UTC()
	err = attachUpload(ctx, s.files, s.binding, blobstore.PrefixCharacters, "image", up, c,
		func(c *models.Character, key string) { c.Image = key },
		s.store.UpdateCharacter)
	if err != nil {
		return api.CharacterResponse{}, err
	}
	return api.CharacterResponse{Character: *c, ImageURL: s.files.url(c.Image)}, nil
}

// Delete removes a character, its abilities, stats, and team memberships.
// Each ability row is removed on its own so its icon is released before the
// character row goes.
func (s *CharacterService) Delete(ctx context.Context, id int64) error {
	c, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	abilities, err := s.store.ListAbilities(ctx, id)
	if err != nil {
		return storeFailure(err)
	}
	for i := range abilities {
		if err := deleteAbility(ctx, s.store, s.abilities, &abilities[i]); err != nil {
			return err
		}
	}

	s.binding.BeforeDelete(ctx, c)
	deleted, err := s.store.DeleteCharacter(ctx, id)
	if err != nil {
		return storeFailure(err)
	}
	if !deleted {
		return characterNotFound(id)
	}
	return nil
}

func (s *CharacterService) checkLightcone(ctx context.Context, id *int64) error {
	if id == nil {
		return nil
	}
	exists, err := s.store.LightconeExists(ctx, *id)
	if err != nil {
		return storeFailure(err)
	}
	if !exists {
		return badRequestCode(fmt.Errorf("lightcone %d does not exist", *id), ErrCodeInvalidArgument)
	}
	return nil
}

func (s *CharacterService) load(ctx context.Context, id int64) (*models.Character, error) {
	c, err := s.store.GetCharacter(ctx, id)
	if err != nil {
		return nil, storeFailure(err)
	}
	if c == nil {
		return nil, characterNotFound(id)
	}
	return c, nil
}

func characterNotFound(id int64) error {
	return notFoundCode(fmt.Errorf("character %d not found", id), ErrCodeCharacterNotFound)
}
