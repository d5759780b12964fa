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

// LightconeService encapsulates lightcone operations.
type LightconeService struct {
	store   store.CatalogueStore
	files   *attachmentHelper
	binding *lifecycle.Binding[models.Lightcone]
}

func NewLightconeService(st store.CatalogueStore, files *attachmentHelper, binding *lifecycle.Binding[models.Lightcone]) *LightconeService {
	return &LightconeService{store: st, files: files, binding: binding}
}

func (s *LightconeService) List(ctx context.Context, filter store.LightconeFilter) ([]api.LightconeResponse, error) {
	lightcones, err := s.store.ListLightcones(ctx, filter)
	if err != nil {
		return nil, storeFailure(err)
	}
	out := make([]api.LightconeResponse, 0, len(lightcones))
	for _, l := range lightcones {
		out = append(out, s.response(l))
	}
	return out, nil
}

func (s *LightconeService) Get(ctx context.Context, id int64) (api.LightconeResponse, error) {
	l, err := s.load(ctx, id)
	if err != nil {
		return api.LightconeResponse{}, err
	}
	stats, err := s.store.ListStats(ctx, string(models.StatOwnerLightcone), id)
	if err != nil {
		return api.LightconeResponse{}, storeFailure(err)
	}
	l.Stats = stats
	return s.response(*l), nil
}

func (s *LightconeService) Create(ctx context.Context, req api.LightconeCreateRequest) (api.LightconeResponse, error) {
	l := &models.Lightcone{Rarity: req.Rarity}
	var err error
	if l.Name, err = normalizeName(req.Name); err != nil {
		return api.LightconeResponse{}, err
	}
	if l.Path, err = normalizePath(req.Path); err != nil {
		return api.LightconeResponse{}, err
	}
	if err := validateLightconeRarity(l.Rarity); err != nil {
		return api.LightconeResponse{}, err
	}
	if l.Ability, err = normalizeText("ability", req.Ability, models.MaxEffectLength, false); err != nil {
		return api.LightconeResponse{}, err
	}
	if l.Image, err = s.files.checkKey(ctx, blobstore.PrefixLightcones, "image", req.Image); err != nil {
		return api.LightconeResponse{}, err
	}

	if err := saveWithHooks(ctx, s.binding, l, s.store.CreateLightcone); err != nil {
		return api.LightconeResponse{}, err
	}
	return s.response(*l), nil
}

func (s *LightconeService) Update(ctx context.Context, id int64, req api.LightconeUpdateRequest) (api.LightconeResponse, error) {
	l, err := s.load(ctx, id)
	if err != nil {
		return api.LightconeResponse{}, err
	}
	if req.Name != nil {
		if l.Name, err = normalizeName(*req.Name); err != nil {
			return api.LightconeResponse{}, err
		}
	}
	if req.Path != nil {
		if l.Path, err = normalizePath(*req.Path); err != nil {
			return api.LightconeResponse{}, err
		}
	}
	if req.Rarity != nil {
		if err := validateLightconeRarity(*req.Rarity); err != nil {
			return api.LightconeResponse{}, err
		}
		l.Rarity = *req.Rarity
	}
	if req.Ability != nil {
		if l.Ability, err = normalizeText("ability", *req.Ability, models.MaxEffectLength, false); err != nil {
			return api.LightconeResponse{}, err
		}
	}
	if req.Image != nil {
		if l.Image, err = s.files.checkKey(ctx, blobstore.PrefixLightcones, "image", *req.Image); err != nil {
			return api.LightconeResponse{}, err
		}
	}
	l.UpdatedAt = time.Now().UTC()

	if err := saveWithHooks(ctx, s.binding, l, s.store.UpdateLightcone); err != nil {
		return api.LightconeResponse{}, err
	}
	return s.response(*l), nil
}

func (s *LightconeService) SetImage(ctx context.Context, id int64, up upload) (api.LightconeResponse, error) {
	l, err := s.load(ctx, id)
	if err != nil {
		return api.LightconeResponse{}, err
	}
	l.UpdatedAt = time.Now().UTC()
	err = attachUpload(ctx, s.files, s.binding, blobstore.PrefixLightcones, "image", up, l,
		func(l *models.Lightcone, key string) { l.Image = key },
		s.store.UpdateLightcone)
	if err != nil {
		return api.LightconeResponse{}, err
	}
	return s.response(*l), nil
}

// Delete removes a lightcone. Characters and team members equipping it keep
// their rows with the reference cleared.
func (s *LightconeService) Delete(ctx context.Context, id int64) error {
	l, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	s.binding.BeforeDelete(ctx, l)
	deleted, err := s.store.DeleteLightcone(ctx, id)
	if err != nil {
		return storeFailure(err)
	}
	if !deleted {
		return lightconeNotFound(id)
	}
	return nil
}

func (s *LightconeService) load(ctx context.Context, id int64) (*models.Lightcone, error) {
	l, err := s.store.GetLightcone(ctx, id)
	if err != nil {
		return nil, storeFailure(err)
	}
	if l == nil {
		return nil, lightconeNotFound(id)
	}
	return l, nil
}

func (s *LightconeService) response(l models.Lightcone) api.LightconeResponse {
	return api.LightconeResponse{Lightcone: l, ImageURL: s.files.url(l.Image)}
}

func lightconeNotFound(id int64) error {
	return notFoundCode(fmt.Errorf("lightcone %d not found", id), ErrCodeLightconeNotFound)
}
