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

// Relic attachment fields accepted by SetFile.
const (
	relicFieldIcon    = "icon"
	relicFieldSetIcon = "set_icon"
)

// RelicService encapsulates relic operations.
type RelicService struct {
	store   store.CatalogueStore
	files   *attachmentHelper
	binding *lifecycle.Binding[models.Relic]
}

func NewRelicService(st store.CatalogueStore, files *attachmentHelper, binding *lifecycle.Binding[models.Relic]) *RelicService {
	return &RelicService{store: st, files: files, binding: binding}
}

func (s *RelicService) List(ctx context.Context, filter store.RelicFilter) ([]api.RelicResponse, error) {
	relics, err := s.store.ListRelics(ctx, filter)
	if err != nil {
		return nil, storeFailure(err)
	}
	out := make([]api.RelicResponse, 0, len(relics))
	for _, r := range relics {
		out = append(out, s.response(r))
	}
	return out, nil
}

func (s *RelicService) Get(ctx context.Context, id int64) (api.RelicResponse, error) {
	r, err := s.load(ctx, id)
	if err != nil {
		return api.RelicResponse{}, err
	}
	return s.response(*r), nil
}

func (s *RelicService) Create(ctx context.Context, req api.RelicCreateRequest) (api.RelicResponse, error) {
	r := &models.Relic{}
	var err error
	if r.Name, err = normalizeName(req.Name); err != nil {
		return api.RelicResponse{}, err
	}
	if r.SetName, err = normalizeText("set_name", req.SetName, models.MaxNameLength, true); err != nil {
		return api.RelicResponse{}, err
	}
	if r.Effect, err = normalizeText("effect", req.Effect, models.MaxEffectLength, false); err != nil {
		return api.RelicResponse{}, err
	}
	if r.Slot, err = normalizeSlot(req.Slot); err != nil {
		return api.RelicResponse{}, err
	}
	if r.Icon, err = s.files.checkKey(ctx, blobstore.PrefixRelicIcons, relicFieldIcon, req.Icon); err != nil {
		return api.RelicResponse{}, err
	}
	if r.SetIcon, err = s.files.checkKey(ctx, blobstore.PrefixRelicSetIcons, relicFieldSetIcon, req.SetIcon); err != nil {
		return api.RelicResponse{}, err
	}

	if err := saveWithHooks(ctx, s.binding, r, s.store.CreateRelic); err != nil {
		return api.RelicResponse{}, err
	}
	return s.response(*r), nil
}

func (s *RelicService) Update(ctx context.Context, id int64, req api.RelicUpdateRequest) (api.RelicResponse, error) {
	r, err := s.load(ctx, id)
	if err != nil {
		return api.RelicResponse{}, err
	}
	if req.Name != nil {
		if r.Name, err = normalizeName(*req.Name); err != nil {
			return api.RelicResponse{}, err
		}
	}
	if req.SetName != nil {
		if r.SetName, err = normalizeText("set_name", *req.SetName, models.MaxNameLength, true); err != nil {
			return api.RelicResponse{}, err
		}
	}
	if req.Effect != nil {
		if r.Effect, err = normalizeText("effect", *req.Effect, models.MaxEffectLength, false); err != nil {
			return api.RelicResponse{}, err
		}
	}
	if req.Slot != nil {
		if r.Slot, err = normalizeSlot(*req.Slot); err != nil {
			return api.RelicResponse{}, err
		}
	}
	if req.Icon != nil {
		if r.Icon, err = s.files.checkKey(ctx, blobstore.PrefixRelicIcons, relicFieldIcon, *req.Icon); err != nil {
			return api.RelicResponse{}, err
		}
	}
	if req.SetIcon != nil {
		if r.SetIcon, err = s.files.checkKey(ctx, blobstore.PrefixRelicSetIcons, relicFieldSetIcon, *req.SetIcon); err != nil {
			return api.RelicResponse{}, err
		}
	}
	r.UpdatedAt = time.Now().UTC()

	if err := saveWithHooks(ctx, s.binding, r, s.store.UpdateRelic); err != nil {
		return api.RelicResponse{}, err
	}
	return s.response(*r), nil
}

// SetFile uploads the icon or set icon of a relic.
func (s *RelicService) SetFile(ctx context.Context, id int64, field string, up upload) (api.RelicResponse, error) {
	var (
		set    func(*models.Relic, string)
		prefix string
	)
	switch field {
	case relicFieldIcon:
		set, prefix = func(r *models.Relic, key string) { r.Icon = key }, blobstore.PrefixRelicIcons
	case relicFieldSetIcon:
		set, prefix = func(r *models.Relic, key string) { r.SetIcon = key }, blobstore.PrefixRelicSetIcons
	default:
		return api.RelicResponse{}, badRequest(fmt.Errorf("unknown relic file field %q", field))
	}

	r, err := s.load(ctx, id)
	if err != nil {
		return api.RelicResponse{}, err
	}
	r.UpdatedAt = time.Now().UTC()
	if err := attachUpload(ctx, s.files, s.binding, prefix, field, up, r, set, s.store.UpdateRelic); err != nil {
		return api.RelicResponse{}, err
	}
	return s.response(*r), nil
}

// Delete removes a relic; team members equipping it lose it.
func (s *RelicService) Delete(ctx context.Context, id int64) error {
	r, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	s.binding.BeforeDelete(ctx, r)
	deleted, err := s.store.DeleteRelic(ctx, id)
	if err != nil {
		return storeFailure(err)
	}
	if !deleted {
		return relicNotFound(id)
	}
	return nil
}

func (s *RelicService) load(ctx context.Context, id int64) (*models.Relic, error) {
	r, err := s.store.GetRelic(ctx, id)
	if err != nil {
		return nil, storeFailure(err)
	}
	if r == nil {
		return nil, relicNotFound(id)
	}
	return r, nil
}

func (s *RelicService) response(r models.Relic) api.RelicResponse {
	return api.RelicResponse{Relic: r, IconURL: s.files.url(r.Icon), SetIconURL: s.files.url(r.SetIcon)}
}

func relicNotFound(id int64) error {
	return notFoundCode(fmt.Errorf("relic %d not found", id), ErrCodeRelicNotFound)
}
