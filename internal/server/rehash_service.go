package server

import (
	"context"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"silverrail/internal/api"
	"silverrail/internal/lifecycle"
	"silverrail/internal/models"
	"silverrail/internal/store"
)

// rehashWorkers bounds concurrent blob reads within one record type.
const rehashWorkers = 4

// RehashService recomputes and persists the hash columns of every stored
// record whose type supports hash comparison.
type RehashService struct {
	store    store.CatalogueStore
	bindings *recordBindings
	logger   *slog.Logger
}

func NewRehashService(st store.CatalogueStore, bindings *recordBindings, logger *slog.Logger) *RehashService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RehashService{store: st, bindings: bindings, logger: logger.With("component", "rehash")}
}

// Rehash walks every registered record type. Types without hash comparison
// are reported as skipped. A record whose hash write fails is counted and the
// pass continues.
func (s *RehashService) Rehash(ctx context.Context) (api.RehashResponse, error) {
	passes := []func(context.Context) (api.RehashTypeResult, error){
		func(ctx context.Context) (api.RehashTypeResult, error) {
			return rehashType(ctx, s, s.bindings.characters, func(ctx context.Context) ([]models.Character, error) {
				return s.store.ListCharacters(ctx, store.CharacterFilter{})
			})
		},
		func(ctx context.Context) (api.RehashTypeResult, error) {
			return rehashType(ctx, s, s.bindings.abilities, func(ctx context.Context) ([]models.Ability, error) {
				return s.store.ListAbilities(ctx, 0)
			})
		},
		func(ctx context.Context) (api.RehashTypeResult, error) {
			return rehashType(ctx, s, s.bindings.lightcones, func(ctx context.Context) ([]models.Lightcone, error) {
				return s.store.ListLightcones(ctx, store.LightconeFilter{})
			})
		},
		func(ctx context.Context) (api.RehashTypeResult, error) {
			return rehashType(ctx, s, s.bindings.relics, func(ctx context.Context) ([]models.Relic, error) {
				return s.store.ListRelics(ctx, store.RelicFilter{})
			})
		},
	}

	resp := api.RehashResponse{Types: make([]api.RehashTypeResult, 0, len(passes))}
	for _, pass := range passes {
		result, err := pass(ctx)
		if err != nil {
			return api.RehashResponse{}, err
		}
		resp.Types = append(resp.Types, result)
		resp.Scanned += result.Scanned
		resp.Updated += result.Updated
		resp.Failed += result.Failed
	}
	s.logger.Info("rehash complete", "scanned", resp.Scanned, "updated", resp.Updated, "failed", resp.Failed)
	return resp, nil
}

func rehashType[T any](ctx context.Context, s *RehashService, binding *lifecycle.Binding[T], list func(context.Context) ([]T, error)) (api.RehashTypeResult, error) {
	result := api.RehashTypeResult{RecordType: binding.Name()}
	if !binding.SupportsHashComparison() {
		result.Skipped = true
		return result, nil
	}

	records, err := list(ctx)
	if err != nil {
		return result, storeFailure(err)
	}

	var updated, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rehashWorkers)
	for i := range records {
		rec := &records[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if !binding.RefreshHashes(gctx, rec) {
				return nil
			}
			pk := binding.PK(rec)
			applied, err := s.store.UpdateAttachmentHashes(gctx, binding.Table(), pk, binding.HashFields(rec), binding.HashedKeys(rec))
			if err != nil {
				failed.Add(1)
				s.logger.Error("error saving refreshed hashes",
					"record_type", binding.Name(), "pk", pk, "error", err)
				return nil
			}
			if !applied {
				// The record was saved or deleted meanwhile; its save hook staged newer hashes.
				s.logger.Info("record changed during rehash", "record_type", binding.Name(), "pk", pk)
				return nil
			}
			updated.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}

	result.Scanned = len(records)
	result.Updated = int(updated.Load())
	result.Failed = int(failed.Load())
	return result, nil
}
