package services

import (
	"context"

	"producer-chat/internal/domain/user"
	"producer-chat/internal/redisx"
	"producer-chat/internal/repository"
	"producer-chat/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Directory resolves counterparty ids to display profiles in one batched
// lookup, fronted by the Redis profile cache. Unknown ids are omitted.
type Directory struct {
	repo  repository.ProfileRepository
	cache *redisx.ProfileCache
	log   *logger.Logger
}

func NewDirectory(repo repository.ProfileRepository, cache *redisx.ProfileCache, log *logger.Logger) *Directory {
	return &Directory{repo: repo, cache: cache, log: log}
}

func (d *Directory) Resolve(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]user.Profile, error) {
	resolved := make(map[uuid.UUID]user.Profile, len(ids))
	if len(ids) == 0 {
		return resolved, nil
	}

	missing := ids
	if d.cache != nil {
		hits, misses, err := d.cache.GetMany(ctx, ids)
		if err != nil {
			// Cache trouble is not directory trouble; fall through to the table.
			d.log.WithContext(ctx).Warn("profile cache read failed", zap.Error(err))
			misses = ids
		}
		for id, p := range hits {
			resolved[id] = p
		}
		missing = misses
	}

	if len(missing) > 0 {
		profiles, err := d.repo.ResolveProfiles(ctx, missing)
		if err != nil {
			return nil, err
		}
		for _, p := range profiles {
			resolved[p.ID] = p
		}
		if d.cache != nil {
			if err := d.cache.SetMany(ctx, profiles); err != nil {
				d.log.WithContext(ctx).Warn("profile cache write failed", zap.Error(err))
			}
		}
	}

	return resolved, nil
}
