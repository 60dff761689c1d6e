package http

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cache"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// viewReader serves rendered JSON views through the view cache.
type viewReader struct {
	views  cache.ViewCache
	sfg    singleflight.Group // collapses concurrent misses on one key
	logger *zap.Logger
}

func newViewReader(views cache.ViewCache, l *zap.Logger) *viewReader {
	if views == nil {
		views = cache.Nop{}
	}
	return &viewReader{views: views, logger: l}
}

// read returns the cached view for key, building and storing it on a miss.
// Cache failures degrade to building the view.
func (v *viewReader) read(ctx context.Context, key string, build func(context.Context) (any, error)) ([]byte, error) {
	body, err, _ := v.sfg.Do(key, func() (any, error) {
		cached, err := v.views.Get(ctx, key)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			logger.FromContext(ctx, v.logger).Warn("view cache get failed", zap.String("key", key), zap.Error(err))
		}

		view, err := build(ctx)
		if err != nil {
			return nil, err
		}
		body, err := json.Marshal(view)
		if err != nil {
			return nil, err
		}

		setCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if err := v.views.Set(setCtx, key, body); err != nil {
			logger.FromContext(ctx, v.logger).Warn("view cache set failed", zap.String("key", key), zap.Error(err))
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	return body.([]byte), nil
}
