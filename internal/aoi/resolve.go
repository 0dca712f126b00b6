package aoi

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/uhi-cli/internal/config"
	"github.com/sells-group/uhi-cli/internal/resilience"
)

// Source produces a boundary. Implementations: the remote GeoJSON asset
// and the local shapefile fallback.
type Source interface {
	Name() string
	Boundary(ctx context.Context) (*AOI, error)
}

// Resolve attempts the remote boundary source and falls back to the local
// one. The retry budget applies to the remote source only and only to
// transient failures; a permanent remote failure (missing asset, malformed
// geometry) falls back immediately. Both sources failing is fatal; the
// pipeline cannot run without an AOI.
//
// Callers cannot tell which source produced the result except through the
// log line emitted here.
func Resolve(ctx context.Context, remote, local Source, retries int) (*AOI, error) {
	log := zap.L().With(zap.String("component", "aoi"))

	var remoteErr error
	if remote != nil {
		a, err := resilience.DoVal(ctx, resilience.Attempts(retries), "aoi.boundary",
			func(ctx context.Context) (*AOI, error) {
				return remote.Boundary(ctx)
			})
		if err == nil {
			log.Info("boundary resolved", zap.String("source", remote.Name()))
			return a, nil
		}
		remoteErr = err
		log.Warn("remote boundary unavailable, falling back",
			zap.String("source", remote.Name()),
			zap.Error(err),
		)
	}

	if local == nil {
		if remoteErr != nil {
			return nil, eris.Wrap(remoteErr, "aoi: remote boundary failed and no fallback configured")
		}
		return nil, eris.New("aoi: no boundary source configured")
	}

	a, localErr := local.Boundary(ctx)
	if localErr != nil {
		if remoteErr != nil {
			return nil, eris.Wrapf(localErr, "aoi: fallback failed after remote error (%v)", remoteErr)
		}
		return nil, eris.Wrap(localErr, "aoi: boundary fallback failed")
	}

	log.Info("boundary resolved", zap.String("source", local.Name()))
	return a, nil
}

// FromConfig builds the configured sources and resolves the AOI.
func FromConfig(ctx context.Context, cfg *config.Config) (*AOI, error) {
	var remote Source
	if cfg.Boundary.AssetURL != "" {
		remote = NewHTTPSource(cfg.Boundary.AssetURL, cfg.Catalog.RatePerSecond)
	}
	var local Source
	if cfg.Boundary.ShapefilePath != "" {
		local = &ShapefileSource{Path: cfg.Boundary.ShapefilePath}
	}
	return Resolve(ctx, remote, local, cfg.Boundary.Retries)
}
