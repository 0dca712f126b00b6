package aoi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"golang.org/x/time/rate"

	"github.com/sells-group/uhi-cli/internal/resilience"
)

// HTTPSource fetches a boundary asset served as GeoJSON (a
// FeatureCollection, Feature, or bare Geometry) and dissolves it into one
// multipolygon in geographic coordinates.
type HTTPSource struct {
	URL     string
	Client  *http.Client
	Limiter *rate.Limiter
}

// NewHTTPSource builds a rate-limited GeoJSON boundary client.
func NewHTTPSource(url string, perSecond float64) *HTTPSource {
	if perSecond <= 0 {
		perSecond = 1
	}
	return &HTTPSource{
		URL:     url,
		Client:  &http.Client{Timeout: 30 * time.Second},
		Limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

// Name implements Source.
func (s *HTTPSource) Name() string {
	return "remote asset"
}

// Boundary implements Source.
func (s *HTTPSource) Boundary(ctx context.Context) (*AOI, error) {
	if s.Limiter != nil {
		if err := s.Limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "aoi: rate limit wait")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "aoi: build boundary request")
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "aoi: fetch boundary"), 0)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("aoi: boundary asset returned %s", resp.Status)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "aoi: read boundary body"), 0)
	}

	geoms, err := decodeGeoJSON(body)
	if err != nil {
		return nil, err
	}
	mp, err := dissolve(geoms)
	if err != nil {
		return nil, err
	}
	return New(mp, GeographicCRS)
}

// decodeGeoJSON accepts the three top-level GeoJSON shapes a boundary
// asset is served as.
func decodeGeoJSON(body []byte) ([]geom.T, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, eris.Wrap(err, "aoi: parse boundary JSON")
	}

	switch probe.Type {
	case "FeatureCollection":
		var fc geojson.FeatureCollection
		if err := json.Unmarshal(body, &fc); err != nil {
			return nil, eris.Wrap(err, "aoi: parse feature collection")
		}
		geoms := make([]geom.T, 0, len(fc.Features))
		for _, f := range fc.Features {
			if f.Geometry != nil {
				geoms = append(geoms, f.Geometry)
			}
		}
		return geoms, nil
	case "Feature":
		var f geojson.Feature
		if err := json.Unmarshal(body, &f); err != nil {
			return nil, eris.Wrap(err, "aoi: parse feature")
		}
		if f.Geometry == nil {
			return nil, eris.New("aoi: feature has no geometry")
		}
		return []geom.T{f.Geometry}, nil
	default:
		var g geom.T
		if err := geojson.Unmarshal(body, &g); err != nil {
			return nil, eris.Wrap(err, "aoi: parse geometry")
		}
		return []geom.T{g}, nil
	}
}
