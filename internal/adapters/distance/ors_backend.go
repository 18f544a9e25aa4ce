package distance

import (
	"context"
	"errors"
	"fmt"
	"milk-collection-service/internal/domain"
	"milk-collection-service/internal/platform/metrics"
	"milk-collection-service/internal/platform/obs"
	"milk-collection-service/internal/ports"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// ORSBackend implements RoutingBackend using OpenRouteService.
//
// It coordinates:
//   - Persistent distance matrix caching per origin
//   - Outbound rate limiting
//   - External API calls with retry/backoff
//
// The backend is safe for concurrent use.
type ORSBackend struct {
	session *http.Client
	apiKey  string
	baseURL string
	profile string
	cache   ports.DistanceCache
	limiter *rate.Limiter
	backoff time.Duration
}

type ORSOptions struct {
	APIKey        string
	BaseURL       string
	Profile       string
	RatePerSecond float64
	Cache         ports.DistanceCache
	HTTPClient    *http.Client
}

func NewORSBackend(opts ORSOptions) (*ORSBackend, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("ORS api key is empty")
	}

	b := &ORSBackend{
		session: opts.HTTPClient,
		apiKey:  opts.APIKey,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		profile: opts.Profile,
		cache:   opts.Cache,
		backoff: 200 * time.Millisecond,
	}
	if b.session == nil {
		b.session = &http.Client{Timeout: 10 * time.Second}
	}
	if b.baseURL == "" {
		b.baseURL = "https://api.openrouteservice.org"
	}
	if b.profile == "" {
		b.profile = "driving-car"
	}
	if opts.RatePerSecond > 0 {
		b.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1)
	}

	return b, nil
}

// Matrix returns road distances in km. Rows already cached for an origin are
// served from the cache; the remaining origins are fetched in one matrix call.
func (o *ORSBackend) Matrix(
	ctx context.Context,
	origins []domain.Coordinates,
	destinations []domain.Coordinates,
) (_ [][]float64, err error) {
	defer obs.Time(ctx, "ors.Matrix")(&err)

	out := make([][]float64, len(origins))
	if len(origins) == 0 || len(destinations) == 0 {
		for i := range out {
			out[i] = []float64{}
		}
		return out, nil
	}

	destKeys := make([]string, len(destinations))
	for j, d := range destinations {
		destKeys[j] = d.Key()
	}

	missing := make([]int, 0, len(origins))
	for i, origin := range origins {
		row, ok := o.cachedRow(ctx, origin.Key(), destKeys)
		if ok {
			out[i] = row
			continue
		}
		missing = append(missing, i)
	}

	if len(missing) == 0 {
		return out, nil
	}

	missingOrigins := make([]domain.Coordinates, len(missing))
	for k, i := range missing {
		missingOrigins[k] = origins[i]
	}

	fetched, err := o.fetchMatrix(ctx, missingOrigins, destinations)
	if err != nil {
		return nil, fmt.Errorf("fetching matrix: %w", err)
	}

	for k, i := range missing {
		row := make([]float64, len(destinations))
		results := make(map[string]ports.DistanceResult, len(destinations))
		for j, r := range fetched[k] {
			row[j] = float64(r.DistanceMeters) / 1000
			results[destKeys[j]] = r
		}
		out[i] = row
		o.storeRow(ctx, origins[i].Key(), results)
	}

	return out, nil
}

// cachedRow returns a full row from the cache; partial rows count as a miss.
func (o *ORSBackend) cachedRow(ctx context.Context, origin string, destKeys []string) ([]float64, bool) {
	if o.cache == nil {
		return nil, false
	}

	hits, err := o.cache.GetMany(ctx, origin, destKeys)
	if err != nil {
		log.Warn().Err(err).Str("origin", origin).Msg("distance cache read failed")
		return nil, false
	}

	row := make([]float64, len(destKeys))
	for j, k := range destKeys {
		r, ok := hits[k]
		if !ok {
			metrics.CacheLookups.WithLabelValues("miss").Inc()
			return nil, false
		}
		row[j] = float64(r.DistanceMeters) / 1000
	}
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return row, true
}

func (o *ORSBackend) storeRow(ctx context.Context, origin string, results map[string]ports.DistanceResult) {
	if o.cache == nil {
		return
	}
	if err := o.cache.PutMany(ctx, origin, results); err != nil {
		log.Warn().Err(err).Str("origin", origin).Msg("distance cache write failed")
	}
}
