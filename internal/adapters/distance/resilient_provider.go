package distance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"milk-collection-service/internal/domain"
	"milk-collection-service/internal/geo"
	"milk-collection-service/internal/platform/metrics"
	"milk-collection-service/internal/platform/obs"
	"milk-collection-service/internal/ports"
	"time"

	"github.com/rs/zerolog/log"
)

// ResilientProvider implements DistanceRouteProvider over a RoutingBackend.
//
// Every backend call is bounded by Timeout. Any backend failure (timeout,
// error status, transport error or malformed payload) is replaced with a
// geodesic estimate and reported as a Fallback with a reason. Only invalid
// coordinates are returned as errors.
type ResilientProvider struct {
	Backend   ports.RoutingBackend
	Estimator geo.Estimator
	Timeout   time.Duration
}

func NewResilientProvider(backend ports.RoutingBackend, estimator geo.Estimator, timeout time.Duration) *ResilientProvider {
	return &ResilientProvider{Backend: backend, Estimator: estimator, Timeout: timeout}
}

func (p *ResilientProvider) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.Timeout)
}

func (p *ResilientProvider) Matrix(
	ctx context.Context,
	origins []domain.Coordinates,
	destinations []domain.Coordinates,
) (ports.MatrixResult, error) {
	fallback, err := geo.Matrix(origins, destinations)
	if err != nil {
		return ports.MatrixResult{}, fmt.Errorf("provider matrix: %w", err)
	}

	if p.Backend == nil {
		return p.matrixFallback(ctx, fallback, "routing backend not configured"), nil
	}

	callCtx, cancel := p.callContext(ctx)
	defer cancel()

	live, err := p.Backend.Matrix(callCtx, origins, destinations)
	if err != nil {
		return p.matrixFallback(ctx, fallback, failureReason(callCtx, err)), nil
	}
	if err := validateMatrix(live, len(origins), len(destinations)); err != nil {
		return p.matrixFallback(ctx, fallback, "malformed matrix: "+err.Error()), nil
	}

	metrics.ProviderCalls.WithLabelValues("matrix", string(domain.SourceLive)).Inc()
	return ports.MatrixResult{DistancesKm: live, Source: domain.SourceLive}, nil
}

func (p *ResilientProvider) Route(
	ctx context.Context,
	origin domain.Coordinates,
	stops []domain.Coordinates,
) (ports.RouteResult, error) {
	identity := make([]int, len(stops))
	for i := range identity {
		identity[i] = i
	}

	km, minutes, err := p.Estimator.Tour(origin, stops)
	if err != nil {
		return ports.RouteResult{}, fmt.Errorf("provider route: %w", err)
	}
	fallback := ports.RouteResult{Order: identity, DistanceKm: km, DurationMin: minutes}

	if len(stops) == 0 {
		fallback.Source = domain.SourceLive
		return fallback, nil
	}

	if p.Backend == nil {
		return p.routeFallback(ctx, fallback, "routing backend not configured"), nil
	}

	callCtx, cancel := p.callContext(ctx)
	defer cancel()

	live, err := p.Backend.Route(callCtx, origin, stops)
	if err != nil {
		return p.routeFallback(ctx, fallback, failureReason(callCtx, err)), nil
	}
	if err := validateRoute(live, len(stops)); err != nil {
		return p.routeFallback(ctx, fallback, "malformed route: "+err.Error()), nil
	}

	metrics.ProviderCalls.WithLabelValues("route", string(domain.SourceLive)).Inc()
	return ports.RouteResult{
		Order:       live.Order,
		DistanceKm:  live.DistanceKm,
		DurationMin: live.DurationMin,
		Source:      domain.SourceLive,
	}, nil
}

func (p *ResilientProvider) matrixFallback(ctx context.Context, m [][]float64, reason string) ports.MatrixResult {
	metrics.ProviderCalls.WithLabelValues("matrix", string(domain.SourceFallback)).Inc()
	log.Warn().Str("req_id", obs.RequestID(ctx)).Str("op", "matrix").Str("reason", reason).Msg("distance provider fallback")
	return ports.MatrixResult{DistancesKm: m, Source: domain.SourceFallback, Reason: reason}
}

func (p *ResilientProvider) routeFallback(ctx context.Context, r ports.RouteResult, reason string) ports.RouteResult {
	metrics.ProviderCalls.WithLabelValues("route", string(domain.SourceFallback)).Inc()
	log.Warn().Str("req_id", obs.RequestID(ctx)).Str("op", "route").Str("reason", reason).Msg("distance provider fallback")
	r.Source = domain.SourceFallback
	r.Reason = reason
	return r
}

func failureReason(callCtx context.Context, err error) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return "timeout"
	}
	return err.Error()
}

func validateMatrix(m [][]float64, rows, cols int) error {
	if len(m) != rows {
		return fmt.Errorf("got %d rows, want %d", len(m), rows)
	}
	for i, row := range m {
		if len(row) != cols {
			return fmt.Errorf("row %d has %d columns, want %d", i, len(row), cols)
		}
		for j, v := range row {
			if !validMetric(v) {
				return fmt.Errorf("cell (%d,%d) = %v", i, j, v)
			}
		}
	}
	return nil
}

func validateRoute(r ports.BackendRoute, stops int) error {
	if len(r.Order) != stops {
		return fmt.Errorf("order has %d stops, want %d", len(r.Order), stops)
	}
	seen := make([]bool, stops)
	for _, i := range r.Order {
		if i < 0 || i >= stops || seen[i] {
			return fmt.Errorf("order %v is not a permutation", r.Order)
		}
		seen[i] = true
	}
	if !validMetric(r.DistanceKm) || !validMetric(r.DurationMin) {
		return fmt.Errorf("distance=%v duration=%v", r.DistanceKm, r.DurationMin)
	}
	return nil
}

func validMetric(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
