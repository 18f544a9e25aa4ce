package handlers

import (
	"errors"
	"fmt"
	"io"
	"milk-collection-service/internal/api/dto"
	"milk-collection-service/internal/domain"
	"milk-collection-service/internal/ports"
	"milk-collection-service/internal/services"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RunHandler exposes optimization runs: create, manual updates, listing and
// comparison.
type RunHandler struct {
	Optimizer       *services.Optimizer
	ManualEvaluator *services.ManualEvaluator
	Runs            ports.RunRepository
	Snapshots       ports.SnapshotSource
	// Defaults holds the limits used when a request does not override them.
	Defaults domain.RunConfig
}

// Create runs the optimizer over the request snapshot or the active records
// and stores the result.
func (h *RunHandler) Create(c *gin.Context) {
	var req dto.CreateRunRequest
	if err := decodeJSON(c, &req); err != nil {
		writeBodyError(c, err)
		return
	}

	cfg := h.Defaults
	if req.DeadlineMinutes != nil {
		cfg.DeadlineMinutes = *req.DeadlineMinutes
	}
	if req.MaxDistanceKm != nil {
		cfg.MaxDistanceKm = *req.MaxDistanceKm
	}
	if req.AverageSpeedKmh != nil {
		cfg.AverageSpeedKmh = *req.AverageSpeedKmh
	}

	ctx := c.Request.Context()

	var snap domain.Snapshot
	if req.Snapshot != nil {
		snap = *req.Snapshot
	} else {
		var err error
		snap, err = h.Snapshots.Snapshot(ctx)
		if err != nil {
			writeDomainError(c, "load snapshot", err)
			return
		}
	}

	run, err := h.Optimizer.Run(ctx, snap, cfg)
	if err != nil {
		writeDomainError(c, "optimize", err)
		return
	}
	if err := h.Runs.Save(ctx, run); err != nil {
		writeDomainError(c, "save run", err)
		return
	}

	writeJSON(c, http.StatusCreated, run)
}

// Manual evaluates an edited plan against the active records, stores it and
// compares it with the latest machine-generated run.
func (h *RunHandler) Manual(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		writeBodyError(c, err)
		return
	}

	plan, err := services.ParseManualPayload(raw)
	if err != nil {
		writeDomainError(c, "parse manual plan", err)
		return
	}

	ctx := c.Request.Context()

	snap, err := h.Snapshots.Snapshot(ctx)
	if err != nil {
		writeDomainError(c, "load snapshot", err)
		return
	}

	run, err := h.ManualEvaluator.Evaluate(snap, h.Defaults, plan)
	if err != nil {
		writeDomainError(c, "evaluate manual plan", err)
		return
	}
	if err := h.Runs.Save(ctx, run); err != nil {
		writeDomainError(c, "save run", err)
		return
	}

	res := dto.ManualRunResponse{Run: run}

	machine, err := h.Runs.Latest(ctx, domain.TriggerMachine)
	switch {
	case err == nil:
		cmp := services.Compare(machine, run)
		res.Comparison = &cmp
	case !errors.Is(err, domain.ErrNotFound):
		writeDomainError(c, "latest machine run", err)
		return
	}

	writeJSON(c, http.StatusCreated, res)
}

func (h *RunHandler) List(c *gin.Context) {
	var q dto.ListRunsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, http.StatusBadRequest, "invalid query")
		return
	}

	var trigger domain.Trigger
	if q.Trigger != "" {
		var err error
		trigger, err = domain.ParseTrigger(q.Trigger)
		if err != nil {
			writeDomainError(c, "list runs", err)
			return
		}
	}

	runs, err := h.Runs.List(c.Request.Context(), trigger)
	if err != nil {
		writeDomainError(c, "list runs", err)
		return
	}

	res := dto.ListRunsResponse{Runs: make([]dto.RunSummary, 0, len(runs))}
	for _, r := range runs {
		res.Runs = append(res.Runs, dto.RunSummary{
			RunMetrics:             services.Metrics(r),
			TotalUnassignedFarmers: r.TotalUnassignedFarmers,
			CreatedAt:              r.CreatedAt,
		})
	}

	writeJSON(c, http.StatusOK, res)
}

func (h *RunHandler) Get(c *gin.Context) {
	run, err := h.Runs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeDomainError(c, "get run", err)
		return
	}
	writeJSON(c, http.StatusOK, run)
}

func (h *RunHandler) Metrics(c *gin.Context) {
	run, err := h.Runs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeDomainError(c, "get run", err)
		return
	}
	writeJSON(c, http.StatusOK, services.Metrics(run))
}

// Compare reports the savings of current over previous. Missing ids default
// to the latest machine-generated run (previous) and the latest manual
// update (current).
func (h *RunHandler) Compare(c *gin.Context) {
	var q dto.CompareQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, http.StatusBadRequest, "invalid query")
		return
	}

	prev, err := h.runOrLatest(c, q.Previous, domain.TriggerMachine)
	if err != nil {
		writeDomainError(c, "compare runs: previous", err)
		return
	}
	curr, err := h.runOrLatest(c, q.Current, domain.TriggerManual)
	if err != nil {
		writeDomainError(c, "compare runs: current", err)
		return
	}
	writeJSON(c, http.StatusOK, services.Compare(prev, curr))
}

func (h *RunHandler) runOrLatest(c *gin.Context, id string, trigger domain.Trigger) (*domain.Run, error) {
	ctx := c.Request.Context()
	if id != "" {
		return h.Runs.Get(ctx, id)
	}
	run, err := h.Runs.Latest(ctx, trigger)
	if err != nil {
		return nil, fmt.Errorf("latest %s run: %w", trigger, err)
	}
	return run, nil
}
