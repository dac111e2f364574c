package handlers

import (
	"time"

	"github.com/LavaJover/shvark-price-service/internal/domain"
	"github.com/LavaJover/shvark-price-service/internal/usecase"
	recomputedto "github.com/LavaJover/shvark-price-service/internal/usecase/dto/recompute"
	"github.com/gofiber/fiber/v2"
)

type RecomputeHandler struct {
	uc usecase.RecomputeUsecase
}

func NewRecomputeHandler(uc usecase.RecomputeUsecase) *RecomputeHandler {
	return &RecomputeHandler{uc: uc}
}

type triggerRecomputeRequest struct {
	Scope   string `json:"scope"`
	ScopeID string `json:"scope_id"`
	Actor   string `json:"actor"`
}

type jobResponse struct {
	ID            string     `json:"id"`
	Scope         string     `json:"scope"`
	ScopeID       string     `json:"scope_id,omitempty"`
	Reason        string     `json:"reason"`
	Actor         string     `json:"actor"`
	CorrelationID string     `json:"correlation_id"`
	Status        string     `json:"status"`
	Attempts      int32      `json:"attempts"`
	Processed     int64      `json:"processed"`
	Inserted      int64      `json:"inserted"`
	Deleted       int64      `json:"deleted"`
	DurationMs    int64      `json:"duration_ms"`
	Error         string     `json:"error,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}

func toJobResponse(job *domain.RecomputeJob) jobResponse {
	return jobResponse{
		ID: job.ID,
		Scope: string(job.Scope),
		ScopeID: job.ScopeID,
		Reason: string(job.Reason),
		Actor: job.Actor,
		CorrelationID: job.CorrelationID,
		Status: string(job.Status),
		Attempts: job.Attempts,
		Processed: job.Processed,
		Inserted: job.Inserted,
		Deleted: job.Deleted,
		DurationMs: job.DurationMs,
		Error: job.Error,
		CreatedAt: job.CreatedAt,
		StartedAt: job.StartedAt,
		FinishedAt: job.FinishedAt,
	}
}

// Trigger принимает {scope, scope_id} и отвечает только подтверждением —
// пересчет всегда асинхронный
func (h *RecomputeHandler) Trigger(c *fiber.Ctx) error {
	var req triggerRecomputeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid request body",
		})
	}
	if req.Actor == "" {
		req.Actor = c.Get("X-Actor")
	}

	out, err := h.uc.TriggerRecompute(&recomputedto.TriggerRecomputeInput{
		Scope: req.Scope,
		ScopeID: req.ScopeID,
		Actor: req.Actor,
	})
	if err != nil {
		return writeDomainError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"success":        true,
		"job_id":         out.JobID,
		"correlation_id": out.CorrelationID,
	})
}

func (h *RecomputeHandler) GetJob(c *fiber.Ctx) error {
	job, err := h.uc.GetJobByID(c.Params("id"))
	if err != nil {
		return writeDomainError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"job":     toJobResponse(job),
	})
}

func (h *RecomputeHandler) ListJobs(c *fiber.Ctx) error {
	jobs, total, err := h.uc.ListJobs(&recomputedto.ListJobsInput{
		Status: c.Query("status"),
		Scope: c.Query("scope"),
		Page: int32(c.QueryInt("page", 1)),
		Limit: int32(c.QueryInt("limit", 50)),
	})
	if err != nil {
		return writeDomainError(c, err)
	}

	items := make([]jobResponse, len(jobs))
	for i, job := range jobs {
		items[i] = toJobResponse(job)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"jobs":    items,
		"total":   total,
	})
}

func (h *RecomputeHandler) Status(c *fiber.Ctx) error {
	status := h.uc.WorkerStatus()

	resp := fiber.Map{
		"success":         true,
		"processed_total": status.ProcessedTotal,
		"errors_total":    status.ErrorsTotal,
	}
	if !status.LastFullSuccess.IsZero() {
		resp["last_full_success"] = status.LastFullSuccess
	}

	return c.JSON(resp)
}
