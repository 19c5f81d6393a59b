package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	appbilling "github.com/propertyflow/backend/internal/application/billing"
	"github.com/propertyflow/backend/internal/domain/billing"
	"github.com/propertyflow/backend/internal/interfaces/http/dto"
	"github.com/propertyflow/backend/internal/interfaces/http/middleware"
)

// ChargePreviewer computes charges for a tuple without persisting them
type ChargePreviewer interface {
	Preview(ctx context.Context, req appbilling.CalculateRequest) (billing.Result, error)
}

// RunTrigger starts billing runs and remembers the last outcome
type RunTrigger interface {
	Trigger(ctx context.Context, period billing.Period) (*appbilling.RunResult, error)
	LastResult() *appbilling.RunResult
}

// BillingHandler handles the billing API
type BillingHandler struct {
	BaseHandler
	charges ChargePreviewer
	runs    RunTrigger
}

// NewBillingHandler creates a new BillingHandler
func NewBillingHandler(charges ChargePreviewer, runs RunTrigger) *BillingHandler {
	return &BillingHandler{
		charges: charges,
		runs:    runs,
	}
}

// PreviewCharges computes the charges one party owes for a property node and month.
// POST /billing/charges/preview
func (h *BillingHandler) PreviewCharges(c *gin.Context) {
	var req appbilling.CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, dto.ErrCodeInvalidJSON, "Invalid request body")
		return
	}

	result, err := h.charges.Preview(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.NewChargePreviewResponse(result))
}

// RunBilling bills every active tuple for a period and returns the run summary.
// The run continues when the client disconnects.
// POST /billing/runs
func (h *BillingHandler) RunBilling(c *gin.Context) {
	var req dto.RunBillingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if details := middleware.ValidationDetails(err); len(details) > 0 {
			h.ValidationError(c, details)
			return
		}
		h.BadRequest(c, dto.ErrCodeInvalidJSON, "Invalid request body")
		return
	}

	period, err := billing.ParsePeriodKey(req.Period)
	if err != nil {
		h.BadRequest(c, dto.ErrCodeInvalidInput, "Period must be formatted as YYYY-MM")
		return
	}

	result, err := h.runs.Trigger(context.WithoutCancel(c.Request.Context()), period)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// LastRun returns the summary of the most recent billing run.
// GET /billing/runs/last
func (h *BillingHandler) LastRun(c *gin.Context) {
	result := h.runs.LastResult()
	if result == nil {
		h.NotFound(c, "No billing run has completed yet")
		return
	}
	h.Success(c, result)
}
