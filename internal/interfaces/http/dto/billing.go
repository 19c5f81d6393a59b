package dto

import (
	"github.com/google/uuid"
	"github.com/propertyflow/backend/internal/domain/billing"
	"github.com/shopspring/decimal"
)

// RunBillingRequest requests a billing run for one period
type RunBillingRequest struct {
	// Period is the month to bill, e.g. "2024-07"
	Period string `json:"period" binding:"required,len=7"`
}

// ChargeResponse is one computed charge line
type ChargeResponse struct {
	Description      string           `json:"description"`
	PropertyNodeID   uuid.UUID        `json:"property_node_id"`
	PropertyNodeName string           `json:"property_node_name,omitempty"`
	Kind             string           `json:"kind"`
	UnitAmount       decimal.Decimal  `json:"unit_amount"`
	Quantity         decimal.Decimal  `json:"quantity"`
	Price            decimal.Decimal  `json:"price"`
	Currency         string           `json:"currency"`
	ServiceID        *uuid.UUID       `json:"service_id,omitempty"`
	PenaltyID        *uuid.UUID       `json:"penalty_id,omitempty"`
	InstallmentID    *uuid.UUID       `json:"installment_id,omitempty"`
	PercentageRate   *decimal.Decimal `json:"percentage_rate,omitempty"`
	InputRequired    bool             `json:"input_required"`
}

// ChargePreviewResponse is the result of a charge preview
type ChargePreviewResponse struct {
	Charges []ChargeResponse           `json:"charges"`
	Skipped []billing.Skip             `json:"skipped,omitempty"`
	Totals  map[string]decimal.Decimal `json:"totals"`
}

// NewChargeResponse converts a domain charge
func NewChargeResponse(c billing.Charge) ChargeResponse {
	return ChargeResponse{
		Description:      c.Description,
		PropertyNodeID:   c.PropertyNodeID,
		PropertyNodeName: c.PropertyNodeName,
		Kind:             c.Kind.String(),
		UnitAmount:       c.UnitAmount,
		Quantity:         c.Quantity,
		Price:            c.Price(),
		Currency:         c.Currency.Code,
		ServiceID:        c.ServiceRef,
		PenaltyID:        c.PenaltyRef,
		InstallmentID:    c.InstallmentRef,
		PercentageRate:   c.PercentageRate,
		InputRequired:    c.InputRequired,
	}
}

// NewChargePreviewResponse converts a calculation result, totalling prices per currency
func NewChargePreviewResponse(result billing.Result) ChargePreviewResponse {
	resp := ChargePreviewResponse{
		Charges: make([]ChargeResponse, 0, len(result.Charges)),
		Skipped: result.Skipped,
		Totals:  make(map[string]decimal.Decimal),
	}
	for _, c := range result.Charges {
		resp.Charges = append(resp.Charges, NewChargeResponse(c))
	}
	for code, total := range result.Total() {
		resp.Totals[code] = total.Amount()
	}
	return resp
}
