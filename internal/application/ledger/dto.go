package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/matflow/backend/internal/domain/material"
	"github.com/shopspring/decimal"
)

// MaterialResponse represents a material in API responses
type MaterialResponse struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Color          string          `json:"color,omitempty"`
	Kind           string          `json:"kind"`
	Unit           string          `json:"unit"`
	Quantity       decimal.Decimal `json:"quantity"`
	MinimumStock   decimal.Decimal `json:"minimum_stock"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	TotalValue     decimal.Decimal `json:"total_value"`
	IsActive       bool            `json:"is_active"`
	IsBelowMinimum bool            `json:"is_below_minimum"`
	CreatedBy      *uuid.UUID      `json:"created_by,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Version        int             `json:"version"`
}

// ToMaterialResponse converts a domain material to a response
func ToMaterialResponse(m *material.Material) MaterialResponse {
	return MaterialResponse{
		ID:             m.ID,
		Name:           m.Name,
		Color:          m.Color,
		Kind:           string(m.Kind),
		Unit:           m.Unit,
		Quantity:       m.Quantity,
		MinimumStock:   m.MinimumStock,
		UnitCost:       m.UnitCost,
		TotalValue:     m.Quantity.Mul(m.UnitCost),
		IsActive:       m.IsActive,
		IsBelowMinimum: m.IsBelowMinimum(),
		CreatedBy:      m.CreatedBy,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
		Version:        m.Version,
	}
}

// ToMaterialResponses converts a slice of materials
func ToMaterialResponses(items []material.Material) []MaterialResponse {
	out := make([]MaterialResponse, len(items))
	for i := range items {
		out[i] = ToMaterialResponse(&items[i])
	}
	return out
}

// CreateMaterialRequest represents a request to create a material
type CreateMaterialRequest struct {
	Name         string          `json:"name" binding:"required,min=1,max=200"`
	Color        string          `json:"color" binding:"max=50"`
	Kind         string          `json:"kind" binding:"required,material_kind"`
	Unit         string          `json:"unit" binding:"required,max=20"`
	MinimumStock decimal.Decimal `json:"minimum_stock"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
}

// Spec converts the request to a domain creation spec
func (r CreateMaterialRequest) Spec() material.Spec {
	return material.Spec{
		Name:         r.Name,
		Color:        r.Color,
		Kind:         material.Kind(r.Kind),
		Unit:         r.Unit,
		MinimumStock: r.MinimumStock,
		UnitCost:     r.UnitCost,
	}
}

// UpdateMaterialRequest represents a request to update material attributes
type UpdateMaterialRequest struct {
	Name         *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Color        *string          `json:"color" binding:"omitempty,max=50"`
	Kind         *string          `json:"kind" binding:"omitempty,material_kind"`
	Unit         *string          `json:"unit" binding:"omitempty,max=20"`
	MinimumStock *decimal.Decimal `json:"minimum_stock"`
	UnitCost     *decimal.Decimal `json:"unit_cost"`
	IsActive     *bool            `json:"is_active"`
}

// Update converts the request to a domain update
func (r UpdateMaterialRequest) Update() material.Update {
	u := material.Update{
		Name:         r.Name,
		Color:        r.Color,
		Unit:         r.Unit,
		MinimumStock: r.MinimumStock,
		UnitCost:     r.UnitCost,
		IsActive:     r.IsActive,
	}
	if r.Kind != nil {
		k := material.Kind(*r.Kind)
		u.Kind = &k
	}
	return u
}

// MaterialListFilter represents filter options for the material list
type MaterialListFilter struct {
	Search   string `form:"search"`
	Kind     string `form:"kind" binding:"omitempty,material_kind"`
	IsActive *bool  `form:"is_active"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=name kind quantity created_at updated_at"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// AdjustStockRequest represents a manual credit or debit
type AdjustStockRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
	Reason   string          `json:"reason" binding:"required,min=1,max=500"`
}

// AvailableResponse is the quantity on hand of one material
type AvailableResponse struct {
	MaterialID uuid.UUID       `json:"material_id"`
	Unit       string          `json:"unit"`
	Available  decimal.Decimal `json:"available"`
}

// EntryResponse represents a ledger entry in API responses
type EntryResponse struct {
	ID            uuid.UUID       `json:"id"`
	MaterialID    uuid.UUID       `json:"material_id"`
	Direction     string          `json:"direction"`
	Quantity      decimal.Decimal `json:"quantity"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	SourceType    string          `json:"source_type"`
	SourceID      uuid.UUID       `json:"source_id"`
	SourceLineID  *uuid.UUID      `json:"source_line_id,omitempty"`
	ActorID       uuid.UUID       `json:"actor_id"`
	Reason        string          `json:"reason,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// ToEntryResponse converts a ledger entry to a response
func ToEntryResponse(e *material.LedgerEntry) EntryResponse {
	return EntryResponse{
		ID:            e.ID,
		MaterialID:    e.MaterialID,
		Direction:     string(e.Direction),
		Quantity:      e.Quantity,
		BalanceBefore: e.BalanceBefore,
		BalanceAfter:  e.BalanceAfter,
		SourceType:    string(e.SourceType),
		SourceID:      e.SourceID,
		SourceLineID:  e.SourceLineID,
		ActorID:       e.ActorID,
		Reason:        e.Reason,
		OccurredAt:    e.OccurredAt,
	}
}

// ToEntryResponses converts a slice of ledger entries
func ToEntryResponses(entries []material.LedgerEntry) []EntryResponse {
	out := make([]EntryResponse, len(entries))
	for i := range entries {
		out[i] = ToEntryResponse(&entries[i])
	}
	return out
}

// EntryListFilter represents filter options for a material's ledger history
type EntryListFilter struct {
	SourceType string     `form:"source_type" binding:"omitempty,oneof=ACQUISITION_RECEIPT RECYCLABLE_PROCESSING PRODUCTION_CONSUMPTION PRODUCTION_OUTPUT MANUAL_ADJUSTMENT"`
	SourceID   *uuid.UUID `form:"-"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// KindValuation totals stock and value for one material kind
type KindValuation struct {
	Kind          string          `json:"kind"`
	MaterialCount int             `json:"material_count"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value"`
}

// ValuationResponse is the stock valuation across all active materials
type ValuationResponse struct {
	Kinds      []KindValuation `json:"kinds"`
	TotalValue decimal.Decimal `json:"total_value"`
}

// NewMaterialRequest describes a material to create on first use
type NewMaterialRequest struct {
	Name         string          `json:"name" binding:"required,min=1,max=200"`
	Color        string          `json:"color" binding:"max=50"`
	Kind         string          `json:"kind" binding:"omitempty,material_kind"`
	Unit         string          `json:"unit" binding:"max=20"`
	MinimumStock decimal.Decimal `json:"minimum_stock"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
}

// Spec converts the request to a domain creation spec
func (r *NewMaterialRequest) Spec() material.Spec {
	return material.Spec{
		Name:         r.Name,
		Color:        r.Color,
		Kind:         material.Kind(r.Kind),
		Unit:         r.Unit,
		MinimumStock: r.MinimumStock,
		UnitCost:     r.UnitCost,
	}
}

// MaterialRef builds the tagged material reference from an id-or-spec pair.
// A request naming neither yields an empty reference that fails validation.
func MaterialRef(id *uuid.UUID, spec *NewMaterialRequest) material.Ref {
	if spec != nil {
		return material.New(spec.Spec())
	}
	if id != nil {
		return material.Existing(*id)
	}
	return material.Ref{}
}
