package acquisition

import (
	"time"

	"github.com/google/uuid"
	"github.com/matflow/backend/internal/application/ledger"
	"github.com/matflow/backend/internal/domain/acquisition"
	"github.com/shopspring/decimal"
)

// ItemRequest is one line of a create or update request
type ItemRequest struct {
	MaterialID      *uuid.UUID                 `json:"material_id"`
	NewMaterial     *ledger.NewMaterialRequest `json:"new_material"`
	OrderedQuantity decimal.Decimal            `json:"ordered_quantity"`
	Unit            string                     `json:"unit" binding:"max=20"`
	UnitCost        decimal.Decimal            `json:"unit_cost"`
}

// CreateAcquisitionRequest represents a request to create a draft acquisition
type CreateAcquisitionRequest struct {
	Title      string        `json:"title" binding:"required,min=1,max=200"`
	Kind       string        `json:"kind" binding:"required,oneof=RAW_MATERIALS RECYCLABLE_MATERIALS"`
	SupplierID *uuid.UUID    `json:"supplier_id"`
	DueDate    *time.Time    `json:"due_date"`
	Notes      string        `json:"notes" binding:"max=2000"`
	Items      []ItemRequest `json:"items" binding:"required,min=1,dive"`
}

// UpdateAcquisitionRequest replaces the editable fields of a draft
type UpdateAcquisitionRequest struct {
	Title      string        `json:"title" binding:"required,min=1,max=200"`
	Kind       string        `json:"kind" binding:"omitempty,oneof=RAW_MATERIALS RECYCLABLE_MATERIALS"`
	SupplierID *uuid.UUID    `json:"supplier_id"`
	DueDate    *time.Time    `json:"due_date"`
	Notes      string        `json:"notes" binding:"max=2000"`
	Items      []ItemRequest `json:"items" binding:"required,min=1,dive"`
}

// ReceiveItemRequest overrides the received quantity of one item
type ReceiveItemRequest struct {
	ItemID           uuid.UUID        `json:"item_id" binding:"required"`
	ReceivedQuantity *decimal.Decimal `json:"received_quantity"`
}

// ReceiveRequest represents a request to receive an acquisition.
// Items left out are received at their ordered quantity.
type ReceiveRequest struct {
	Items []ReceiveItemRequest `json:"items" binding:"dive"`
}

// ProcessOutputRequest is one raw-material output of a processing run
type ProcessOutputRequest struct {
	SourceItemID uuid.UUID                  `json:"source_item_id" binding:"required"`
	MaterialID   *uuid.UUID                 `json:"material_id"`
	NewMaterial  *ledger.NewMaterialRequest `json:"new_material"`
	Quantity     decimal.Decimal            `json:"quantity"`
	Unit         string                     `json:"unit" binding:"max=20"`
}

// ProcessRequest represents a request to process recyclables
type ProcessRequest struct {
	Outputs []ProcessOutputRequest `json:"outputs" binding:"required,min=1,dive"`
}

// AcquisitionListFilter represents filter options for the acquisition list
type AcquisitionListFilter struct {
	Search   string `form:"search"`
	Kind     string `form:"kind" binding:"omitempty,oneof=RAW_MATERIALS RECYCLABLE_MATERIALS"`
	Status   string `form:"status" binding:"omitempty,oneof=DRAFT RECEIVED READY_FOR_PROCESSING CANCELLED"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=title status due_date created_at updated_at"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ItemResponse represents an acquisition item in API responses
type ItemResponse struct {
	ID                 uuid.UUID        `json:"id"`
	LineNo             int              `json:"line_no"`
	MaterialID         *uuid.UUID       `json:"material_id,omitempty"`
	MaterialName       string           `json:"material_name"`
	PendingNewMaterial bool             `json:"pending_new_material"`
	OrderedQuantity    decimal.Decimal  `json:"ordered_quantity"`
	ReceivedQuantity   *decimal.Decimal `json:"received_quantity,omitempty"`
	Unit               string           `json:"unit"`
	UnitCost           decimal.Decimal  `json:"unit_cost"`
	DeliveryStatus     string           `json:"delivery_status,omitempty"`
	DeliveryDifference *decimal.Decimal `json:"delivery_difference,omitempty"`
}

// AcquisitionResponse represents an acquisition in API responses
type AcquisitionResponse struct {
	ID            uuid.UUID       `json:"id"`
	Title         string          `json:"title"`
	Kind          string          `json:"kind"`
	Status        string          `json:"status"`
	SupplierID    *uuid.UUID      `json:"supplier_id,omitempty"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	CreatedBy     uuid.UUID       `json:"created_by"`
	ReceivedBy    *uuid.UUID      `json:"received_by,omitempty"`
	ReceivedAt    *time.Time      `json:"received_at,omitempty"`
	CancelledBy   *uuid.UUID      `json:"cancelled_by,omitempty"`
	CancelledAt   *time.Time      `json:"cancelled_at,omitempty"`
	TotalOrdered  decimal.Decimal `json:"total_ordered"`
	TotalReceived decimal.Decimal `json:"total_received"`
	ReceivedValue decimal.Decimal `json:"received_value"`
	Items         []ItemResponse  `json:"items"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Version       int             `json:"version"`
}

// AcquisitionListItemResponse is the list view of an acquisition
type AcquisitionListItemResponse struct {
	ID            uuid.UUID       `json:"id"`
	Title         string          `json:"title"`
	Kind          string          `json:"kind"`
	Status        string          `json:"status"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
	ItemCount     int             `json:"item_count"`
	TotalOrdered  decimal.Decimal `json:"total_ordered"`
	TotalReceived decimal.Decimal `json:"total_received"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ToAcquisitionResponse converts a domain acquisition to a response
func ToAcquisitionResponse(a *acquisition.Acquisition) AcquisitionResponse {
	items := make([]ItemResponse, len(a.Items))
	for i := range a.Items {
		item := &a.Items[i]
		ir := ItemResponse{
			ID:                 item.ID,
			LineNo:             item.LineNo,
			MaterialID:         item.MaterialID,
			MaterialName:       item.MaterialName,
			PendingNewMaterial: item.NewMaterial != nil,
			OrderedQuantity:    item.OrderedQuantity,
			ReceivedQuantity:   item.ReceivedQuantity,
			Unit:               item.Unit,
			UnitCost:           item.UnitCost,
		}
		if d, ok := item.Delivery(); ok {
			diff := d.Difference
			ir.DeliveryStatus = d.Status.String()
			ir.DeliveryDifference = &diff
		}
		items[i] = ir
	}
	return AcquisitionResponse{
		ID:            a.ID,
		Title:         a.Title,
		Kind:          string(a.Kind),
		Status:        string(a.Status),
		SupplierID:    a.SupplierID,
		DueDate:       a.DueDate,
		Notes:         a.Notes,
		CreatedBy:     a.CreatedBy,
		ReceivedBy:    a.ReceivedBy,
		ReceivedAt:    a.ReceivedAt,
		CancelledBy:   a.CancelledBy,
		CancelledAt:   a.CancelledAt,
		TotalOrdered:  a.TotalOrderedQuantity(),
		TotalReceived: a.TotalReceivedQuantity(),
		ReceivedValue: a.ReceivedValue(),
		Items:         items,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
		Version:       a.Version,
	}
}

// ToAcquisitionListItemResponses converts acquisitions to list items
func ToAcquisitionListItemResponses(items []acquisition.Acquisition) []AcquisitionListItemResponse {
	out := make([]AcquisitionListItemResponse, len(items))
	for i := range items {
		a := &items[i]
		out[i] = AcquisitionListItemResponse{
			ID:            a.ID,
			Title:         a.Title,
			Kind:          string(a.Kind),
			Status:        string(a.Status),
			DueDate:       a.DueDate,
			ItemCount:     len(a.Items),
			TotalOrdered:  a.TotalOrderedQuantity(),
			TotalReceived: a.TotalReceivedQuantity(),
			CreatedAt:     a.CreatedAt,
		}
	}
	return out
}

// ProcessedMaterialResponse represents one processing output record
type ProcessedMaterialResponse struct {
	ID           uuid.UUID       `json:"id"`
	SourceItemID uuid.UUID       `json:"source_item_id"`
	MaterialID   uuid.UUID       `json:"material_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         string          `json:"unit"`
	ProcessedBy  uuid.UUID       `json:"processed_by"`
	ProcessedAt  time.Time       `json:"processed_at"`
}

// ItemProcessingResponse summarises processing of one source item
type ItemProcessingResponse struct {
	ItemID        uuid.UUID       `json:"item_id"`
	Received      decimal.Decimal `json:"received"`
	Processed     decimal.Decimal `json:"processed"`
	Remaining     decimal.Decimal `json:"remaining"`
	OverProcessed bool            `json:"over_processed"`
}

// ProcessingResponse is the processing state of an acquisition
type ProcessingResponse struct {
	AcquisitionID uuid.UUID                   `json:"acquisition_id"`
	Processed     bool                        `json:"processed"`
	Records       []ProcessedMaterialResponse `json:"records"`
	Items         []ItemProcessingResponse    `json:"items"`
	Warnings      []string                    `json:"warnings,omitempty"`
}

func toProcessingResponse(a *acquisition.Acquisition, records []acquisition.ProcessedMaterial, summary []acquisition.ItemProcessing) ProcessingResponse {
	resp := ProcessingResponse{
		AcquisitionID: a.ID,
		Processed:     len(records) > 0,
		Records:       make([]ProcessedMaterialResponse, len(records)),
		Items:         make([]ItemProcessingResponse, len(summary)),
	}
	for i := range records {
		r := &records[i]
		resp.Records[i] = ProcessedMaterialResponse{
			ID:           r.ID,
			SourceItemID: r.SourceItemID,
			MaterialID:   r.MaterialID,
			Quantity:     r.Quantity,
			Unit:         r.Unit,
			ProcessedBy:  r.ProcessedBy,
			ProcessedAt:  r.ProcessedAt,
		}
	}
	for i, s := range summary {
		resp.Items[i] = ItemProcessingResponse{
			ItemID:        s.ItemID,
			Received:      s.Received,
			Processed:     s.Processed,
			Remaining:     s.Remaining(),
			OverProcessed: s.OverProcessed,
		}
	}
	return resp
}
