package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/matflow/backend/internal/application/ledger"
	"github.com/matflow/backend/internal/domain/material"
)

// MaterialHandler serves the inventory ledger: materials, their stock and
// their ledger history
type MaterialHandler struct {
	BaseHandler
	ledger *ledger.Service
}

// NewMaterialHandler creates a new MaterialHandler
func NewMaterialHandler(svc *ledger.Service) *MaterialHandler {
	return &MaterialHandler{ledger: svc}
}

// MaterialDetail is a material together with its quantity on hand
type MaterialDetail struct {
	ledger.MaterialResponse
	Available *ledger.AvailableResponse `json:"available"`
}

// Create registers a new material with zero stock
func (h *MaterialHandler) Create(c *gin.Context) {
	actorID, ok := h.actorID(c)
	if !ok {
		return
	}
	var req ledger.CreateMaterialRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.ledger.CreateMaterial(c.Request.Context(), req, actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List returns a filtered page of materials
func (h *MaterialHandler) List(c *gin.Context) {
	var filter ledger.MaterialListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	filter.Page, filter.PageSize = page(filter.Page, filter.PageSize)

	items, total, err := h.ledger.ListMaterials(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// ListLowStock returns active materials at or below their minimum stock
func (h *MaterialHandler) ListLowStock(c *gin.Context) {
	items, err := h.ledger.ListLowStock(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// Valuation returns the stock value per material kind
func (h *MaterialHandler) Valuation(c *gin.Context) {
	resp, err := h.ledger.Valuation(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Get returns one material and its quantity on hand
func (h *MaterialHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	m, err := h.ledger.GetMaterial(ctx, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	available, err := h.ledger.GetAvailable(ctx, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, MaterialDetail{MaterialResponse: *m, Available: available})
}

// Update changes descriptive fields of a material
func (h *MaterialHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req ledger.UpdateMaterialRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.ledger.UpdateMaterial(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Entries returns a material's ledger history, newest first
func (h *MaterialHandler) Entries(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var filter ledger.EntryListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	if filter.SourceID, ok = h.queryID(c, "source_id"); !ok {
		return
	}
	filter.Page, filter.PageSize = page(filter.Page, filter.PageSize)

	entries, total, err := h.ledger.History(c.Request.Context(), id, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, entries, total, filter.Page, filter.PageSize)
}

// Credit records a manual stock increase
func (h *MaterialHandler) Credit(c *gin.Context) {
	h.adjust(c, h.ledger.Credit)
}

// Debit records a manual stock decrease
func (h *MaterialHandler) Debit(c *gin.Context) {
	h.adjust(c, h.ledger.Debit)
}

type adjustFunc func(ctx context.Context, id uuid.UUID, req ledger.AdjustStockRequest, actorID uuid.UUID) (*ledger.EntryResponse, error)

func (h *MaterialHandler) adjust(c *gin.Context, fn adjustFunc) {
	actorID, ok := h.actorID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req ledger.AdjustStockRequest
	if !h.bindJSON(c, &req) {
		return
	}

	entry, err := fn(c.Request.Context(), id, req, actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, entry)
}

// EntriesForSource returns every ledger entry written by one source document
func (h *MaterialHandler) EntriesForSource(c *gin.Context) {
	var query struct {
		SourceType string `form:"source_type" binding:"required,oneof=ACQUISITION_RECEIPT RECYCLABLE_PROCESSING PRODUCTION_CONSUMPTION PRODUCTION_OUTPUT MANUAL_ADJUSTMENT"`
		SourceID   string `form:"source_id" binding:"required,uuid"`
	}
	if !h.bindQuery(c, &query) {
		return
	}

	entries, err := h.ledger.EntriesForSource(c.Request.Context(), material.SourceType(query.SourceType), uuid.MustParse(query.SourceID))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entries)
}
