package handler

import (
	"github.com/gin-gonic/gin"
	acquisitionapp "github.com/matflow/backend/internal/application/acquisition"
)

// AcquisitionHandler serves acquisition documents and the processing of
// received recyclables
type AcquisitionHandler struct {
	BaseHandler
	lifecycle *acquisitionapp.LifecycleService
	processor *acquisitionapp.ProcessorService
}

// NewAcquisitionHandler creates a new AcquisitionHandler
func NewAcquisitionHandler(lifecycle *acquisitionapp.LifecycleService, processor *acquisitionapp.ProcessorService) *AcquisitionHandler {
	return &AcquisitionHandler{lifecycle: lifecycle, processor: processor}
}

// Create stores a new draft acquisition
func (h *AcquisitionHandler) Create(c *gin.Context) {
	actorID, ok := h.actorID(c)
	if !ok {
		return
	}
	var req acquisitionapp.CreateAcquisitionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.lifecycle.CreateDraft(c.Request.Context(), req, actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List returns a filtered page of acquisitions
func (h *AcquisitionHandler) List(c *gin.Context) {
	var filter acquisitionapp.AcquisitionListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	filter.Page, filter.PageSize = page(filter.Page, filter.PageSize)

	items, total, err := h.lifecycle.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// Get returns one acquisition with its items
func (h *AcquisitionHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	resp, err := h.lifecycle.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Update edits a draft acquisition
func (h *AcquisitionHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req acquisitionapp.UpdateAcquisitionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.lifecycle.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Receive records the delivered quantities and credits stock
func (h *AcquisitionHandler) Receive(c *gin.Context) {
	actorID, ok := h.actorID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req acquisitionapp.ReceiveRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.lifecycle.Receive(c.Request.Context(), id, req, actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Cancel cancels a draft acquisition
func (h *AcquisitionHandler) Cancel(c *gin.Context) {
	actorID, ok := h.actorID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	resp, err := h.lifecycle.Cancel(c.Request.Context(), id, actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Process turns received recyclables into raw-material stock
func (h *AcquisitionHandler) Process(c *gin.Context) {
	actorID, ok := h.actorID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req acquisitionapp.ProcessRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.processor.Process(c.Request.Context(), id, req, actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Processed returns the processing records of an acquisition and the
// per-item processed totals
func (h *AcquisitionHandler) Processed(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	resp, err := h.processor.GetProcessing(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
