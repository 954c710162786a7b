package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	productionapp "github.com/matflow/backend/internal/application/production"
)

// ProductionPlanHandler serves production plans, from drafting through completion
type ProductionPlanHandler struct {
	BaseHandler
	planner  *productionapp.PlannerService
	receiver *productionapp.ReceiverService
}

// NewProductionPlanHandler creates a new ProductionPlanHandler
func NewProductionPlanHandler(planner *productionapp.PlannerService, receiver *productionapp.ReceiverService) *ProductionPlanHandler {
	return &ProductionPlanHandler{planner: planner, receiver: receiver}
}

// Create stores a new draft plan, optionally writing its inputs back to the target's template
func (h *ProductionPlanHandler) Create(c *gin.Context) {
	actorID, ok := h.actorID(c)
	if !ok {
		return
	}
	var req productionapp.CreatePlanRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.planner.CreatePlan(c.Request.Context(), req, actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List returns a filtered page of plans
func (h *ProductionPlanHandler) List(c *gin.Context) {
	var filter productionapp.PlanListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	var ok bool
	if filter.TargetMaterialID, ok = h.queryID(c, "target_material_id"); !ok {
		return
	}
	filter.Page, filter.PageSize = page(filter.Page, filter.PageSize)

	items, total, err := h.planner.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// Get returns one plan with its material lines
func (h *ProductionPlanHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	resp, err := h.planner.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Update edits a draft or planned plan
func (h *ProductionPlanHandler) Update(c *gin.Context) {
	actorID, ok := h.actorID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req productionapp.UpdatePlanRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.planner.UpdatePlan(c.Request.Context(), id, req, actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Schedule moves a draft plan to planned
func (h *ProductionPlanHandler) Schedule(c *gin.Context) {
	h.transition(c, func(ctx context.Context, id, _ uuid.UUID) (*productionapp.PlanResponse, error) {
		return h.planner.Schedule(ctx, id)
	})
}

// CheckAvailability refreshes the stock snapshot of every input line
func (h *ProductionPlanHandler) CheckAvailability(c *gin.Context) {
	h.transition(c, func(ctx context.Context, id, _ uuid.UUID) (*productionapp.PlanResponse, error) {
		return h.planner.CheckAvailability(ctx, id)
	})
}

// Start moves a plan to in progress once every input is available
func (h *ProductionPlanHandler) Start(c *gin.Context) {
	h.transition(c, h.planner.Start)
}

// Cancel cancels a plan that has not completed
func (h *ProductionPlanHandler) Cancel(c *gin.Context) {
	h.transition(c, h.planner.Cancel)
}

// transition runs a body-less plan operation for the acting user
func (h *ProductionPlanHandler) transition(c *gin.Context, fn func(ctx context.Context, id, actorID uuid.UUID) (*productionapp.PlanResponse, error)) {
	actorID, ok := h.actorID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	resp, err := fn(c.Request.Context(), id, actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Complete consumes the inputs and credits the outputs of an in-progress plan
func (h *ProductionPlanHandler) Complete(c *gin.Context) {
	actorID, ok := h.actorID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req productionapp.CompletePlanRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.receiver.Complete(c.Request.Context(), id, req, actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
