package handler

import (
	"github.com/gin-gonic/gin"
	productionapp "github.com/matflow/backend/internal/application/production"
	"github.com/matflow/backend/internal/interfaces/http/dto"
)

// TemplateHandler serves product templates: the remembered material list of a target
type TemplateHandler struct {
	BaseHandler
	planner *productionapp.PlannerService
}

// NewTemplateHandler creates a new TemplateHandler
func NewTemplateHandler(planner *productionapp.PlannerService) *TemplateHandler {
	return &TemplateHandler{planner: planner}
}

// List returns a page of templates
func (h *TemplateHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if !h.bindQuery(c, &req) {
		return
	}
	req.Normalize()

	items, total, err := h.planner.ListTemplates(c.Request.Context(), req.Page, req.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, req.Page, req.PageSize)
}

// Load returns the template of a target material. A missing template is
// reported in the body, not as 404.
func (h *TemplateHandler) Load(c *gin.Context) {
	targetID, ok := h.pathID(c, "materialId")
	if !ok {
		return
	}

	resp, err := h.planner.LoadTemplate(c.Request.Context(), targetID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Save overwrites a target's template with the inputs of one of its plans
func (h *TemplateHandler) Save(c *gin.Context) {
	actorID, ok := h.actorID(c)
	if !ok {
		return
	}
	targetID, ok := h.pathID(c, "materialId")
	if !ok {
		return
	}
	var req productionapp.SaveTemplateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.planner.SaveTemplate(c.Request.Context(), targetID, req, actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Drift reports whether candidate lines differ from the target's template
func (h *TemplateHandler) Drift(c *gin.Context) {
	targetID, ok := h.pathID(c, "materialId")
	if !ok {
		return
	}
	var req productionapp.DriftRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.planner.CheckDrift(c.Request.Context(), targetID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
