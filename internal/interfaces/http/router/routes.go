package router

import (
	"github.com/matflow/backend/internal/interfaces/http/handler"
)

// Handlers holds the HTTP handlers served under the versioned API
type Handlers struct {
	Materials    *handler.MaterialHandler
	Acquisitions *handler.AcquisitionHandler
	Plans        *handler.ProductionPlanHandler
	Templates    *handler.TemplateHandler
}

// MaterialRoutes covers the ledger: materials, their stock and entries
func MaterialRoutes(h *handler.MaterialHandler) *DomainGroup {
	g := NewDomainGroup("materials", "/materials")
	g.POST("", h.Create).
		GET("", h.List).
		GET("/low-stock", h.ListLowStock).
		GET("/valuation", h.Valuation).
		GET("/:id", h.Get).
		PUT("/:id", h.Update).
		GET("/:id/entries", h.Entries).
		POST("/:id/credit", h.Credit).
		POST("/:id/debit", h.Debit)
	return g
}

// LedgerEntryRoutes looks up entries by the document that wrote them
func LedgerEntryRoutes(h *handler.MaterialHandler) *DomainGroup {
	g := NewDomainGroup("ledger-entries", "/ledger-entries")
	g.GET("", h.EntriesForSource)
	return g
}

// AcquisitionRoutes covers acquisitions and recyclable processing
func AcquisitionRoutes(h *handler.AcquisitionHandler) *DomainGroup {
	g := NewDomainGroup("acquisitions", "/acquisitions")
	g.POST("", h.Create).
		GET("", h.List).
		GET("/:id", h.Get).
		PUT("/:id", h.Update).
		POST("/:id/receive", h.Receive).
		POST("/:id/cancel", h.Cancel).
		POST("/:id/process", h.Process).
		GET("/:id/processed", h.Processed)
	return g
}

// ProductionPlanRoutes covers the plan lifecycle through completion
func ProductionPlanRoutes(h *handler.ProductionPlanHandler) *DomainGroup {
	g := NewDomainGroup("production-plans", "/production-plans")
	g.POST("", h.Create).
		GET("", h.List).
		GET("/:id", h.Get).
		PUT("/:id", h.Update).
		POST("/:id/schedule", h.Schedule).
		POST("/:id/availability", h.CheckAvailability).
		POST("/:id/start", h.Start).
		POST("/:id/cancel", h.Cancel).
		POST("/:id/complete", h.Complete)
	return g
}

// TemplateRoutes covers product templates, keyed by target material
func TemplateRoutes(h *handler.TemplateHandler) *DomainGroup {
	g := NewDomainGroup("product-templates", "/product-templates")
	g.GET("", h.List).
		GET("/:materialId", h.Load).
		PUT("/:materialId", h.Save).
		POST("/:materialId/drift", h.Drift)
	return g
}

// RegisterAPI registers every resource group on r
func RegisterAPI(r *Router, h Handlers) *Router {
	return r.Register(MaterialRoutes(h.Materials)).
		Register(LedgerEntryRoutes(h.Materials)).
		Register(AcquisitionRoutes(h.Acquisitions)).
		Register(ProductionPlanRoutes(h.Plans)).
		Register(TemplateRoutes(h.Templates))
}
