package persistence

import (
	"strings"

	"github.com/matflow/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder normalizes the sort order to ASC or DESC, defaulting to DESC.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when it is whitelisted, else defaultField.
// Only whitelisted column names ever reach ORDER BY.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	if trimmed := strings.TrimSpace(sortField); allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// applyPaging applies a whitelisted ordering and, when PageSize > 0, offset/limit.
// A PageSize of 0 returns every matching row.
func applyPaging(query *gorm.DB, filter shared.Filter, allowed map[string]bool, defaultField string) *gorm.DB {
	field := ValidateSortField(filter.OrderBy, allowed, defaultField)
	query = query.Order(field + " " + ValidateSortOrder(filter.OrderDir))
	if field != "id" && allowed["id"] {
		// stable order for rows sharing the sort key
		query = query.Order("id ASC")
	}
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// likePattern builds a case-insensitive LIKE pattern matching search as a
// literal substring. Use it with likeClause, which declares the escape character.
func likePattern(search string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(search))) + "%"
}

// likeClause matches any of the columns, lowercased, against one likePattern each
func likeClause(columns ...string) string {
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = "LOWER(" + col + `) LIKE ? ESCAPE '\'`
	}
	return strings.Join(parts, " OR ")
}

// MaterialSortFields contains allowed sort fields for materials
var MaterialSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"name":          true,
	"kind":          true,
	"quantity":      true,
	"minimum_stock": true,
	"unit_cost":     true,
}

// LedgerEntrySortFields contains allowed sort fields for ledger entries
var LedgerEntrySortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"occurred_at": true,
	"quantity":    true,
	"source_type": true,
}

// AcquisitionSortFields contains allowed sort fields for acquisitions
var AcquisitionSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"title":      true,
	"kind":       true,
	"status":     true,
	"due_date":   true,
}

// ProductionPlanSortFields contains allowed sort fields for production plans
var ProductionPlanSortFields = map[string]bool{
	"id":                  true,
	"created_at":          true,
	"updated_at":          true,
	"name":                true,
	"variant":             true,
	"status":              true,
	"planned_start_date":  true,
	"quantity_to_produce": true,
}

// ProductTemplateSortFields contains allowed sort fields for product templates
var ProductTemplateSortFields = map[string]bool{
	"target_material_id": true,
	"created_at":         true,
	"updated_at":         true,
}
