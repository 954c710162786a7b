package persistence

import (
	"testing"

	"github.com/matflow/backend/internal/domain/shared"
	"github.com/matflow/backend/internal/infrastructure/persistence/models"
	"github.com/matflow/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestValidateSortOrder(t *testing.T) {
	tests := map[string]string{
		"":                          "DESC",
		"asc":                       "ASC",
		"  ASC ":                    "ASC",
		"desc":                      "DESC",
		"sideways":                  "DESC",
		"ASC; DROP TABLE materials": "DESC",
	}
	for input, want := range tests {
		assert.Equal(t, want, ValidateSortOrder(input), "input %q", input)
	}
}

func TestValidateSortField(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"whitelisted", "quantity", "quantity"},
		{"trimmed", "  name ", "name"},
		{"empty", "", "created_at"},
		{"unknown column", "password", "created_at"},
		{"case sensitive", "NAME", "created_at"},
		{"injection", "name; DROP TABLE materials;--", "created_at"},
		{"subquery", "id, (SELECT quantity FROM materials)", "created_at"},
		{"comment", "id/**/", "created_at"},
		{"expression", "CASE WHEN 1=1 THEN id ELSE name END", "created_at"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateSortField(tt.input, MaterialSortFields, "created_at"))
		})
	}
}

func TestSortWhitelists(t *testing.T) {
	for name, whitelist := range map[string]map[string]bool{
		"materials":        MaterialSortFields,
		"acquisitions":     AcquisitionSortFields,
		"production plans": ProductionPlanSortFields,
	} {
		for _, field := range []string{"id", "created_at", "updated_at"} {
			assert.True(t, whitelist[field], "%s should sort by %s", name, field)
		}
	}
	assert.True(t, LedgerEntrySortFields["occurred_at"])
	assert.False(t, LedgerEntrySortFields["updated_at"], "ledger entries are immutable")
	assert.True(t, ProductTemplateSortFields["target_material_id"])
	assert.False(t, ProductTemplateSortFields["id"])
}

func TestApplyPaging(t *testing.T) {
	db := testutil.NewSQLiteDB(t)

	render := func(filter shared.Filter) string {
		return db.ToSQL(func(tx *gorm.DB) *gorm.DB {
			var rows []models.MaterialModel
			return applyPaging(tx.Model(&models.MaterialModel{}), filter, MaterialSortFields, "created_at").Find(&rows)
		})
	}

	t.Run("defaults with stable tiebreak", func(t *testing.T) {
		sql := render(shared.Filter{})
		assert.Contains(t, sql, "ORDER BY created_at DESC,id ASC")
		assert.NotContains(t, sql, "LIMIT")
	})

	t.Run("page two", func(t *testing.T) {
		sql := render(shared.Filter{Page: 2, PageSize: 20, OrderBy: "name", OrderDir: "asc"})
		assert.Contains(t, sql, "ORDER BY name ASC,id ASC")
		assert.Contains(t, sql, "LIMIT 20 OFFSET 20")
	})

	t.Run("id needs no tiebreak", func(t *testing.T) {
		sql := render(shared.Filter{OrderBy: "id"})
		assert.Contains(t, sql, "ORDER BY id DESC")
		assert.NotContains(t, sql, "id ASC")
	})

	t.Run("rejected column falls back", func(t *testing.T) {
		sql := render(shared.Filter{OrderBy: "quantity; DELETE FROM materials"})
		assert.Contains(t, sql, "ORDER BY created_at DESC")
		assert.NotContains(t, sql, "DELETE")
	})
}

func TestLikePattern(t *testing.T) {
	tests := map[string]string{
		"  Steel Rod ": "%steel rod%",
		"50%":          `%50\%%`,
		"steel_rod":    `%steel\_rod%`,
		`a\b`:          `%a\\b%`,
	}
	for search, want := range tests {
		assert.Equal(t, want, likePattern(search), search)
	}
}

func TestLikeClause(t *testing.T) {
	assert.Equal(t, `LOWER(title) LIKE ? ESCAPE '\'`, likeClause("title"))
	assert.Equal(t, `LOWER(name) LIKE ? ESCAPE '\' OR LOWER(color) LIKE ? ESCAPE '\'`, likeClause("name", "color"))
}
