package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tracedRow struct {
	ID   uint
	Name string
}

func newTracedDB(t *testing.T, cfg DBTracingConfig) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, RegisterDBTracing(db, cfg, zap.NewNop()))
	require.NoError(t, db.AutoMigrate(&tracedRow{}))
	return db
}

func TestRegisterDBTracing_RecordsStatements(t *testing.T) {
	recorder := useSpanRecorder(t)
	db := newTracedDB(t, DBTracingConfig{Enabled: true, DBName: "matflow"})

	require.NoError(t, db.WithContext(context.Background()).Create(&tracedRow{Name: "steel"}).Error)

	var inserts int
	for _, s := range recorder.Ended() {
		for _, kv := range s.Attributes() {
			if kv.Key == "db.sql.table" && kv.Value.AsString() == "traced_rows" {
				inserts++
			}
		}
	}
	assert.NotZero(t, inserts, "statement spans carry the table name")
}

func TestRegisterDBTracing_FlagsSlowQueries(t *testing.T) {
	recorder := useSpanRecorder(t)
	db := newTracedDB(t, DBTracingConfig{Enabled: true, SlowQueryThresh: 1})

	var rows []tracedRow
	require.NoError(t, db.WithContext(context.Background()).Find(&rows).Error)

	var slow bool
	for _, s := range recorder.Ended() {
		for _, kv := range s.Attributes() {
			if kv == attribute.Bool("db.slow_query", true) {
				slow = true
			}
		}
	}
	assert.True(t, slow)
}

func TestRegisterDBTracing_Disabled(t *testing.T) {
	recorder := useSpanRecorder(t)
	db := newTracedDB(t, DBTracingConfig{})

	require.NoError(t, db.Create(&tracedRow{Name: "steel"}).Error)
	assert.Empty(t, recorder.Ended())
}
