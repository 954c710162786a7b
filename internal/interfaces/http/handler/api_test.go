package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	acquisitionapp "github.com/matflow/backend/internal/application/acquisition"
	ledgerapp "github.com/matflow/backend/internal/application/ledger"
	productionapp "github.com/matflow/backend/internal/application/production"
	"github.com/matflow/backend/internal/infrastructure/auth"
	"github.com/matflow/backend/internal/infrastructure/cache"
	"github.com/matflow/backend/internal/infrastructure/config"
	"github.com/matflow/backend/internal/interfaces/http/dto"
	"github.com/matflow/backend/internal/interfaces/http/handler"
	"github.com/matflow/backend/internal/interfaces/http/middleware"
	"github.com/matflow/backend/internal/interfaces/http/router"
	"github.com/matflow/backend/internal/testutil"
	"github.com/matflow/backend/internal/testutil/apptest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var validatorOnce sync.Once

// testAPI serves the versioned routes over real services and an in-memory database
type testAPI struct {
	stack  *apptest.Stack
	engine *gin.Engine
	actor  uuid.UUID
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validatorOnce.Do(middleware.SetupValidator)

	s := apptest.New(t, nil)
	log := zap.NewNop()
	ledgerSvc := ledgerapp.NewService(s.Runner, s.Materials, s.Entries, ledgerapp.Options{}, log)
	lifecycle := acquisitionapp.NewLifecycleService(s.Runner, s.Acquisitions, s.Materials, log)
	processor := acquisitionapp.NewProcessorService(s.Runner, s.Acquisitions, s.Processed, acquisitionapp.ProcessorOptions{}, log)
	planner := productionapp.NewPlannerService(s.Runner, s.Plans, s.Templates, s.Materials, productionapp.PlannerOptions{}, log)
	receiver := productionapp.NewReceiverService(s.Runner, s.Plans, productionapp.ReceiverOptions{}, log)

	engine := gin.New()
	engine.Use(middleware.RequestID())

	jwtCfg := middleware.DefaultJWTConfig(auth.NewTokenValidator(config.JWTConfig{Secret: "test-secret", Issuer: "matflow"}))
	jwtCfg.AllowHeaderActor = true
	idempotency := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = idempotency.Close() })
	r := router.NewRouter(engine).
		Use(middleware.JWTAuth(jwtCfg)).
		Use(middleware.Idempotency(middleware.IdempotencyConfig{Store: idempotency}))
	router.RegisterAPI(r, router.Handlers{
		Materials:    handler.NewMaterialHandler(ledgerSvc),
		Acquisitions: handler.NewAcquisitionHandler(lifecycle, processor),
		Plans:        handler.NewProductionPlanHandler(planner, receiver),
		Templates:    handler.NewTemplateHandler(planner),
	}).Setup()

	return &testAPI{stack: s, engine: engine, actor: testutil.TestActorID()}
}

// do sends a JSON request as the test actor
func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return a.doAs(t, a.actor, method, path, body)
}

// doAs sends a JSON request; a nil actor sends no identity at all
func (a *testAPI) doAs(t *testing.T, actor uuid.UUID, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return a.send(t, actor, method, path, body, nil)
}

func (a *testAPI) send(t *testing.T, actor uuid.UUID, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if actor != uuid.Nil {
		req.Header.Set(middleware.UserIDHeader, actor.String())
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

type envelope[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data"`
	Error   *dto.ErrorInfo `json:"error"`
	Meta    *dto.Meta      `json:"meta"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

// errorCode returns the API error code of a failed response
func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	env := decode[json.RawMessage](t, w)
	require.NotNil(t, env.Error, w.Body.String())
	return env.Error.Code
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
