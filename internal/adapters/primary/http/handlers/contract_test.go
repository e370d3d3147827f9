package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"emulator-service/internal/adapters/primary/http/middleware"
	"emulator-service/internal/core/domain"
	"emulator-service/internal/core/services"
	"emulator-service/internal/testutil"
)

// setupContractRouter builds the full stack the way main does, including the
// request-id middleware, so header and body contracts are both covered.
func setupContractRouter(apiKey string) (*testutil.MockDatasetRepo, *testutil.MockEmulatorRepo, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	datasetRepo := new(testutil.MockDatasetRepo)
	emulatorRepo := new(testutil.MockEmulatorRepo)

	datasetSvc := services.NewDatasetService(datasetRepo, emulatorRepo)
	emulatorSvc := services.NewEmulatorService(emulatorRepo, datasetRepo, &stubQueue{})

	h := New(datasetSvc, emulatorSvc)
	r := gin.New()
	r.Use(middleware.RequestID())

	api := r.Group("/api/v1")
	if apiKey != "" {
		api.Use(middleware.APIKey(apiKey))
	}
	h.RegisterRoutes(api)

	return datasetRepo, emulatorRepo, r
}

// ---------------------------------------------------------------------------
// Helper: assert JSON field exists and has expected type
// ---------------------------------------------------------------------------

func assertFieldString(t *testing.T, resp map[string]interface{}, key string) {
	t.Helper()
	val, ok := resp[key]
	assert.True(t, ok, "response missing field %q", key)
	if ok {
		_, isStr := val.(string)
		assert.True(t, isStr, "field %q should be string, got %T", key, val)
	}
}

func assertFieldNumber(t *testing.T, resp map[string]interface{}, key string) {
	t.Helper()
	val, ok := resp[key]
	assert.True(t, ok, "response missing field %q", key)
	if ok {
		_, isNum := val.(float64)
		assert.True(t, isNum, "field %q should be number, got %T", key, val)
	}
}

func assertFieldMap(t *testing.T, resp map[string]interface{}, key string) {
	t.Helper()
	val, ok := resp[key]
	assert.True(t, ok, "response missing field %q", key)
	if ok && val != nil {
		_, isMap := val.(map[string]interface{})
		assert.True(t, isMap, "field %q should be object/map, got %T", key, val)
	}
}

func assertFieldArray(t *testing.T, resp map[string]interface{}, key string) {
	t.Helper()
	val, ok := resp[key]
	assert.True(t, ok, "response missing field %q", key)
	if ok {
		_, isArr := val.([]interface{})
		assert.True(t, isArr, "field %q should be array, got %T", key, val)
	}
}

// assertDatasetFields checks the fields the SDK decodes from a dataset body.
func assertDatasetFields(t *testing.T, resp map[string]interface{}) {
	t.Helper()
	assertFieldString(t, resp, "id")
	assertFieldString(t, resp, "name")
	assertFieldArray(t, resp, "columns")
	assertFieldNumber(t, resp, "row_count")
	assertFieldNumber(t, resp, "size_bytes")
	assertFieldString(t, resp, "created_at")
	assertFieldString(t, resp, "updated_at")
}

// assertEmulatorFields checks the fields the SDK decodes from an emulator body.
func assertEmulatorFields(t *testing.T, resp map[string]interface{}) {
	t.Helper()
	assertFieldString(t, resp, "id")
	assertFieldString(t, resp, "name")
	assertFieldString(t, resp, "dataset")
	assertFieldArray(t, resp, "inputs")
	assertFieldArray(t, resp, "outputs")
	assertFieldMap(t, resp, "params")
	assertFieldString(t, resp, "status")
	assertFieldString(t, resp, "created_at")
	assertFieldString(t, resp, "updated_at")

	params := resp["params"].(map[string]interface{})
	assertFieldString(t, params, "estimator")
	assertFieldNumber(t, params, "train_test_ratio")
	assertFieldNumber(t, params, "ridge_alpha")
	assertFieldNumber(t, params, "seed")
}

func assertListEnvelope(t *testing.T, resp map[string]interface{}) {
	t.Helper()
	assertFieldArray(t, resp, "items")
	assertFieldNumber(t, resp, "total")
	assertFieldNumber(t, resp, "page_size")
	assertFieldNumber(t, resp, "next_offset")
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body []byte) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	resp := map[string]interface{}{}
	if len(w.Body.Bytes()) > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func TestContract_DatasetBody(t *testing.T) {
	datasetRepo, _, r := setupContractRouter("")
	datasetRepo.On("GetByName", mock.Anything, "demo").Return(demoDataset(t), nil)

	w, resp := doJSON(t, r, "GET", "/api/v1/datasets/demo", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assertDatasetFields(t, resp)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestContract_DatasetList(t *testing.T) {
	datasetRepo, _, r := setupContractRouter("")
	datasetRepo.On("List", mock.Anything, mock.AnythingOfType("ports.ListFilter")).
		Return([]*domain.Dataset{demoDataset(t)}, 1, nil)

	w, resp := doJSON(t, r, "GET", "/api/v1/datasets", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assertListEnvelope(t, resp)

	items := resp["items"].([]interface{})
	require.Len(t, items, 1)
	assertDatasetFields(t, items[0].(map[string]interface{}))
}

func TestContract_DatasetSummary(t *testing.T) {
	datasetRepo, _, r := setupContractRouter("")
	datasetRepo.On("GetByName", mock.Anything, "demo").Return(demoDataset(t), nil)

	w, resp := doJSON(t, r, "GET", "/api/v1/datasets/demo/summary", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assertFieldMap(t, resp, "dataset")
	assertFieldArray(t, resp, "columns")

	assertDatasetFields(t, resp["dataset"].(map[string]interface{}))

	columns := resp["columns"].([]interface{})
	require.NotEmpty(t, columns)
	col := columns[0].(map[string]interface{})
	assertFieldString(t, col, "column")
	for _, key := range []string{"count", "mean", "std", "min", "q25", "median", "q75", "max"} {
		assertFieldNumber(t, col, key)
	}
}

func TestContract_EmulatorBody(t *testing.T) {
	_, emulatorRepo, r := setupContractRouter("")
	emulatorRepo.On("GetByName", mock.Anything, "emu").Return(demoEmulator(domain.EmulatorStatusReady), nil)

	w, resp := doJSON(t, r, "GET", "/api/v1/emulators/emu", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assertEmulatorFields(t, resp)
	assertFieldString(t, resp, "trained_at")
	assertFieldNumber(t, resp, "train_duration_ms")
}

func TestContract_EmulatorStatus(t *testing.T) {
	_, emulatorRepo, r := setupContractRouter("")
	emulatorRepo.On("GetByName", mock.Anything, "emu").Return(demoEmulator(domain.EmulatorStatusReady), nil)

	w, resp := doJSON(t, r, "GET", "/api/v1/emulators/emu/status", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assertFieldString(t, resp, "name")
	assertFieldString(t, resp, "status")
	assertFieldNumber(t, resp, "duration_ms")
}

func TestContract_EmulatorSummary(t *testing.T) {
	_, emulatorRepo, r := setupContractRouter("")
	emulatorRepo.On("GetByName", mock.Anything, "emu").Return(demoEmulator(domain.EmulatorStatusReady), nil)

	w, resp := doJSON(t, r, "GET", "/api/v1/emulators/emu/summary", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assertEmulatorFields(t, resp)
	assertFieldMap(t, resp, "metrics")
	assertFieldNumber(t, resp, "train_rows")
	assertFieldNumber(t, resp, "holdout_rows")
}

func TestContract_Prediction(t *testing.T) {
	_, emulatorRepo, r := setupContractRouter("")
	emulatorRepo.On("GetByName", mock.Anything, "emu").Return(demoEmulator(domain.EmulatorStatusReady), nil)

	req, _ := http.NewRequest("POST", "/api/v1/emulators/emu/predict", strings.NewReader("x\n1\n"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assertFieldMap(t, resp, "mean")
	assertFieldMap(t, resp, "std")

	for _, key := range []string{"mean", "std"} {
		table := resp[key].(map[string]interface{})
		assertFieldArray(t, table, "columns")
		assertFieldArray(t, table, "rows")
	}
}

func TestContract_ErrorEnvelope(t *testing.T) {
	datasetRepo, _, r := setupContractRouter("")
	datasetRepo.On("GetByName", mock.Anything, "missing").Return(nil, domain.ErrDatasetNotFound)

	w, resp := doJSON(t, r, "GET", "/api/v1/datasets/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assertFieldString(t, resp, "error")
}

func TestContract_APIKey(t *testing.T) {
	datasetRepo, _, r := setupContractRouter("sekret")
	datasetRepo.On("List", mock.Anything, mock.AnythingOfType("ports.ListFilter")).
		Return([]*domain.Dataset{}, 0, nil)

	// Without the key.
	req, _ := http.NewRequest("GET", "/api/v1/datasets", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// With the wrong key.
	req, _ = http.NewRequest("GET", "/api/v1/datasets", nil)
	req.Header.Set("X-API-Key", "wrong")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// With the right key.
	req, _ = http.NewRequest("GET", "/api/v1/datasets", nil)
	req.Header.Set("X-API-Key", "sekret")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// Health stays open.
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	req, _ = http.NewRequest("GET", "/healthz", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
