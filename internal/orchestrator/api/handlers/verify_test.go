package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proof-of-inference/avs-backend/internal/orchestrator/core/pipeline"
	"github.com/proof-of-inference/avs-backend/pkg/logging"
	"github.com/proof-of-inference/avs-backend/pkg/types"
)

type stubProcessor struct {
	mu       sync.Mutex
	response types.TaskResponse
	calls    int
}

func (s *stubProcessor) Process(ctx context.Context, task types.TaskRequest) types.TaskResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	response := s.response
	response.RequestID = task.RequestID
	return response
}

func setupRouter(processor TaskProcessor, store *pipeline.ResultStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewTaskHandler(logging.NewNoopLogger(), processor, store, 4)
	router := gin.New()
	router.POST("/verify", handler.VerifyTask)
	router.GET("/status/:id", handler.TaskStatus)
	return router
}

func TestVerifyTask(t *testing.T) {
	processor := &stubProcessor{response: types.TaskResponse{
		Status:          types.StatusVerified,
		IsValid:         true,
		Confidence:      9000,
		AttestationHash: "0xhash",
	}}
	store := pipeline.NewResultStore()
	router := setupRouter(processor, store)

	body, _ := json.Marshal(types.TaskRequest{
		RequestID: 7,
		ModelID:   "gpt-4",
		InputData: "What is 2+2?",
		Agent:     "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/verify", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response types.TaskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, uint64(7), response.RequestID)
	assert.Equal(t, types.StatusVerified, response.Status)
	assert.Equal(t, 1, processor.calls)

	// Result is retrievable afterwards
	stored, ok := store.Get(7)
	require.True(t, ok)
	assert.Equal(t, types.StatusVerified, stored.Status)
}

func TestVerifyTaskBusinessRejectionIsHTTP200(t *testing.T) {
	processor := &stubProcessor{response: types.TaskResponse{
		Status: types.StatusRejected,
		Reason: "requester trust score below minimum",
	}}
	router := setupRouter(processor, pipeline.NewResultStore())

	body, _ := json.Marshal(types.TaskRequest{RequestID: 8, ModelID: "gpt-4"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/verify", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response types.TaskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, types.StatusRejected, response.Status)
	assert.Equal(t, "requester trust score below minimum", response.Reason)
}

func TestVerifyTaskMalformedBody(t *testing.T) {
	processor := &stubProcessor{}
	router := setupRouter(processor, pipeline.NewResultStore())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/verify", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, processor.calls)
}

func TestTaskStatus(t *testing.T) {
	store := pipeline.NewResultStore()
	store.Put(types.TaskResponse{RequestID: 7, Status: types.StatusVerified})
	router := setupRouter(&stubProcessor{}, store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status/7", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var response types.TaskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, uint64(7), response.RequestID)
	assert.Equal(t, types.StatusVerified, response.Status)
}

func TestTaskStatusNotFound(t *testing.T) {
	router := setupRouter(&stubProcessor{}, pipeline.NewResultStore())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status/99", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "not_found", body["status"])
}

func TestTaskStatusInvalidID(t *testing.T) {
	router := setupRouter(&stubProcessor{}, pipeline.NewResultStore())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status/not-a-number", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewHealthHandler(logging.NewNoopLogger())
	router := gin.New()
	router.GET("/health", handler.Check)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, serviceName, body["service"])
	assert.NotEmpty(t, body["timestamp"])
}
