package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/proof-of-inference/avs-backend/pkg/types"
)

// VerifyTask handles inbound verification task requests. Business outcomes
// (rejected, verification failed) are encoded in the response body with HTTP
// 200; HTTP errors are reserved for protocol-level failures.
func (h *TaskHandler) VerifyTask(c *gin.Context) {
	var task types.TaskRequest
	if err := c.ShouldBindJSON(&task); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Failed to parse request body: %v", err),
		})
		return
	}

	h.logger.Info("Received verification task", "requestId", task.RequestID, "modelId", task.ModelID)

	ctx := c.Request.Context()
	select {
	case h.sem <- struct{}{}:
		defer func() { <-h.sem }()
	case <-ctx.Done():
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "request cancelled while waiting for capacity",
		})
		return
	}

	response := h.processor.Process(ctx, task)
	h.store.Put(response)

	c.JSON(http.StatusOK, response)
}

// TaskStatus returns the most recent result for a request id
func (h *TaskHandler) TaskStatus(c *gin.Context) {
	requestID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Invalid request id: %v", err),
		})
		return
	}

	response, ok := h.store.Get(requestID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"requestId": requestID,
			"status":    "not_found",
			"message":   "Verification request not found",
		})
		return
	}

	c.JSON(http.StatusOK, response)
}
