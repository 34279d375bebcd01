package rest

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/legendik/volta-bridge/internal/api/websocket"
	"github.com/legendik/volta-bridge/internal/types"
	"github.com/legendik/volta-bridge/internal/volta"
)

// GET /api/v1/boiler/snapshot
func (s *Server) getSnapshot(c *gin.Context) {
	coord := s.lm.Coordinator()

	snap := coord.Snapshot()
	if snap == nil {
		c.JSON(http.StatusServiceUnavailable, types.NewErrorResponse(
			"BOILER_503", "No data polled yet", nil))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"available":     coord.Available(),
		"ch2_available": coord.CH2Available(),
		"values":        snap,
		"timestamp":     time.Now().Unix(),
	})
}

// GET /api/v1/boiler/values/:key
func (s *Server) getValue(c *gin.Context) {
	key := c.Param("key")

	if _, ok := s.lm.Capabilities().Lookup(key); !ok {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(
			"BOILER_404", "Unknown value key", key))
		return
	}

	coord := s.lm.Coordinator()
	snap := coord.Snapshot()
	value, present := snap[key]
	if !present {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(
			"BOILER_404", "Value not present in current snapshot", key))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"key":       key,
		"value":     value,
		"available": coord.Available(),
		"timestamp": time.Now().Unix(),
	})
}

// GET /api/v1/boiler/capabilities
func (s *Server) listCapabilities(c *gin.Context) {
	caps := s.lm.Capabilities().Available(s.lm.Coordinator().CH2Available())

	c.JSON(http.StatusOK, gin.H{
		"capabilities": caps,
		"count":        len(caps),
	})
}

// PUT /api/v1/boiler/values/:key
func (s *Server) writeValue(c *gin.Context) {
	key := c.Param("key")

	var req struct {
		Value any `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(
			"BOILER_400", "Invalid request body", err.Error()))
		return
	}

	var value float64
	switch v := req.Value.(type) {
	case float64:
		value = v
	case bool:
		if v {
			value = 1
		}
	default:
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(
			"BOILER_400", "Value must be a number or boolean", nil))
		return
	}

	err := s.lm.Coordinator().WriteValue(c.Request.Context(), key, value)
	s.lm.Metrics().RecordWrite(err)
	if err != nil {
		s.writeError(c, key, err)
		return
	}

	s.wsHub.Broadcast(websocket.NewValueWrittenMessage(key, value))

	c.JSON(http.StatusOK, gin.H{
		"message": "Value written successfully",
		"key":     key,
		"value":   value,
	})
}

// writeError maps the pipeline error taxonomy onto HTTP status codes.
func (s *Server) writeError(c *gin.Context, key string, err error) {
	switch {
	case errors.Is(err, volta.ErrValidation):
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(
			"BOILER_400", "Validation failed", err.Error()))
	case errors.Is(err, volta.ErrConnection):
		c.JSON(http.StatusServiceUnavailable, types.NewErrorResponse(
			"BOILER_503", "Boiler not reachable", err.Error()))
	case errors.Is(err, volta.ErrAuth), errors.Is(err, volta.ErrModbus):
		c.JSON(http.StatusBadGateway, types.NewErrorResponse(
			"BOILER_502", "Boiler rejected the operation", err.Error()))
	default:
		s.logger.Error("Unexpected write error",
			zap.String("key", key), zap.Error(err))
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(
			"BOILER_500", "Write failed", err.Error()))
	}
}
