package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// GET /api/v1/system/status
func (s *Server) getSystemStatus(c *gin.Context) {
	status := s.lm.GetCurrentStatus()
	c.JSON(http.StatusOK, status)
}

// POST /api/v1/system/reset-error
func (s *Server) resetError(c *gin.Context) {
	if err := s.lm.ResetError(c.Request.Context()); err != nil {
		s.writeError(c, "error_code", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Error acknowledged",
	})
}

// POST /api/v1/system/restart-device
func (s *Server) restartDevice(c *gin.Context) {
	if err := s.lm.RestartDevice(c.Request.Context()); err != nil {
		s.writeError(c, "restart_device", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Device restart initiated",
	})
}

// POST /api/v1/system/shutdown
func (s *Server) shutdown(c *gin.Context) {
	c.JSON(http.StatusAccepted, gin.H{
		"message": "Shutdown initiated",
	})

	// Trigger shutdown in background
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.lm.Shutdown(ctx)
	}()
}
