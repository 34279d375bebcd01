package interfaces

import (
	"context"

	"github.com/legendik/volta-bridge/internal/capabilities"
	"github.com/legendik/volta-bridge/internal/config"
	"github.com/legendik/volta-bridge/internal/coordinator"
	"github.com/legendik/volta-bridge/internal/metrics"
)

// SystemStatus represents the current bridge state
type SystemStatus struct {
	State              string `json:"state"`
	DeviceAvailable    bool   `json:"device_available"`
	CH2Available       bool   `json:"ch2_available"`
	LastSuccessfulPoll int64  `json:"last_successful_poll,omitempty"`
	WebsocketClients   int    `json:"websocket_clients"`
}

type LifecycleManager interface {
	Config() *config.Config
	Coordinator() *coordinator.Coordinator
	Capabilities() *capabilities.Set
	Metrics() *metrics.Metrics
	GetCurrentStatus() SystemStatus
	ResetError(ctx context.Context) error
	RestartDevice(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
