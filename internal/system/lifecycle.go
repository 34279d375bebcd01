package system

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/legendik/volta-bridge/internal/api/rest"
	"github.com/legendik/volta-bridge/internal/api/websocket"
	"github.com/legendik/volta-bridge/internal/auth"
	"github.com/legendik/volta-bridge/internal/capabilities"
	"github.com/legendik/volta-bridge/internal/config"
	"github.com/legendik/volta-bridge/internal/coordinator"
	"github.com/legendik/volta-bridge/internal/interfaces"
	"github.com/legendik/volta-bridge/internal/metrics"
	"github.com/legendik/volta-bridge/internal/modbus"
	"github.com/legendik/volta-bridge/internal/mqtt"
)

// LifecycleManager wires the bridge together: register client,
// coordinator, API surfaces, MQTT mirror and metrics. It owns startup
// order and graceful shutdown fan-out.
type LifecycleManager struct {
	config       *config.Config
	coordinator  *coordinator.Coordinator
	capabilities *capabilities.Set
	authService  *auth.AuthService
	wsHub        *websocket.Hub
	metrics      *metrics.Metrics
	logger       *zap.Logger

	restServer    *rest.Server
	mqttPublisher *mqtt.Publisher

	pollCancel context.CancelFunc
	pollDone   chan struct{}

	stateMu      sync.RWMutex
	currentState SystemState

	shutdownOnce sync.Once
}

func NewLifecycleManager(cfg *config.Config, logger *zap.Logger) (*LifecycleManager, error) {
	caps, err := capabilities.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load capabilities: %w", err)
	}

	userStore, err := auth.LoadUserStore(cfg.Auth.UserFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load user store: %w", err)
	}

	authService := auth.NewAuthService(userStore, auth.Config{
		JWTSecret:       cfg.Auth.GetJWTSecret(),
		AccessTokenTTL:  cfg.Auth.AccessTokenTTL,
		RefreshTokenTTL: cfg.Auth.RefreshTokenTTL,
	}, logger)

	client, err := modbus.NewClient(modbus.Config{
		Host:    cfg.Boiler.Host,
		Port:    cfg.Boiler.Port,
		UnitID:  cfg.Boiler.UnitID,
		Timeout: cfg.Boiler.Timeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create register client: %w", err)
	}

	return &LifecycleManager{
		config:       cfg,
		coordinator:  coordinator.New(client, cfg.Boiler.PollInterval, logger),
		capabilities: caps,
		authService:  authService,
		wsHub:        websocket.NewHub(logger, authService),
		metrics:      metrics.New(),
		logger:       logger,
		currentState: StateInitializing,
		pollDone:     make(chan struct{}),
	}, nil
}

// Start starts the entire bridge
func (lm *LifecycleManager) Start() error {
	lm.logger.Info("Starting volta-bridge")

	go lm.wsHub.Run()
	lm.coordinator.Subscribe(lm.wsHub)
	lm.coordinator.Subscribe(lm.metrics)

	if lm.config.MQTT.Enabled {
		publisher, err := mqtt.Connect(mqtt.Config{
			Broker:      lm.config.MQTT.Broker,
			ClientID:    lm.config.MQTT.ClientID,
			Username:    lm.config.MQTT.Username,
			Password:    lm.config.MQTT.Password,
			TopicPrefix: lm.config.MQTT.TopicPrefix,
		}, lm.logger)
		if err != nil {
			lm.setState(StateError)
			return fmt.Errorf("failed to start MQTT publisher: %w", err)
		}
		lm.mqttPublisher = publisher
		lm.coordinator.Subscribe(publisher)
	}

	// Poll loop runs until shutdown cancels its context.
	var pollCtx context.Context
	pollCtx, lm.pollCancel = context.WithCancel(context.Background())
	go func() {
		defer close(lm.pollDone)
		lm.coordinator.Run(pollCtx)
	}()

	lm.restServer = rest.NewServer(lm.config, lm, lm.logger, lm.wsHub, lm.authService)
	if err := lm.restServer.Start(); err != nil {
		lm.setState(StateError)
		return fmt.Errorf("failed to start REST API: %w", err)
	}

	lm.setState(StateRunning)

	lm.logger.Info("System started successfully",
		zap.Int("http_port", lm.config.Server.HTTPPort),
		zap.String("boiler", lm.config.Boiler.Host),
		zap.Bool("mqtt_enabled", lm.config.MQTT.Enabled))

	return nil
}

// Shutdown gracefully shuts down the bridge
func (lm *LifecycleManager) Shutdown(ctx context.Context) error {
	var shutdownErr error

	lm.shutdownOnce.Do(func() {
		lm.logger.Info("Shutting down system")
		lm.setState(StateStopping)

		shutdownErr = lm.gracefulShutdown(ctx)

		lm.setState(StateStopped)
	})

	return shutdownErr
}

func (lm *LifecycleManager) gracefulShutdown(ctx context.Context) error {
	var wg sync.WaitGroup
	errChan := make(chan error, 2)

	// 1. Stop the poll loop; the in-flight cycle finishes, then the
	// coordinator closes the boiler connection.
	if lm.pollCancel != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lm.pollCancel()
			select {
			case <-lm.pollDone:
			case <-ctx.Done():
				errChan <- fmt.Errorf("poll loop did not stop in time")
			}
		}()
	}

	// 2. REST API Server graceful shutdown
	if lm.restServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()

			if err := lm.restServer.Shutdown(shutdownCtx); err != nil {
				errChan <- fmt.Errorf("rest api shutdown failed: %w", err)
			}
		}()
	}

	// Wait for all shutdowns
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		if lm.mqttPublisher != nil {
			lm.mqttPublisher.Close()
		}
		lm.logger.Info("Graceful shutdown completed")
		return nil
	case <-ctx.Done():
		lm.logger.Warn("Shutdown timeout, forcing stop")
		return fmt.Errorf("shutdown timeout exceeded")
	case err := <-errChan:
		return err
	}
}

// ResetError acknowledges the device error register.
func (lm *LifecycleManager) ResetError(ctx context.Context) error {
	return lm.coordinator.WriteValue(ctx, "error_code", 0)
}

// RestartDevice triggers a boiler restart.
func (lm *LifecycleManager) RestartDevice(ctx context.Context) error {
	return lm.coordinator.WriteValue(ctx, "restart_device", 1)
}

func (lm *LifecycleManager) setState(state SystemState) {
	lm.stateMu.Lock()
	defer lm.stateMu.Unlock()

	if err := ValidateTransition(lm.currentState, state); err != nil {
		lm.logger.Warn("Forcing state transition", zap.Error(err))
	}
	lm.currentState = state
}

// GetCurrentStatus returns current system status (Interface implementation)
func (lm *LifecycleManager) GetCurrentStatus() interfaces.SystemStatus {
	lm.stateMu.RLock()
	defer lm.stateMu.RUnlock()

	status := interfaces.SystemStatus{
		State:            lm.currentState.String(),
		DeviceAvailable:  lm.coordinator.Available(),
		CH2Available:     lm.coordinator.CH2Available(),
		WebsocketClients: lm.wsHub.GetClientCount(),
	}
	if last := lm.coordinator.LastSuccess(); !last.IsZero() {
		status.LastSuccessfulPoll = last.Unix()
	}
	return status
}

// Coordinator returns the poll coordinator
func (lm *LifecycleManager) Coordinator() *coordinator.Coordinator {
	return lm.coordinator
}

// Capabilities returns the capability set
func (lm *LifecycleManager) Capabilities() *capabilities.Set {
	return lm.capabilities
}

// Metrics returns the metrics collectors
func (lm *LifecycleManager) Metrics() *metrics.Metrics {
	return lm.metrics
}

// Config returns the configuration
func (lm *LifecycleManager) Config() *config.Config {
	return lm.config
}
