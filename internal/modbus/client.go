package modbus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	mb "github.com/simonvetter/modbus"
	"go.uber.org/zap"

	"github.com/legendik/volta-bridge/internal/volta"
)

// conn is the subset of the third-party Modbus TCP client the register
// client needs. Narrowed so tests can inject a fake transport.
type conn interface {
	Open() error
	Close() error
	ReadRegisters(addr uint16, quantity uint16, regType mb.RegType) ([]uint16, error)
	WriteRegister(addr uint16, value uint16) error
}

// Config is the transport configuration for one boiler.
type Config struct {
	Host    string
	Port    int
	UnitID  uint8
	Timeout time.Duration
}

// Client owns the TCP session to the boiler and turns kind/address/count
// tuples into register words. Authentication is connection-scoped: the
// system password is written once after each (re)connect and again only
// after a detected drop. All connection use is serialized through one
// mutex - the poll cycle and user-initiated writes share the same
// session and the same authentication state.
type Client struct {
	mu     sync.Mutex
	conn   conn
	logger *zap.Logger

	connected     bool
	authenticated bool
}

// NewClient erstellt einen unverbundenen Register-Client.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.Host == "" {
		return nil, errors.New("modbus: host required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	mc, err := mb.NewClient(&mb.ClientConfiguration{
		URL:     fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port),
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("modbus: create client: %w", err)
	}
	if err := mc.SetUnitId(cfg.UnitID); err != nil {
		return nil, fmt.Errorf("modbus: set unit id: %w", err)
	}

	return &Client{conn: mc, logger: logger}, nil
}

// Connect opens the TCP session and authenticates it. Idempotent:
// calling while already connected is a no-op.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ensureReadyLocked(ctx)
}

// ReadBlock reads count contiguous registers of the given kind starting
// at the 0-based wire address. Count must not exceed the device block
// limit; partitioning larger logical groups is the caller's job.
func (c *Client) ReadBlock(ctx context.Context, kind volta.Kind, start, count uint16) ([]uint16, error) {
	if count == 0 || count > volta.MaxBlockSize {
		return nil, fmt.Errorf("modbus: block of %d registers at %d: %w", count, start, volta.ErrValidation)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureReadyLocked(ctx); err != nil {
		return nil, err
	}

	regType := mb.INPUT_REGISTER
	if kind == volta.KindHolding {
		regType = mb.HOLDING_REGISTER
	}

	words, err := c.conn.ReadRegisters(start, count, regType)
	if err == nil {
		return words, nil
	}
	err = c.classifyLocked(err)

	// Session expiry while idle is undocumented device behavior. A
	// protocol-level failure on a holding read gets one fresh
	// authentication and one retry before the error surfaces.
	if kind == volta.KindHolding && errors.Is(err, volta.ErrModbus) {
		c.logger.Warn("Holding read failed, re-authenticating once",
			zap.Uint16("start", start), zap.Error(err))
		if authErr := c.authenticateLocked(ctx); authErr != nil {
			return nil, authErr
		}
		words, retryErr := c.conn.ReadRegisters(start, count, regType)
		if retryErr != nil {
			return nil, fmt.Errorf("modbus: read %s block at %d: %w", kind, start, c.classifyLocked(retryErr))
		}
		return words, nil
	}

	return nil, fmt.Errorf("modbus: read %s block at %d: %w", kind, start, err)
}

// WriteRegister writes a single holding register at the 0-based wire
// address. Reconnects and re-authenticates transparently when the
// cached session state is stale.
func (c *Client) WriteRegister(ctx context.Context, addr, value uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureReadyLocked(ctx); err != nil {
		return err
	}

	if err := c.conn.WriteRegister(addr, value); err != nil {
		return fmt.Errorf("modbus: write register %d: %w", addr, c.classifyLocked(err))
	}
	return nil
}

// Close schließt die Verbindung. Safe to call multiple times.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil
	}
	err := c.conn.Close()
	c.connected = false
	c.authenticated = false
	return err
}

// Connected reports whether the session is currently believed open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// ensureReadyLocked brings the session into the connected and
// authenticated state every register operation requires.
func (c *Client) ensureReadyLocked(ctx context.Context) error {
	if err := c.connectLocked(ctx); err != nil {
		return err
	}
	if !c.authenticated {
		return c.authenticateLocked(ctx)
	}
	return nil
}

func (c *Client) connectLocked(ctx context.Context) error {
	if c.connected {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := c.conn.Open(); err != nil {
		return fmt.Errorf("modbus: connect: %w: %v", volta.ErrConnection, err)
	}
	c.connected = true
	c.authenticated = false
	c.logger.Info("Modbus session opened")
	return nil
}

// authenticateLocked writes the system password. Required once per
// connection before holding-register access works.
func (c *Client) authenticateLocked(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := volta.AuthRegister - 1 // 0-based on the wire
	if err := c.conn.WriteRegister(addr, volta.SystemPassword); err != nil {
		err = c.classifyLocked(err)
		if errors.Is(err, volta.ErrConnection) {
			return fmt.Errorf("modbus: authenticate: %w", err)
		}
		return fmt.Errorf("modbus: authenticate: %w: %v", volta.ErrAuth, err)
	}

	c.authenticated = true
	c.logger.Debug("System access authenticated")
	return nil
}

// classifyLocked sorts a transport error into the error taxonomy.
// Protocol-level failures keep the session; anything else means the
// socket died underneath us, so the session is marked disconnected and
// the next operation reconnects and re-authenticates.
func (c *Client) classifyLocked(err error) error {
	if isProtocolError(err) {
		return fmt.Errorf("%w: %v", volta.ErrModbus, err)
	}

	c.connected = false
	c.authenticated = false
	c.logger.Warn("Modbus session lost", zap.Error(err))
	return fmt.Errorf("%w: %v", volta.ErrConnection, err)
}

var protocolErrors = []error{
	mb.ErrRequestTimedOut,
	mb.ErrProtocolError,
	mb.ErrIllegalFunction,
	mb.ErrIllegalDataAddress,
	mb.ErrIllegalDataValue,
	mb.ErrServerDeviceFailure,
	mb.ErrAcknowledge,
	mb.ErrServerDeviceBusy,
	mb.ErrMemoryParityError,
	mb.ErrGWPathUnavailable,
	mb.ErrGWTargetFailedToRespond,
	mb.ErrShortFrame,
	mb.ErrBadUnitId,
}

func isProtocolError(err error) bool {
	for _, pe := range protocolErrors {
		if errors.Is(err, pe) {
			return true
		}
	}
	return false
}
