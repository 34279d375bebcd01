package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/legendik/volta-bridge/internal/volta"
)

// DefaultInterval is the poll interval when the configuration does not
// set one.
const DefaultInterval = 30 * time.Second

// RegisterClient is the boiler connection the coordinator drives.
// Implemented by the modbus register client.
type RegisterClient interface {
	Connect(ctx context.Context) error
	ReadBlock(ctx context.Context, kind volta.Kind, start, count uint16) ([]uint16, error)
	WriteRegister(ctx context.Context, addr, value uint16) error
	Close() error
}

// Subscriber receives each published snapshot and availability
// transitions. Callbacks run on the poll goroutine and must not block.
type Subscriber interface {
	OnSnapshot(snap volta.Snapshot)
	OnAvailability(available bool)
}

// Coordinator runs the fixed-interval poll loop: read every planned
// register block, scale the words into a snapshot and publish it
// atomically. A failed cycle abandons the read set, keeps the previous
// snapshot and signals unavailability; the loop itself never dies from
// a device error.
type Coordinator struct {
	client   RegisterClient
	logger   *zap.Logger
	interval time.Duration

	// kick wakes the loop for an early refresh after a write.
	kick chan struct{}

	mu           sync.RWMutex
	snapshot     volta.Snapshot
	available    bool
	ch2Available bool
	lastSuccess  time.Time

	subMu       sync.Mutex
	subscribers []Subscriber
}

// New erstellt den Koordinator. The client stays unconnected until the
// first cycle.
func New(client RegisterClient, interval time.Duration, logger *zap.Logger) *Coordinator {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Coordinator{
		client:   client,
		logger:   logger,
		interval: interval,
		kick:     make(chan struct{}, 1),
	}
}

// Subscribe registers a snapshot consumer.
func (c *Coordinator) Subscribe(s Subscriber) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	c.subscribers = append(c.subscribers, s)
}

// Run polls until the context is canceled, then closes the connection.
// The in-flight cycle finishes first; nothing is published after
// cancellation.
func (c *Coordinator) Run(ctx context.Context) {
	c.logger.Info("Poll loop starting", zap.Duration("interval", c.interval))

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	if err := c.Refresh(ctx); err != nil {
		c.logger.Warn("Initial poll failed", zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Poll loop stopping")
			if err := c.client.Close(); err != nil {
				c.logger.Warn("Closing boiler connection failed", zap.Error(err))
			}
			return
		case <-ticker.C:
		case <-c.kick:
		}

		if err := c.Refresh(ctx); err != nil {
			c.logger.Warn("Poll cycle failed", zap.Error(err))
		}
	}
}

// Refresh runs one poll cycle. The system-control block is read first:
// it carries the circuit mask that decides whether the CH2 blocks exist
// on this device. Any read error abandons the whole cycle.
func (c *Coordinator) Refresh(ctx context.Context) error {
	raw := volta.NewRawData()

	words, err := c.client.ReadBlock(ctx, volta.ControlBlock.Kind, volta.ControlBlock.WireStart(), volta.ControlBlock.Count)
	if err != nil {
		c.cycleFailed(ctx)
		return fmt.Errorf("control block: %w", err)
	}
	raw.Merge(volta.ControlBlock, words)

	maskReg, _ := volta.Lookup("circuit_mask")
	ch2 := volta.CH2Available(raw.Holding[maskReg.Address])

	for _, b := range volta.ReadPlan {
		if b.CH2 && !ch2 {
			continue
		}
		words, err := c.client.ReadBlock(ctx, b.Kind, b.WireStart(), b.Count)
		if err != nil {
			c.cycleFailed(ctx)
			return fmt.Errorf("%s block %d: %w", b.Kind, b.Start, err)
		}
		raw.Merge(b, words)
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	snap := volta.BuildSnapshot(raw)

	c.mu.Lock()
	wasAvailable := c.available
	c.snapshot = snap
	c.available = true
	c.ch2Available = ch2
	c.lastSuccess = time.Now()
	c.mu.Unlock()

	c.publish(snap, wasAvailable)
	return nil
}

// WriteValue resolves the key, validates the scaled value against the
// documented range before any network traffic, applies the inverse
// scaling and writes the word. The next poll cycle reads the value back.
func (c *Coordinator) WriteValue(ctx context.Context, key string, value float64) error {
	reg, ok := volta.Lookup(key)
	if !ok {
		return fmt.Errorf("unknown register %q: %w", key, volta.ErrValidation)
	}
	if !reg.Writable {
		return fmt.Errorf("register %q is read-only: %w", key, volta.ErrValidation)
	}
	if reg.CH2 && !c.CH2Available() {
		return fmt.Errorf("register %q: circuit 2 not present: %w", key, volta.ErrValidation)
	}
	if !reg.InRange(value) {
		return fmt.Errorf("register %q: value %v outside [%v, %v]: %w",
			key, value, reg.Min, reg.Max, volta.ErrValidation)
	}

	if err := c.client.WriteRegister(ctx, reg.WireAddress(), reg.Scale.Invert(value)); err != nil {
		return err
	}

	c.logger.Info("Register written",
		zap.String("key", key), zap.Float64("value", value))

	// Wake the loop so the snapshot reflects the write without waiting a
	// full interval.
	select {
	case c.kick <- struct{}{}:
	default:
	}
	return nil
}

// Snapshot returns the last successfully published snapshot. Nil until
// the first good cycle.
func (c *Coordinator) Snapshot() volta.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Available reports whether the last cycle succeeded.
func (c *Coordinator) Available() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.available
}

// CH2Available reports whether the optional second heating circuit was
// present in the last successful cycle.
func (c *Coordinator) CH2Available() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ch2Available
}

// LastSuccess returns the time of the last successful cycle.
func (c *Coordinator) LastSuccess() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSuccess
}

// cycleFailed keeps the previous snapshot and flips availability off.
func (c *Coordinator) cycleFailed(ctx context.Context) {
	c.mu.Lock()
	wasAvailable := c.available
	c.available = false
	c.mu.Unlock()

	if ctx.Err() != nil {
		return
	}
	if wasAvailable {
		c.notifyAvailability(false)
	}
}

// publish hands the snapshot to every subscriber, together with an
// availability transition when the device just came back.
func (c *Coordinator) publish(snap volta.Snapshot, wasAvailable bool) {
	if !wasAvailable {
		c.notifyAvailability(true)
	}

	c.subMu.Lock()
	subs := make([]Subscriber, len(c.subscribers))
	copy(subs, c.subscribers)
	c.subMu.Unlock()

	for _, s := range subs {
		s.OnSnapshot(snap)
	}
}

func (c *Coordinator) notifyAvailability(available bool) {
	c.subMu.Lock()
	subs := make([]Subscriber, len(c.subscribers))
	copy(subs, c.subscribers)
	c.subMu.Unlock()

	for _, s := range subs {
		s.OnAvailability(available)
	}
}
