package coordinator

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/legendik/volta-bridge/internal/volta"
)

// fakeClient serves canned register words per block and records writes.
type fakeClient struct {
	mu     sync.Mutex
	words  map[string][]uint16 // "kind/wireStart" -> block words
	fail   map[string]error    // blocks that error instead
	reads  int
	writes []struct {
		addr  uint16
		value uint16
	}
	writeErr error
	closed   bool
}

func blockKey(kind volta.Kind, start uint16) string {
	return fmt.Sprintf("%s/%d", kind, start)
}

func newFakeClient() *fakeClient {
	f := &fakeClient{
		words: make(map[string][]uint16),
		fail:  make(map[string]error),
	}

	// Control block first: circuit mask 3 = both circuits present.
	control := []uint16{volta.SystemPassword, 1, 0, 0, 0, 0, 60, 500, 2, 3}
	f.words[blockKey(volta.KindHolding, volta.ControlBlock.WireStart())] = control

	for _, b := range volta.ReadPlan {
		f.words[blockKey(b.Kind, b.WireStart())] = make([]uint16, b.Count)
	}
	return f
}

func (f *fakeClient) setWords(kind volta.Kind, wireStart uint16, words []uint16) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.words[blockKey(kind, wireStart)] = words
}

func (f *fakeClient) Connect(ctx context.Context) error { return nil }

func (f *fakeClient) ReadBlock(ctx context.Context, kind volta.Kind, start, count uint16) ([]uint16, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++

	key := blockKey(kind, start)
	if err := f.fail[key]; err != nil {
		return nil, err
	}
	words, ok := f.words[key]
	if !ok {
		return nil, fmt.Errorf("unexpected block %s: %w", key, volta.ErrModbus)
	}
	return words, nil
}

func (f *fakeClient) WriteRegister(ctx context.Context, addr, value uint16) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes = append(f.writes, struct {
		addr  uint16
		value uint16
	}{addr, value})
	return nil
}

func (f *fakeClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// recorder collects subscriber callbacks.
type recorder struct {
	mu           sync.Mutex
	snapshots    []volta.Snapshot
	availability []bool
}

func (r *recorder) OnSnapshot(snap volta.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, snap)
}

func (r *recorder) OnAvailability(available bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.availability = append(r.availability, available)
}

func newTestCoordinator(f *fakeClient) *Coordinator {
	return New(f, time.Hour, zap.NewNop())
}

func TestRefreshPublishesSnapshot(t *testing.T) {
	f := newFakeClient()
	f.setWords(volta.KindInput, 19, []uint16{450, 33})

	c := newTestCoordinator(f)
	rec := &recorder{}
	c.Subscribe(rec)

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if !c.Available() {
		t.Error("coordinator should be available after a good cycle")
	}
	if !c.CH2Available() {
		t.Error("circuit mask 3 should make CH2 available")
	}

	snap := c.Snapshot()
	if v, ok := snap.Float("cpu_temperature"); !ok || v != 45.0 {
		t.Errorf("cpu_temperature = %v (%v), want 45.0", v, ok)
	}

	if len(rec.snapshots) != 1 {
		t.Fatalf("published snapshots = %d, want 1", len(rec.snapshots))
	}
	if len(rec.availability) != 1 || !rec.availability[0] {
		t.Errorf("availability events = %v, want [true]", rec.availability)
	}
}

// Two polls of unchanged device state produce equal snapshots.
func TestRefreshIdempotent(t *testing.T) {
	f := newFakeClient()
	f.setWords(volta.KindInput, 19, []uint16{450, 33})
	c := newTestCoordinator(f)

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("first Refresh: %v", err)
	}
	first := c.Snapshot()

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("second Refresh: %v", err)
	}
	second := c.Snapshot()

	if !reflect.DeepEqual(first, second) {
		t.Error("unchanged device state must produce equal snapshots")
	}
}

func TestFailedCycleKeepsPreviousSnapshot(t *testing.T) {
	f := newFakeClient()
	f.setWords(volta.KindInput, 19, []uint16{450, 33})
	c := newTestCoordinator(f)
	rec := &recorder{}
	c.Subscribe(rec)

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	good := c.Snapshot()

	f.mu.Lock()
	f.fail[blockKey(volta.KindInput, 39)] = fmt.Errorf("read: %w", volta.ErrConnection)
	f.mu.Unlock()

	err := c.Refresh(context.Background())
	if !errors.Is(err, volta.ErrConnection) {
		t.Fatalf("err = %v, want ErrConnection", err)
	}

	if c.Available() {
		t.Error("failed cycle must flip availability off")
	}
	if !reflect.DeepEqual(c.Snapshot(), good) {
		t.Error("failed cycle must keep the previous snapshot")
	}
	if got := rec.availability; len(got) != 2 || got[0] != true || got[1] != false {
		t.Errorf("availability events = %v, want [true false]", got)
	}
	if len(rec.snapshots) != 1 {
		t.Errorf("snapshots = %d, want 1 (none for the failed cycle)", len(rec.snapshots))
	}
}

// CH2 availability follows the circuit mask from poll to poll, and the
// CH2 blocks are skipped while the circuit is absent.
func TestCH2TogglesBetweenPolls(t *testing.T) {
	f := newFakeClient()
	c := newTestCoordinator(f)

	maskOnly1 := []uint16{volta.SystemPassword, 1, 0, 0, 0, 0, 60, 500, 2, 1}
	f.setWords(volta.KindHolding, volta.ControlBlock.WireStart(), maskOnly1)

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if c.CH2Available() {
		t.Error("mask 1 must leave CH2 unavailable")
	}
	if _, ok := c.Snapshot()["ch2_mode"]; ok {
		t.Error("CH2 keys must be absent while the circuit is unavailable")
	}
	readsWithout := f.reads

	mask3 := []uint16{volta.SystemPassword, 1, 0, 0, 0, 0, 60, 500, 2, 3}
	f.setWords(volta.KindHolding, volta.ControlBlock.WireStart(), mask3)

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if !c.CH2Available() {
		t.Error("mask 3 must make CH2 available")
	}
	if _, ok := c.Snapshot()["ch2_mode"]; !ok {
		t.Error("CH2 keys must appear once the circuit is available")
	}

	readsWith := f.reads - readsWithout
	if readsWith != readsWithout+2 {
		t.Errorf("second cycle made %d reads, want %d (two extra CH2 blocks)",
			readsWith, readsWithout+2)
	}
}

func TestWriteValueOutOfRange(t *testing.T) {
	f := newFakeClient()
	c := newTestCoordinator(f)

	err := c.WriteValue(context.Background(), "dhw_temperature_manual", 80)
	if !errors.Is(err, volta.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if len(f.writes) != 0 {
		t.Error("out-of-range write must fail before any network call")
	}
}

func TestWriteValueUnknownAndReadOnly(t *testing.T) {
	f := newFakeClient()
	c := newTestCoordinator(f)
	ctx := context.Background()

	if err := c.WriteValue(ctx, "no_such_key", 1); !errors.Is(err, volta.ErrValidation) {
		t.Errorf("unknown key err = %v, want ErrValidation", err)
	}
	if err := c.WriteValue(ctx, "boiler_pressure", 1.5); !errors.Is(err, volta.ErrValidation) {
		t.Errorf("read-only key err = %v, want ErrValidation", err)
	}
	if len(f.writes) != 0 {
		t.Error("rejected writes must not reach the client")
	}
}

func TestWriteValueCH2Unavailable(t *testing.T) {
	f := newFakeClient()
	maskOnly1 := []uint16{volta.SystemPassword, 1, 0, 0, 0, 0, 60, 500, 2, 1}
	f.setWords(volta.KindHolding, volta.ControlBlock.WireStart(), maskOnly1)

	c := newTestCoordinator(f)
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	err := c.WriteValue(context.Background(), "ch2_temperature_manual", 21)
	if !errors.Is(err, volta.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestWriteValueScalesAndWrites(t *testing.T) {
	f := newFakeClient()
	c := newTestCoordinator(f)

	if err := c.WriteValue(context.Background(), "dhw_temperature_manual", 48.5); err != nil {
		t.Fatalf("WriteValue: %v", err)
	}

	if len(f.writes) != 1 {
		t.Fatalf("writes = %d, want 1", len(f.writes))
	}
	if f.writes[0].addr != 1103 { // doc 1104, 0-based on the wire
		t.Errorf("write addr = %d, want 1103", f.writes[0].addr)
	}
	if f.writes[0].value != 485 {
		t.Errorf("write value = %d, want 485", f.writes[0].value)
	}

	// The write kicks the poll loop for an early readback.
	select {
	case <-c.kick:
	default:
		t.Error("successful write should wake the poll loop")
	}
}

func TestWriteErrorPropagates(t *testing.T) {
	f := newFakeClient()
	f.writeErr = fmt.Errorf("write: %w", volta.ErrConnection)
	c := newTestCoordinator(f)

	err := c.WriteValue(context.Background(), "dhw_temperature_manual", 48.5)
	if !errors.Is(err, volta.ErrConnection) {
		t.Fatalf("err = %v, want ErrConnection", err)
	}
}

// Cancellation stops the loop, closes the client and publishes nothing
// afterwards.
func TestRunStopsOnCancel(t *testing.T) {
	f := newFakeClient()
	c := New(f, 10*time.Millisecond, zap.NewNop())
	rec := &recorder{}
	c.Subscribe(rec)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		rec.mu.Lock()
		n := len(rec.snapshots)
		rec.mu.Unlock()
		if n >= 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for poll cycles")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}

	f.mu.Lock()
	closed := f.closed
	f.mu.Unlock()
	if !closed {
		t.Error("Run must close the client on shutdown")
	}

	rec.mu.Lock()
	after := len(rec.snapshots)
	rec.mu.Unlock()
	time.Sleep(30 * time.Millisecond)
	rec.mu.Lock()
	later := len(rec.snapshots)
	rec.mu.Unlock()
	if later != after {
		t.Error("no snapshot may be published after cancellation")
	}
}
