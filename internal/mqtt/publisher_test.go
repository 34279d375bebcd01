package mqtt

import (
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/legendik/volta-bridge/internal/volta"
)

type fakeToken struct{}

func (fakeToken) Wait() bool                     { return true }
func (fakeToken) WaitTimeout(time.Duration) bool { return true }
func (fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (fakeToken) Error() error { return nil }

type fakeClient struct {
	mu       sync.Mutex
	messages map[string]string
}

func (f *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.messages == nil {
		f.messages = make(map[string]string)
	}
	f.messages[topic] = payload.(string)
	return fakeToken{}
}

func (f *fakeClient) Disconnect(quiesce uint) {}

func (f *fakeClient) get(topic string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.messages[topic]
}

func TestSnapshotTopics(t *testing.T) {
	f := &fakeClient{}
	p := &Publisher{client: f, prefix: "volta", logger: zap.NewNop()}

	p.OnSnapshot(volta.Snapshot{
		"boiler_pressure": 1.5,
		"dhw_state_heat":  true,
		"circuit_mask":    3,
		"serial_number":   "100000",
	})

	cases := map[string]string{
		"volta/values/boiler_pressure": "1.5",
		"volta/values/dhw_state_heat":  "1",
		"volta/values/circuit_mask":    "3",
		"volta/values/serial_number":   "100000",
	}
	for topic, want := range cases {
		if got := f.get(topic); got != want {
			t.Errorf("%s = %q, want %q", topic, got, want)
		}
	}
	if f.get("volta/snapshot") == "" {
		t.Error("full snapshot topic missing")
	}
}

func TestAvailabilityTopic(t *testing.T) {
	f := &fakeClient{}
	p := &Publisher{client: f, prefix: "volta", logger: zap.NewNop()}

	p.OnAvailability(true)
	if got := f.get("volta/availability"); got != "online" {
		t.Errorf("availability = %q, want online", got)
	}

	p.OnAvailability(false)
	if got := f.get("volta/availability"); got != "offline" {
		t.Errorf("availability = %q, want offline", got)
	}
}
