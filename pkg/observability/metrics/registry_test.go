package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistry(t *testing.T) {
	registry := NewRegistry()
	if registry == nil || registry.registry == nil {
		t.Fatal("NewRegistry returned an incomplete registry")
	}
	if registry.Dispatch() == nil {
		t.Fatal("expected dispatch metrics")
	}
}

func TestDispatchMetrics_ObserveDelivery(t *testing.T) {
	registry := NewRegistry()
	m := registry.Dispatch()

	m.ObserveDelivery("chanify", "start", 20*time.Millisecond, nil)
	m.ObserveDelivery("chanify", "start", 30*time.Millisecond, errors.New("boom"))
	m.ObserveDelivery("file_reporter", "report", time.Millisecond, nil)
	m.ObserveSkipped("file_reporter", "start")

	tests := []struct {
		labels []string
		want   float64
	}{
		{labels: []string{"chanify", "start", OutcomeSuccess}, want: 1},
		{labels: []string{"chanify", "start", OutcomeFailure}, want: 1},
		{labels: []string{"file_reporter", "report", OutcomeSuccess}, want: 1},
		{labels: []string{"file_reporter", "start", OutcomeSkipped}, want: 1},
	}
	for _, tt := range tests {
		if got := testutil.ToFloat64(m.deliveries.WithLabelValues(tt.labels...)); got != tt.want {
			t.Errorf("deliveries%v = %v, want %v", tt.labels, got, tt.want)
		}
	}

	if got := testutil.CollectAndCount(m.duration); got != 2 {
		t.Errorf("expected histograms for 2 services, got %d", got)
	}
}

func TestDispatchMetrics_NilIsNoop(t *testing.T) {
	var m *DispatchMetrics
	m.ObserveDelivery("chanify", "start", time.Second, nil)
	m.ObserveSkipped("chanify", "start")

	var r *Registry
	if r.Dispatch() != nil {
		t.Fatal("expected nil dispatch metrics from nil registry")
	}
}

func TestRegistry_RegisterCustomCollector(t *testing.T) {
	registry := NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_custom_counter",
		Help: "A custom counter",
	})

	if err := registry.Register(counter); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := registry.Register(counter); err == nil {
		t.Fatal("expected duplicate registration error")
	}
	if !registry.Unregister(counter) {
		t.Fatal("expected unregister to succeed")
	}
	registry.MustRegister(counter)
}

func TestRegistry_WriteTextfile(t *testing.T) {
	registry := NewRegistry()
	registry.Dispatch().ObserveDelivery("chanify", "stop", time.Millisecond, nil)

	path := filepath.Join(t.TempDir(), "notify.prom")
	if err := registry.WriteTextfile(path); err != nil {
		t.Fatalf("write textfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	body := string(data)
	for _, want := range []string{
		`notify_deliveries_total{event_type="stop",outcome="success",service="chanify"} 1`,
		"notify_delivery_duration_seconds_bucket",
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in textfile", want)
		}
	}

	if err := registry.WriteTextfile(filepath.Join(t.TempDir(), "missing", "notify.prom")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestRegistry_Gatherer(t *testing.T) {
	registry := NewRegistry()
	registry.Dispatch().ObserveSkipped("chanify", "report")

	families, err := registry.Gatherer().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for _, family := range families {
		if family.GetName() == "notify_deliveries_total" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected notify_deliveries_total family")
	}
}
