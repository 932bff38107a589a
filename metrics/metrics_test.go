package metrics

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func TestCounter(t *testing.T) {
	c := NewCounter("samples_accepted")
	if c.Value() != 0 {
		t.Fatalf("initial value = %d, want 0", c.Value())
	}
	c.Inc()
	c.Add(4)
	if c.Value() != 5 {
		t.Errorf("value = %d, want 5", c.Value())
	}
	// Counters are monotonic; negative adds are ignored.
	c.Add(-3)
	if c.Value() != 5 {
		t.Errorf("value after negative Add = %d, want 5", c.Value())
	}
	if c.Name() != "samples_accepted" {
		t.Errorf("name = %q", c.Name())
	}
}

func TestGauge(t *testing.T) {
	g := NewGauge("active_evaluations")
	g.Set(3)
	g.Inc()
	g.Dec()
	g.Dec()
	if g.Value() != 2 {
		t.Errorf("value = %d, want 2", g.Value())
	}
}

func TestRegistryGetOrCreate(t *testing.T) {
	r := NewRegistry()
	a := r.Counter("x")
	b := r.Counter("x")
	if a != b {
		t.Error("Counter returned different instances for the same name")
	}
	if r.Gauge("y") != r.Gauge("y") {
		t.Error("Gauge returned different instances for the same name")
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Counter("shared").Inc()
			}
		}()
	}
	wg.Wait()
	if got := r.Counter("shared").Value(); got != 800 {
		t.Errorf("shared counter = %d, want 800", got)
	}
}

func TestRegistrySnapshot(t *testing.T) {
	r := NewRegistry()
	r.Counter("a").Add(2)
	r.Gauge("b").Set(-1)

	snap := r.Snapshot()
	if snap["a"] != 2 || snap["b"] != -1 {
		t.Errorf("snapshot = %v", snap)
	}
}

func TestRegistryHandler(t *testing.T) {
	r := NewRegistry()
	r.Counter("samples_accepted").Add(7)
	r.Gauge("active_evaluations").Set(1)

	rec := httptest.NewRecorder()
	r.Handler("evalchain").ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	if !strings.Contains(body, "evalchain_samples_accepted 7") {
		t.Errorf("missing counter line in %q", body)
	}
	if !strings.Contains(body, "evalchain_active_evaluations 1") {
		t.Errorf("missing gauge line in %q", body)
	}
	// Deterministic ordering: sorted by name.
	if strings.Index(body, "active_evaluations") > strings.Index(body, "samples_accepted") {
		t.Errorf("output not sorted: %q", body)
	}
}
