package selection

import (
	"sync"
	"testing"

	"github.com/askpair/api/internal/artifact"
)

func TestCacheSwapAndGet(t *testing.T) {
	c := NewCache()

	if c.Active() != "" {
		t.Errorf("fresh cache Active = %q, want empty", c.Active())
	}
	if _, ok := c.Get("v1"); ok {
		t.Error("fresh cache claims to hold v1")
	}

	m1 := &artifact.LogisticModel{Weights: []float64{1}}
	c.Swap("v1", m1, map[string]any{"accuracy": 0.8})

	if c.Active() != "v1" {
		t.Errorf("Active = %q, want v1", c.Active())
	}
	got, ok := c.Get("v1")
	if !ok || got != any(m1) {
		t.Error("Get(v1) did not return the swapped model")
	}
	metrics, ok := c.Metrics("v1")
	if !ok || metrics["accuracy"] != 0.8 {
		t.Errorf("Metrics(v1) = %v, want accuracy 0.8", metrics)
	}

	// older versions stay resident after a swap
	m2 := &artifact.MajorityModel{Label: 1}
	c.Swap("v2", m2, nil)
	if c.Active() != "v2" {
		t.Errorf("Active = %q after second swap, want v2", c.Active())
	}
	if _, ok := c.Get("v1"); !ok {
		t.Error("v1 evicted by swap to v2")
	}
}

func TestCacheConcurrentReadersSeeConsistentPair(t *testing.T) {
	c := NewCache()
	c.Swap("v1", &artifact.LogisticModel{}, nil)

	var readers sync.WaitGroup
	stop := make(chan struct{})
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			if i%2 == 0 {
				c.Swap("v1", &artifact.LogisticModel{}, nil)
			} else {
				c.Swap("v2", &artifact.MajorityModel{Label: 1}, nil)
			}
		}
	}()

	for r := 0; r < 4; r++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for i := 0; i < 1000; i++ {
				version := c.Active()
				if version == "" {
					t.Error("Active returned empty after first swap")
					return
				}
				// whatever version is active must be resident
				if _, ok := c.Get(version); !ok {
					t.Errorf("active version %q not resident", version)
					return
				}
			}
		}()
	}

	readers.Wait()
	close(stop)
	<-writerDone
}
