package risk_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"civicrisk/internal/risk"
	"civicrisk/internal/services"
)

func TestProviderBuildsOnce(t *testing.T) {
	var builds atomic.Int32
	provider := risk.NewProvider(func() (*risk.Analyzer, error) {
		builds.Add(1)
		return risk.New(risk.Settings{Model: "m"}, replying(`{}`))
	})

	const callers = 16
	results := make([]*risk.Analyzer, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			analyzer, err := provider.Get()
			if err != nil {
				t.Errorf("Get returned error: %v", err)
			}
			results[i] = analyzer
		}()
	}
	wg.Wait()

	if builds.Load() != 1 {
		t.Fatalf("expected a single build, got %d", builds.Load())
	}
	for i, analyzer := range results {
		if analyzer == nil || analyzer != results[0] {
			t.Fatalf("caller %d received a different analyzer", i)
		}
	}
}

func TestProviderCachesError(t *testing.T) {
	var builds int
	wantErr := services.Wrap(services.ErrConfiguration, "risk analyzer", "", "api key required", nil)
	provider := risk.NewProvider(func() (*risk.Analyzer, error) {
		builds++
		return nil, wantErr
	})
	for range 3 {
		analyzer, err := provider.Get()
		if analyzer != nil || !errors.Is(err, services.ErrConfiguration) {
			t.Fatalf("unexpected Get result %v, %v", analyzer, err)
		}
	}
	if builds != 1 {
		t.Fatalf("expected a single build attempt, got %d", builds)
	}
}

func TestProviderWithoutBuilder(t *testing.T) {
	if _, err := risk.NewProvider(nil).Get(); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
