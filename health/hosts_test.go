package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonwraymond/shipyard/breaker"
	"github.com/jonwraymond/shipyard/engine"
	"github.com/jonwraymond/shipyard/farm"
)

type stubClient struct{}

func (stubClient) PullImage(ctx context.Context, image, tag string) error { return nil }
func (stubClient) StartContainer(ctx context.Context, opts engine.RunOptions) (string, error) {
	return "", errors.New("not implemented")
}
func (stubClient) ContainerByID(ctx context.Context, id string) (engine.Container, error) {
	return nil, errors.New("not implemented")
}
func (stubClient) ListContainers(ctx context.Context, opts engine.ListOptions) ([]engine.Container, error) {
	return nil, nil
}

func testChecker(t *testing.T, hosts ...string) (*HostsChecker, *breaker.Registry) {
	t.Helper()

	pool, err := farm.NewPool([]farm.Farm{{Hosts: hosts, MaxRunning: 10}},
		func(string) (engine.Client, error) { return stubClient{}, nil }, nil)
	if err != nil {
		t.Fatal(err)
	}

	breakers := breaker.NewRegistry(
		breaker.Config{FailMax: 1, ResetTimeout: time.Hour}, breaker.NewMemoryStore())

	return NewHostsChecker(pool, breakers, nil), breakers
}

func trip(t *testing.T, breakers *breaker.Registry, key string) {
	t.Helper()
	err := breakers.Get(key).Execute(context.Background(), func(ctx context.Context) error {
		return errors.New("down")
	})
	if err == nil {
		t.Fatal("expected the tripping call to fail")
	}
}

func TestHostsChecker_AllClosed(t *testing.T) {
	checker, _ := testChecker(t, "h1:2375", "h2:2375")

	result := checker.Check(context.Background())
	if result.Status != StatusHealthy {
		t.Errorf("Status = %v, want healthy", result.Status)
	}
	if len(result.Details) != 2 {
		t.Errorf("Details = %v, want one entry per host", result.Details)
	}
}

func TestHostsChecker_SomeOpen(t *testing.T) {
	checker, breakers := testChecker(t, "h1:2375", "h2:2375")
	trip(t, breakers, "h1:2375")

	result := checker.Check(context.Background())
	if result.Status != StatusDegraded {
		t.Errorf("Status = %v, want degraded", result.Status)
	}
}

func TestHostsChecker_AllOpen(t *testing.T) {
	checker, breakers := testChecker(t, "h1:2375")
	trip(t, breakers, "h1:2375")

	result := checker.Check(context.Background())
	if result.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want unhealthy", result.Status)
	}
}

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusHealthy, "healthy"},
		{StatusDegraded, "degraded"},
		{StatusUnhealthy, "unhealthy"},
		{Status(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("String() = %v, want %v", got, tt.want)
		}
	}
}
