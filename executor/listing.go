package executor

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/shipyard/blacklist"
	"github.com/jonwraymond/shipyard/engine"
	"github.com/jonwraymond/shipyard/farm"
	"github.com/jonwraymond/shipyard/observe"
)

// HostStatus describes one host in a Listing.
type HostStatus struct {
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Available   bool   `json:"available"`
	Blacklisted bool   `json:"blacklisted"`
	Circuit     string `json:"circuit"`
	Error       string `json:"error,omitempty"`
}

// RunningContainer locates one running job container.
type RunningContainer struct {
	Host        string `json:"host"`
	Port        int    `json:"port"`
	ContainerID string `json:"container_id"`
}

// Listing is the fleet view returned by GetRunningContainers.
type Listing struct {
	Available   []HostStatus       `json:"available"`
	Unavailable []HostStatus       `json:"unavailable"`
	Running     []RunningContainer `json:"running"`
}

// Removed describes one container deleted by RemoveDone.
type Removed struct {
	Host  string `json:"host"`
	Name  string `json:"name"`
	ID    string `json:"id"`
	Image string `json:"image"`
}

// GetRunningContainers surveys the fleet: running job containers per host,
// plus per-host availability annotated with blacklist membership and breaker
// state. match restricts the survey to the farm carrying that pattern; nil
// surveys every host. Hosts are queried concurrently.
func (e *Executor) GetRunningContainers(ctx context.Context, match *regexp.Regexp, bl blacklist.Snapshot) (*Listing, error) {
	bl, err := e.snapshot(ctx, bl)
	if err != nil {
		return nil, err
	}

	clients := e.pool.FarmClients(match)
	listing := &Listing{
		Available:   []HostStatus{},
		Unavailable: []HostStatus{},
		Running:     []RunningContainer{},
	}

	var mu sync.Mutex
	var g errgroup.Group

	for _, hc := range clients {
		status := HostStatus{
			Host:        hc.Host,
			Port:        hc.Port,
			Blacklisted: bl.Has(hc.Address()),
		}

		if status.Blacklisted {
			status.Circuit = e.breakers.Get(hc.Address()).State(ctx).String()
			status.Error = "server is blacklisted"
			mu.Lock()
			listing.Unavailable = append(listing.Unavailable, status)
			mu.Unlock()
			continue
		}

		g.Go(func() error {
			running, err := e.listJobContainers(ctx, hc)

			mu.Lock()
			defer mu.Unlock()

			status.Circuit = e.breakers.Get(hc.Address()).State(ctx).String()
			if err != nil {
				status.Error = err.Error()
				listing.Unavailable = append(listing.Unavailable, status)
				return nil
			}

			status.Available = true
			listing.Available = append(listing.Available, status)
			listing.Running = append(listing.Running, running...)
			return nil
		})
	}

	g.Wait()
	return listing, nil
}

// listJobContainers lists the running job-prefixed containers on one host,
// through its breaker.
func (e *Executor) listJobContainers(ctx context.Context, hc farm.HostClient) ([]RunningContainer, error) {
	var running []RunningContainer

	err := e.breakers.Get(hc.Address()).Execute(ctx, func(ctx context.Context) error {
		containers, err := hc.Client.ListContainers(ctx, engine.ListOptions{
			Running:    true,
			NamePrefix: e.jobPrefix,
		})
		if err != nil {
			return err
		}

		for _, ctr := range containers {
			if !strings.HasPrefix(ctr.Name(), e.jobPrefix) {
				continue
			}
			running = append(running, RunningContainer{
				Host:        hc.Host,
				Port:        hc.Port,
				ContainerID: ctr.ID(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return running, nil
}

// ValidateMaxRunning reports whether the farm matching taskID is under its
// running-containers cap. No matching farm means nothing to enforce. Zero
// running always passes, even with a cap of zero, so a misconfigured farm
// cannot deadlock.
func (e *Executor) ValidateMaxRunning(ctx context.Context, taskID string) (bool, error) {
	f, clients, ok := e.pool.FirstMatch(taskID)
	if !ok {
		return true, nil
	}

	listing, err := e.GetRunningContainers(ctx, f.Match, nil)
	if err != nil {
		return false, err
	}

	// A match-all farm has a nil pattern, for which the survey covers every
	// host; count only the containers on this farm's own hosts.
	inFarm := make(map[string]struct{}, len(clients))
	for _, hc := range clients {
		inFarm[hc.Address()] = struct{}{}
	}
	total := 0
	for _, rc := range listing.Running {
		if _, ok := inFarm[farm.HostClient{Host: rc.Host, Port: rc.Port}.Address()]; ok {
			total++
		}
	}
	e.logger.Debug(ctx, "Counted running containers for farm.",
		observe.F("task_id", taskID),
		observe.F("total_running", total),
		observe.F("max_running", f.MaxRunning))

	return total == 0 || total <= f.MaxRunning, nil
}

// RemoveDone reaps defunct job containers across every host in the pool,
// with no farm or blacklist filtering, stopped containers included. A host that
// fails to answer is logged and skipped so one dead host cannot block the
// reap. Returns one entry per removed container.
func (e *Executor) RemoveDone(ctx context.Context) ([]Removed, error) {
	prefix := DefunctPrefix + e.jobPrefix

	var mu sync.Mutex
	var removed []Removed
	var g errgroup.Group

	for _, hc := range e.pool.All() {
		g.Go(func() error {
			containers, err := hc.Client.ListContainers(ctx, engine.ListOptions{
				All:        true,
				NamePrefix: prefix,
			})
			if err != nil {
				e.logger.Error(ctx, "Failed to list defunct containers on host.",
					observe.F("host", hc.Host), observe.F("port", hc.Port),
					observe.F("error", err.Error()))
				return nil
			}

			for _, ctr := range containers {
				if !strings.HasPrefix(ctr.Name(), prefix) {
					continue
				}
				if err := ctr.Remove(ctx); err != nil {
					e.logger.Error(ctx, "Failed to remove defunct container.",
						observe.F("host", hc.Host), observe.F("port", hc.Port),
						observe.F("container_id", ctr.ID()),
						observe.F("error", err.Error()))
					continue
				}

				mu.Lock()
				removed = append(removed, Removed{
					Host:  hc.Address(),
					Name:  ctr.Name(),
					ID:    ctr.ID(),
					Image: ctr.Image(),
				})
				mu.Unlock()
			}
			return nil
		})
	}

	g.Wait()

	e.logger.Info(ctx, "Removed all defunct containers.",
		observe.F("removed", len(removed)))
	return removed, nil
}
