package farm

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net"
	"regexp"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/shipyard/blacklist"
	"github.com/jonwraymond/shipyard/breaker"
	"github.com/jonwraymond/shipyard/engine"
	"github.com/jonwraymond/shipyard/observe"
)

// HostClient pairs one engine host with its client handle. Created once at
// pool construction and never mutated.
type HostClient struct {
	Host   string
	Port   int
	Client engine.Client
}

// Address returns the host:port key identifying this host.
func (hc HostClient) Address() string {
	return net.JoinHostPort(hc.Host, strconv.Itoa(hc.Port))
}

// Dialer makes an engine client for a host:port address.
type Dialer func(address string) (engine.Client, error)

// DockerDialer dials the Docker engine at the address.
func DockerDialer(address string) (engine.Client, error) {
	return engine.NewDockerClient(address)
}

// Pool owns the engine clients for all configured farms.
type Pool struct {
	entries   []poolEntry
	byAddress map[string]HostClient
	logger    observe.Logger
}

type poolEntry struct {
	farm    Farm
	clients []HostClient
}

// NewPool builds a pool from the ordered farm list, dialing one client per
// distinct host:port.
func NewPool(farms []Farm, dial Dialer, logger observe.Logger) (*Pool, error) {
	if dial == nil {
		dial = DockerDialer
	}
	if logger == nil {
		logger = observe.NopLogger()
	}

	p := &Pool{
		byAddress: make(map[string]HostClient),
		logger:    logger,
	}

	for _, f := range farms {
		entry := poolEntry{farm: f}
		for _, address := range f.Hosts {
			hc, ok := p.byAddress[address]
			if !ok {
				host, portStr, err := net.SplitHostPort(address)
				if err != nil {
					return nil, fmt.Errorf("farm: host %q is not host:port: %w", address, err)
				}
				port, err := strconv.Atoi(portStr)
				if err != nil {
					return nil, fmt.Errorf("farm: host %q has a non-numeric port: %w", address, err)
				}

				client, err := dial(address)
				if err != nil {
					return nil, err
				}

				hc = HostClient{Host: host, Port: port, Client: client}
				p.byAddress[address] = hc
			}
			entry.clients = append(entry.clients, hc)
		}
		p.entries = append(p.entries, entry)
	}

	return p, nil
}

// GetExplicit looks up the client for an already-bound host. No breaker or
// blacklist consultation happens here; the binding is authoritative.
func (p *Pool) GetExplicit(host string, port int) (HostClient, bool) {
	hc, ok := p.byAddress[net.JoinHostPort(host, strconv.Itoa(port))]
	return hc, ok
}

// All returns every host in the pool, across all farms.
func (p *Pool) All() []HostClient {
	out := make([]HostClient, 0, len(p.byAddress))
	seen := make(map[string]struct{}, len(p.byAddress))
	for _, entry := range p.entries {
		for _, hc := range entry.clients {
			if _, dup := seen[hc.Address()]; dup {
				continue
			}
			seen[hc.Address()] = struct{}{}
			out = append(out, hc)
		}
	}
	return out
}

// FirstMatch returns the first farm whose pattern accepts taskID, with its
// hosts.
func (p *Pool) FirstMatch(taskID string) (Farm, []HostClient, bool) {
	for _, entry := range p.entries {
		if entry.farm.Match != nil && !entry.farm.Match.MatchString(taskID) {
			continue
		}
		return entry.farm, entry.clients, true
	}
	return Farm{}, nil, false
}

// FarmClients returns the hosts of the farm carrying the given pattern, or
// every host when match is nil.
func (p *Pool) FarmClients(match *regexp.Regexp) []HostClient {
	if match == nil {
		return p.All()
	}
	for _, entry := range p.entries {
		if entry.farm.Match == match {
			return entry.clients
		}
	}
	return nil
}

// Select picks an eligible host for taskID. Farms are tried in declaration
// order; within the first matching farm that has eligible hosts, the pick
// is uniformly random. A host is eligible when it is not blacklisted and
// its breaker is closed after the refresh probe.
func (p *Pool) Select(ctx context.Context, breakers *breaker.Registry, taskID string, bl blacklist.Snapshot) (HostClient, error) {
	logger := p.logger.With(observe.F("task_id", taskID))

	for _, entry := range p.entries {
		if entry.farm.Match != nil && !entry.farm.Match.MatchString(taskID) {
			logger.Debug(ctx, "Task id does not match farm pattern.",
				observe.F("match", entry.farm.Match.String()))
			continue
		}

		p.refresh(ctx, breakers, entry.clients, bl)

		var eligible []HostClient
		for _, hc := range entry.clients {
			if bl.Has(hc.Address()) {
				continue
			}
			if breakers.Get(hc.Address()).State(ctx) != breaker.StateClosed {
				continue
			}
			eligible = append(eligible, hc)
		}

		if len(eligible) == 0 {
			logger.Debug(ctx, "No non-blacklisted host with a closed breaker in farm.")
			continue
		}

		hc := eligible[rand.IntN(len(eligible))]
		logger.Info(ctx, "Selected engine host.",
			observe.F("host", hc.Host), observe.F("port", hc.Port))
		return hc, nil
	}

	logger.Error(ctx, "Failed to find an engine host for task.")
	return HostClient{}, &NoHostAvailableError{TaskID: taskID}
}

// refresh probes every non-blacklisted host in the farm through its breaker
// so breakers that have cooled past their reset timeout can transition out
// of open before eligibility is decided. Probe failures are logged and
// otherwise ignored; they keep (or trip) the breaker open, which is the
// point.
func (p *Pool) refresh(ctx context.Context, breakers *breaker.Registry, clients []HostClient, bl blacklist.Snapshot) {
	var g errgroup.Group

	for _, hc := range clients {
		if bl.Has(hc.Address()) {
			continue
		}

		g.Go(func() error {
			p.logger.Debug(ctx, "Refreshing host.",
				observe.F("host", hc.Host), observe.F("port", hc.Port))

			err := breakers.Get(hc.Address()).Execute(ctx, func(ctx context.Context) error {
				_, err := hc.Client.ListContainers(ctx, engine.ListOptions{})
				return err
			})
			if err != nil {
				p.logger.Error(ctx, "Failed to refresh host.",
					observe.F("host", hc.Host), observe.F("port", hc.Port),
					observe.F("error", err.Error()))
			}
			return nil
		})
	}

	g.Wait()
}
