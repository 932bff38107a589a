package node

import (
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/evalchain/evalchain/log"
	"github.com/evalchain/evalchain/metrics"
	"github.com/evalchain/evalchain/registry"
)

// Node assembles the evaluation registry with its host collaborators:
// logger, metrics registry, event bus, and optional metrics HTTP
// exposition.
type Node struct {
	config Config

	registry *registry.Registry
	bus      *EventBus
	metrics  *metrics.Registry
	lg       *log.Logger

	mu       sync.Mutex
	running  bool
	httpSrv  *http.Server
	httpDone chan struct{}
}

// New creates a Node with the given configuration. The registry is ready
// for use immediately; Start is only needed for the metrics endpoint.
func New(config Config) (*Node, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	level := log.LevelFromString(config.LogLevel).SlogLevel()
	var lg *log.Logger
	if config.LogFormat == "text" {
		lg = log.NewText(level)
	} else {
		lg = log.New(level)
	}
	lg = lg.With("node", config.Name)
	mt := metrics.NewRegistry()
	bus := NewEventBus(config.EventBuffer)

	reg, err := registry.New(registry.Config{
		Admin:   config.AdminAddress(),
		Sink:    bus,
		Logger:  lg.Module("registry"),
		Metrics: mt,
	})
	if err != nil {
		return nil, fmt.Errorf("init registry: %w", err)
	}

	return &Node{
		config:   config,
		registry: reg,
		bus:      bus,
		metrics:  mt,
		lg:       lg.Module("node"),
	}, nil
}

// Registry returns the node's evaluation registry.
func (n *Node) Registry() *registry.Registry {
	return n.registry
}

// Bus returns the node's event bus. Subscribers receive every registry
// event published after they subscribe.
func (n *Node) Bus() *EventBus {
	return n.bus
}

// Metrics returns the node's metrics registry.
func (n *Node) Metrics() *metrics.Registry {
	return n.metrics
}

// Start launches the metrics HTTP endpoint when configured. Idempotent
// until Stop is called.
func (n *Node) Start() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.running {
		return nil
	}
	n.running = true

	if n.config.MetricsAddr != "" {
		ln, err := net.Listen("tcp", n.config.MetricsAddr)
		if err != nil {
			n.running = false
			return fmt.Errorf("metrics listen: %w", err)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", n.metrics.Handler("evalchain"))
		n.httpSrv = &http.Server{Handler: mux}
		n.httpDone = make(chan struct{})
		go func() {
			defer close(n.httpDone)
			if err := n.httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
				n.lg.Error("metrics server stopped", "err", err)
			}
		}()
		n.lg.Info("metrics endpoint up", "addr", ln.Addr().String())
	}

	n.lg.Info("node started", "name", n.config.Name)
	return nil
}

// Stop shuts down the metrics endpoint and closes the event bus.
func (n *Node) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.running {
		return
	}
	n.running = false

	if n.httpSrv != nil {
		n.httpSrv.Close()
		<-n.httpDone
		n.httpSrv = nil
	}
	n.bus.Close()
	n.lg.Info("node stopped")
}
