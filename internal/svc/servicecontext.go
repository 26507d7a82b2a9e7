package svc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"hypergate/internal/config"
	"hypergate/pkg/exchange"
	"hypergate/pkg/exchange/hyperliquid"
	"hypergate/pkg/orders"
	"hypergate/pkg/precision"
	"hypergate/pkg/pricetape"
	"hypergate/pkg/twap"
)

// ServiceContext wires the gateway's components. The tape, pipeline, and
// scheduler are built once per process; a network switch swaps the upstream
// client underneath them.
type ServiceContext struct {
	Config config.Config

	Table     *precision.Table
	Tape      *pricetape.Tape
	Pipeline  *orders.Pipeline
	Scheduler *twap.Scheduler

	upstream *upstream

	mu          sync.RWMutex
	network     precision.Network
	initialized bool
}

func NewServiceContext(c config.Config) *ServiceContext {
	network := c.Network()

	var signer hyperliquid.Signer
	if c.PrivateKey != "" {
		s, err := hyperliquid.NewPrivateKeySigner(c.PrivateKey)
		if err != nil {
			logx.Must(fmt.Errorf("svc: invalid private key: %w", err))
		}
		signer = s
	} else {
		logx.Info("svc: no private key configured, trading endpoints disabled")
	}

	up := &upstream{client: buildClient(&c, signer, network)}
	table := precision.NewTable()
	tape := pricetape.NewTape(up, network, table,
		pricetape.WithPollInterval(time.Duration(c.Upstream.PollIntervalMs)*time.Millisecond),
		pricetape.WithAssetTTL(time.Duration(c.Upstream.AssetTTLSeconds)*time.Second))
	pipeline := orders.NewPipeline(up, tape, tape, table)
	scheduler := twap.NewScheduler(pipeline, tape, table)

	return &ServiceContext{
		Config:      c,
		Table:       table,
		Tape:        tape,
		Pipeline:    pipeline,
		Scheduler:   scheduler,
		upstream:    up,
		network:     network,
		initialized: signer != nil,
	}
}

func buildClient(c *config.Config, signer hyperliquid.Signer, network precision.Network) *hyperliquid.Client {
	return hyperliquid.NewClient(signer, network == precision.NetworkTestnet,
		hyperliquid.WithTimeout(time.Duration(c.Upstream.TimeoutSeconds)*time.Second),
		hyperliquid.WithRateLimit(c.Upstream.RateLimitPerSecond, c.Upstream.RateLimitBurst),
	)
}

// Start launches the price tape poll loop.
func (s *ServiceContext) Start() {
	s.Tape.Start()
}

// Stop shuts the tape down and detaches all SSE subscribers.
func (s *ServiceContext) Stop() {
	s.Tape.Stop()
}

// Info exposes the read-only upstream endpoints through the swappable handle.
func (s *ServiceContext) Info() exchange.Info {
	return s.upstream
}

// Transport exposes the signed upstream endpoints through the swappable handle.
func (s *ServiceContext) Transport() exchange.Transport {
	return s.upstream
}

// Network reports the currently selected upstream network.
func (s *ServiceContext) Network() precision.Network {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.network
}

// Initialized reports whether a signer is configured, i.e. whether trading
// endpoints are usable.
func (s *ServiceContext) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

// Address returns the signer address, empty in read-only mode.
func (s *ServiceContext) Address() string {
	return s.upstream.current().Address()
}

// SwitchNetwork rebuilds the upstream client for the requested network and
// refreshes the tape synchronously. Running TWAP tasks are unaffected; their
// next sub-orders go to the new network.
func (s *ServiceContext) SwitchNetwork(ctx context.Context, network precision.Network) error {
	if !network.Valid() {
		return fmt.Errorf("svc: invalid network %q", network)
	}

	s.mu.Lock()
	if network == s.network {
		s.mu.Unlock()
		return nil
	}

	var signer hyperliquid.Signer
	if s.Config.PrivateKey != "" {
		signer, _ = hyperliquid.NewPrivateKeySigner(s.Config.PrivateKey)
	}
	s.upstream.swap(buildClient(&s.Config, signer, network))
	s.network = network
	s.mu.Unlock()

	logx.WithContext(ctx).Infof("svc: switched upstream network to %s", network)
	if err := s.Tape.SwitchNetwork(ctx, s.upstream, network); err != nil {
		// The switch stands; prices arrive on the next poll.
		logx.WithContext(ctx).Errorf("svc: post-switch price fetch failed: %v", err)
	}
	return nil
}
