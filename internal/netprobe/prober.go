// Package netprobe decides whether the network is reachable by opening TCP
// connections to a set of well known addresses.
package netprobe

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	defaultInterval = 10 * time.Second
	defaultTimeout  = 3 * time.Second
	maxConcurrent   = 4
)

// DialFunc opens a connection, net.Dialer.DialContext by default
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Prober reports the network online while at least one of its addresses
// accepts a TCP connection. The zero value of the reachability is online,
// so a Prober that has not run yet never blocks a connect.
type Prober struct {
	Addresses []string
	Interval  time.Duration
	Timeout   time.Duration
	Dial      DialFunc
	Logger    *log.Entry

	offline atomic.Bool
}

// Online reports the result of the last probe
func (p *Prober) Online() bool {
	return !p.offline.Load()
}

// Run probes immediately and then every interval until ctx is done. Every
// result is sent on updates when it is not nil.
func (p *Prober) Run(ctx context.Context, updates chan<- bool) error {
	if len(p.Addresses) == 0 {
		return errors.New("netprobe: no addresses to probe")
	}
	interval := p.Interval
	if interval <= 0 {
		interval = defaultInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		online := p.Probe(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if wasOnline := !p.offline.Swap(!online); wasOnline != online {
			p.logger().WithField("online", online).Info("Network reachability changed")
		}

		if updates != nil {
			select {
			case updates <- online:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Probe dials every address concurrently and reports whether any of
// them answered
func (p *Prober) Probe(ctx context.Context) bool {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	dial := p.Dial
	if dial == nil {
		dialer := &net.Dialer{}
		dial = dialer.DialContext
	}

	var reachable atomic.Bool
	g := errgroup.Group{}
	g.SetLimit(maxConcurrent)
	for _, addr := range p.Addresses {
		addr := addr
		g.Go(func() error {
			probeCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			conn, err := dial(probeCtx, "tcp", addr)
			if err != nil {
				p.logger().WithField("address", addr).Debugf("Probe failed: %v", err)
				return nil
			}
			conn.Close()
			reachable.Store(true)
			return nil
		})
	}
	g.Wait()
	return reachable.Load()
}

func (p *Prober) logger() *log.Entry {
	if p.Logger != nil {
		return p.Logger
	}
	return log.WithField("component", "netprobe")
}
