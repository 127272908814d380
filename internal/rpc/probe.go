package rpc

import (
	"context"
	"fmt"
	"time"

	"github.com/Mohsinsiddi/memefactory/internal/chain"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// probeTimeout bounds a single endpoint probe.
const probeTimeout = 5 * time.Second

// ErrWrongChain marks an endpoint that answers for a different chain.
type ErrWrongChain struct {
	Want, Got int64
}

func (e *ErrWrongChain) Error() string {
	return fmt.Sprintf("endpoint serves chain %d, want %d", e.Got, e.Want)
}

// Probe pings every URL in parallel. When wantChainID is non-zero an
// endpoint on any other chain is marked unhealthy.
func Probe(ctx context.Context, urls []string, wantChainID int64) []Endpoint {
	out := make([]Endpoint, len(urls))
	var g errgroup.Group
	for i, u := range urls {
		g.Go(func() error {
			out[i] = probeOne(ctx, u, wantChainID)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func probeOne(ctx context.Context, url string, wantChainID int64) Endpoint {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	c := chain.NewEVMClient(url)
	ep := Endpoint{URL: url}
	ep.Latency, ep.BlockNumber, ep.Err = c.Ping(ctx)
	if ep.Err != nil || wantChainID == 0 {
		return ep
	}

	id, err := c.ChainID(ctx)
	if err != nil {
		ep.Err = err
		return ep
	}
	ep.ChainID = id.Int64()
	if ep.ChainID != wantChainID {
		ep.Err = &ErrWrongChain{Want: wantChainID, Got: ep.ChainID}
	}
	return ep
}

// Select probes urls and returns the one the picker prefers. A single URL
// is returned without probing.
func Select(ctx context.Context, urls []string, p *Picker, wantChainID int64, log logrus.FieldLogger) (string, error) {
	switch len(urls) {
	case 0:
		return "", ErrNoHealthyRPC
	case 1:
		return urls[0], nil
	}

	endpoints := Probe(ctx, urls, wantChainID)
	for _, e := range endpoints {
		entry := log.WithField("url", e.URL)
		if e.Err != nil {
			entry.WithError(e.Err).Debug("rpc endpoint unhealthy")
			continue
		}
		entry.WithFields(logrus.Fields{
			"latency": e.Latency,
			"block":   e.BlockNumber,
		}).Debug("rpc endpoint probed")
	}

	winner, err := p.Pick(endpoints)
	if err != nil {
		return "", err
	}
	log.WithField("url", winner.URL).Debug("rpc endpoint selected")
	return winner.URL, nil
}
