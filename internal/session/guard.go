package session

import (
	"context"

	"github.com/Mohsinsiddi/memefactory/internal/errs"
	"github.com/Mohsinsiddi/memefactory/internal/metrics"
	"github.com/Mohsinsiddi/memefactory/internal/provider"
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
)

// EnsureTargetChain makes sure the provider is on the target chain. When
// the wallet does not know the chain it is added once; the add is not
// followed by another switch request.
func (m *Manager) EnsureTargetChain(ctx context.Context) error {
	target := m.opts.Target.ChainID
	current, err := m.p.ChainID(ctx)
	if err != nil {
		return switchFailed(errors.Wrap(err, "reading chain id"))
	}
	if sameChain(current, target) {
		metrics.NetworkSwitches.WithLabelValues("already").Inc()
		return nil
	}

	log := m.log.WithFields(logrus.Fields{"from": current, "to": target})
	err = m.p.SwitchChain(ctx, target)
	if err == nil {
		metrics.NetworkSwitches.WithLabelValues("switched").Inc()
		log.Info("switched network")
		return nil
	}
	if code, ok := provider.ErrorCode(err); !ok || code != provider.CodeUnrecognizedChain {
		return switchFailed(errors.Wrapf(err, "switching to %s", target))
	}

	log.Info("network unknown to wallet, adding it")
	if err := m.p.AddChain(ctx, m.chainParams()); err != nil {
		return switchFailed(errors.Wrapf(err, "adding %s", target))
	}
	metrics.NetworkSwitches.WithLabelValues("added").Inc()
	return nil
}

func (m *Manager) chainParams() provider.ChainParams {
	n := m.opts.Target
	p := provider.ChainParams{
		ChainID:   n.ChainID,
		ChainName: n.Name,
		NativeCurrency: provider.Currency{
			Name:     n.CurrencyName,
			Symbol:   n.CurrencySymbol,
			Decimals: n.CurrencyDecimals,
		},
		RPCURLs: append([]string(nil), n.RPCURLs...),
	}
	if n.ExplorerURL != "" {
		p.BlockExplorerURLs = []string{n.ExplorerURL}
	}
	return p
}

func switchFailed(err error) error {
	metrics.NetworkSwitches.WithLabelValues("failed").Inc()
	err = errs.Mark(err, errs.ErrNetworkSwitchFailed)
	if code, ok := provider.ErrorCode(err); ok && code == provider.CodeUserRejected {
		err = errs.Mark(err, errs.ErrUserRejected)
	}
	return err
}
