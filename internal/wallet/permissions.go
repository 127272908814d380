package wallet

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Mohsinsiddi/memefactory/internal/config"
)

// Permissions persists which addresses may be exposed through eth_accounts
// and which chain the local wallet is pointed at.
type Permissions struct {
	mu   sync.Mutex
	path string
	mem  config.Permissions // used when path is empty
}

// NewPermissions opens the permissions file at path. An empty path keeps
// state in memory only.
func NewPermissions(path string) *Permissions {
	return &Permissions{path: path}
}

func (p *Permissions) read() (*config.Permissions, error) {
	if p.path == "" {
		cp := p.mem
		cp.Authorized = append([]string(nil), p.mem.Authorized...)
		return &cp, nil
	}
	v, err := config.LoadJSON[config.Permissions](p.path)
	if err != nil {
		return nil, fmt.Errorf("reading permissions: %w", err)
	}
	return v, nil
}

func (p *Permissions) write(v *config.Permissions) error {
	if p.path == "" {
		p.mem = *v
		return nil
	}
	return config.SaveJSON(p.path, v)
}

// Authorized returns the granted addresses, most recent grant first.
func (p *Permissions) Authorized() ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, err := p.read()
	if err != nil {
		return nil, err
	}
	return v.Authorized, nil
}

// IsAuthorized reports whether address has been granted, ignoring case.
func (p *Permissions) IsAuthorized(address string) (bool, error) {
	list, err := p.Authorized()
	if err != nil {
		return false, err
	}
	for _, a := range list {
		if strings.EqualFold(a, address) {
			return true, nil
		}
	}
	return false, nil
}

// Grant moves address to the front of the authorized list.
func (p *Permissions) Grant(address string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, err := p.read()
	if err != nil {
		return err
	}
	out := []string{address}
	for _, a := range v.Authorized {
		if !strings.EqualFold(a, address) {
			out = append(out, a)
		}
	}
	v.Authorized = out
	return p.write(v)
}

// Revoke removes address. Revoking an unknown address is a no-op.
func (p *Permissions) Revoke(address string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, err := p.read()
	if err != nil {
		return err
	}
	out := v.Authorized[:0]
	for _, a := range v.Authorized {
		if !strings.EqualFold(a, address) {
			out = append(out, a)
		}
	}
	v.Authorized = out
	return p.write(v)
}

// RevokeAll clears every grant.
func (p *Permissions) RevokeAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, err := p.read()
	if err != nil {
		return err
	}
	v.Authorized = nil
	return p.write(v)
}

// ChainID returns the hex chain ID the wallet is pointed at, or fallback
// when none has been chosen yet.
func (p *Permissions) ChainID(fallback string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, err := p.read()
	if err != nil {
		return "", err
	}
	if v.ChainID == "" {
		return fallback, nil
	}
	return v.ChainID, nil
}

// SetChainID records the chain the wallet is pointed at.
func (p *Permissions) SetChainID(hexID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, err := p.read()
	if err != nil {
		return err
	}
	v.ChainID = hexID
	return p.write(v)
}
