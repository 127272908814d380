package storage

import (
	"slices"
	"strings"
	"time"

	"github.com/Mohsinsiddi/memefactory/internal/format"
)

// RecentToken is a token the user looked at.
type RecentToken struct {
	Address  string    `json:"address"`
	Name     string    `json:"name"`
	Symbol   string    `json:"symbol"`
	ViewedAt time.Time `json:"viewedAt"`
}

// RecentTokens returns the recently viewed tokens, most recent first.
func (s *Store) RecentTokens() ([]RecentToken, error) {
	var list []RecentToken
	if _, err := s.getJSON(RecentTokensKey, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// AddRecentToken moves t to the front, dropping older entries with the
// same address and anything past the cap.
func (s *Store) AddRecentToken(t RecentToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var list []RecentToken
	if _, err := s.getJSON(RecentTokensKey, &list); err != nil {
		return err
	}
	list = format.Dedupe(append([]RecentToken{t}, list...), func(r RecentToken) string {
		return strings.ToLower(r.Address)
	})
	if len(list) > s.recentMax {
		list = list[:s.recentMax]
	}
	return s.putJSON(RecentTokensKey, list)
}

// RemoveRecentToken drops address from the list.
func (s *Store) RemoveRecentToken(address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var list []RecentToken
	if _, err := s.getJSON(RecentTokensKey, &list); err != nil {
		return err
	}
	list = slices.DeleteFunc(list, func(r RecentToken) bool { return strings.EqualFold(r.Address, address) })
	return s.putJSON(RecentTokensKey, list)
}

// ClearRecentTokens empties the list.
func (s *Store) ClearRecentTokens() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putJSON(RecentTokensKey, []RecentToken{})
}
