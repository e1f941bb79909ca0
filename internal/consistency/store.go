package consistency

import (
	"errors"
	"fmt"

	"rtl-layout-auditor/internal/models"
)

// ErrInvalidObservation is returned when a collaborator hands over an
// observation with non-positive dimensions.
var ErrInvalidObservation = errors.New("invalid element observation")

// PositionStore accumulates element observations for one audit run.
// It is not safe for concurrent use; audits record pages sequentially.
type PositionStore struct {
	observations []models.ElementObservation
	pages        []string
	seen         map[string]bool
}

// NewPositionStore creates an empty store
func NewPositionStore() *PositionStore {
	return &PositionStore{
		seen: make(map[string]bool),
	}
}

// Record appends a page's observations. The same role may appear several
// times on one page. Nothing is recorded if any observation is invalid.
func (s *PositionStore) Record(pageID string, observations []models.ElementObservation) error {
	for i, obs := range observations {
		if !obs.Valid() {
			return fmt.Errorf("%w: page %s element %d (%s) has size %dx%d",
				ErrInvalidObservation, pageID, i, obs.Role, obs.Box.Width, obs.Box.Height)
		}
	}

	for _, obs := range observations {
		obs.Page = pageID
		s.observations = append(s.observations, obs)
	}

	if !s.seen[pageID] {
		s.seen[pageID] = true
		s.pages = append(s.pages, pageID)
	}
	return nil
}

// Reset clears all accumulated state so the store can serve another run
func (s *PositionStore) Reset() {
	s.observations = nil
	s.pages = nil
	s.seen = make(map[string]bool)
}

// Len returns the number of recorded observations
func (s *PositionStore) Len() int {
	return len(s.observations)
}

// Pages returns the recorded page IDs in recording order
func (s *PositionStore) Pages() []string {
	out := make([]string, len(s.pages))
	copy(out, s.pages)
	return out
}

// Observations returns a copy of all observations in recording order
func (s *PositionStore) Observations() []models.ElementObservation {
	out := make([]models.ElementObservation, len(s.observations))
	copy(out, s.observations)
	return out
}

// PageObservations returns the observations recorded for one page
func (s *PositionStore) PageObservations(pageID string) []models.ElementObservation {
	var out []models.ElementObservation
	for _, obs := range s.observations {
		if obs.Page == pageID {
			out = append(out, obs)
		}
	}
	return out
}

// RoleGroup is the set of observations sharing a role
type RoleGroup struct {
	Role         models.Role
	Observations []models.ElementObservation
}

// ByRole groups observations by role. Groups are ordered by the first
// appearance of their role and keep recording order within a group.
func (s *PositionStore) ByRole() []RoleGroup {
	return groupByRole(s.observations)
}

func groupByRole(observations []models.ElementObservation) []RoleGroup {
	index := make(map[models.Role]int)
	var groups []RoleGroup

	for _, obs := range observations {
		i, ok := index[obs.Role]
		if !ok {
			i = len(groups)
			index[obs.Role] = i
			groups = append(groups, RoleGroup{Role: obs.Role})
		}
		groups[i].Observations = append(groups[i].Observations, obs)
	}
	return groups
}
