package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/orgguard/orgguard/pkg/domain"
)

// MemoryStore is an in-memory implementation of PolicyStore,
// OrganizationStore, and EventStore. It backs the binary in single-process
// deployments and the test suites.
type MemoryStore struct {
	mu          sync.RWMutex
	policies    map[string]*domain.Policy
	abilities   map[uuid.UUID]*domain.OrganizationAbility
	members     map[uuid.UUID][]domain.OrganizationUser
	events      []PolicyEventRecord
	collections []CollectionRecord
}

// PolicyEventRecord is one audit entry captured by the memory store.
type PolicyEventRecord struct {
	Policy    domain.Policy
	EventType domain.EventType
}

// CollectionRecord is one default collection provisioned by the memory store.
type CollectionRecord struct {
	OrganizationID uuid.UUID
	Name           string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		policies:  make(map[string]*domain.Policy),
		abilities: make(map[uuid.UUID]*domain.OrganizationAbility),
		members:   make(map[uuid.UUID][]domain.OrganizationUser),
	}
}

func policyKey(orgID uuid.UUID, policyType domain.PolicyType) string {
	return fmt.Sprintf("%s:%s", orgID, policyType)
}

// GetByOrganizationIDAndType retrieves one policy row.
func (s *MemoryStore) GetByOrganizationIDAndType(_ context.Context, orgID uuid.UUID, policyType domain.PolicyType) (*domain.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	policy, ok := s.policies[policyKey(orgID, policyType)]
	if !ok {
		return nil, domain.ErrPolicyNotFound
	}
	clone := *policy
	return &clone, nil
}

// GetManyByOrganizationID retrieves every policy row for the organization.
func (s *MemoryStore) GetManyByOrganizationID(_ context.Context, orgID uuid.UUID) ([]*domain.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Policy
	for _, policy := range s.policies {
		if policy.OrganizationID == orgID {
			clone := *policy
			result = append(result, &clone)
		}
	}
	return result, nil
}

// GetPolicyDetailsByUserID joins enabled policies with the user's
// memberships, one row per (membership, enabled policy) pair.
func (s *MemoryStore) GetPolicyDetailsByUserID(_ context.Context, userID uuid.UUID) ([]domain.PolicyDetails, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var details []domain.PolicyDetails
	for _, member := range s.members[userID] {
		for _, policy := range s.policies {
			if policy.OrganizationID != member.OrganizationID || !policy.Enabled {
				continue
			}
			details = append(details, domain.PolicyDetails{
				OrganizationID:         policy.OrganizationID,
				PolicyType:             policy.Type,
				PolicyEnabled:          policy.Enabled,
				PolicyData:             policy.Data,
				OrganizationUserType:   member.Type,
				OrganizationUserStatus: member.Status,
			})
		}
	}
	return details, nil
}

// Upsert inserts or replaces the row keyed by (OrganizationID, Type).
func (s *MemoryStore) Upsert(_ context.Context, policy *domain.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *policy
	s.policies[policyKey(policy.OrganizationID, policy.Type)] = &clone
	return nil
}

// GetOrganizationAbility returns the capability flags, or nil when unknown.
func (s *MemoryStore) GetOrganizationAbility(_ context.Context, orgID uuid.UUID) (*domain.OrganizationAbility, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ability, ok := s.abilities[orgID]
	if !ok {
		return nil, nil
	}
	clone := *ability
	return &clone, nil
}

// GetManyUsersByUserID returns every membership row for the user.
func (s *MemoryStore) GetManyUsersByUserID(_ context.Context, userID uuid.UUID) ([]domain.OrganizationUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.OrganizationUser(nil), s.members[userID]...), nil
}

// LogPolicyEvent appends an audit record.
func (s *MemoryStore) LogPolicyEvent(_ context.Context, policy *domain.Policy, eventType domain.EventType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, PolicyEventRecord{Policy: *policy, EventType: eventType})
	return nil
}

// CreateDefaultCollection records a default collection for the organization.
// Creation is idempotent per (organization, name) pair.
func (s *MemoryStore) CreateDefaultCollection(_ context.Context, orgID uuid.UUID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.collections {
		if existing.OrganizationID == orgID && existing.Name == name {
			return nil
		}
	}
	s.collections = append(s.collections, CollectionRecord{OrganizationID: orgID, Name: name})
	return nil
}

// Collections returns a copy of the provisioned default collections.
func (s *MemoryStore) Collections() []CollectionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]CollectionRecord(nil), s.collections...)
}

// PolicyEvents returns a copy of the captured audit records.
func (s *MemoryStore) PolicyEvents() []PolicyEventRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]PolicyEventRecord(nil), s.events...)
}

// SetOrganizationAbility seeds the capability cache for an organization.
func (s *MemoryStore) SetOrganizationAbility(ability domain.OrganizationAbility) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := ability
	s.abilities[ability.ID] = &clone
}

// AddOrganizationUser seeds a membership row.
func (s *MemoryStore) AddOrganizationUser(user domain.OrganizationUser) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.members[user.UserID] = append(s.members[user.UserID], user)
}
