// Package storage declares the persistence contracts consumed by the policy
// engine and provides in-memory implementations. Real persistence (SQL,
// caches) lives behind these interfaces in the deployment, not here.
package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/orgguard/orgguard/pkg/domain"
)

// PolicyStore exposes persistence operations for organization policies.
type PolicyStore interface {
	// GetByOrganizationIDAndType returns the policy row for (orgID, policyType),
	// or domain.ErrPolicyNotFound if none exists.
	GetByOrganizationIDAndType(ctx context.Context, orgID uuid.UUID, policyType domain.PolicyType) (*domain.Policy, error)
	// GetManyByOrganizationID returns every policy row for the organization.
	GetManyByOrganizationID(ctx context.Context, orgID uuid.UUID) ([]*domain.Policy, error)
	// GetPolicyDetailsByUserID returns one row per (membership, enabled
	// policy) pair across all of the user's organizations.
	GetPolicyDetailsByUserID(ctx context.Context, userID uuid.UUID) ([]domain.PolicyDetails, error)
	// Upsert inserts or replaces the row keyed by (OrganizationID, Type).
	Upsert(ctx context.Context, policy *domain.Policy) error
}

// OrganizationStore exposes the organization lookups the engine needs.
type OrganizationStore interface {
	// GetOrganizationAbility returns the cached capability flags for the
	// organization, or nil when the organization does not exist.
	GetOrganizationAbility(ctx context.Context, orgID uuid.UUID) (*domain.OrganizationAbility, error)
	// GetManyUsersByUserID returns every membership row for the user.
	GetManyUsersByUserID(ctx context.Context, userID uuid.UUID) ([]domain.OrganizationUser, error)
}

// EventStore records audit events. Emission is best-effort with respect to
// the policy write; there is no shared transaction boundary.
type EventStore interface {
	LogPolicyEvent(ctx context.Context, policy *domain.Policy, eventType domain.EventType) error
}

// CollectionStore provisions organization collections for post-save side
// effects.
type CollectionStore interface {
	// CreateDefaultCollection creates the named default collection for the
	// organization if it does not already exist.
	CreateDefaultCollection(ctx context.Context, orgID uuid.UUID, name string) error
}
