// Package requirements computes per-user policy requirements: for one
// requirement type it aggregates every PolicyDetails row the user has across
// all their organizations into a single immutable value.
//
// Requirement values are pure functions of their input rows. They perform no
// I/O, hold no hidden state, and are safe to share read-only across
// goroutines.
package requirements

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/orgguard/orgguard/pkg/domain"
)

// Factory builds one requirement type T from the user's PolicyDetails rows
// of the factory's policy type. Factories receive the entire unfiltered row
// set for their type and decide per-row applicability through Enforce; this
// lets a requirement see exempted rows too.
type Factory[T any] interface {
	// PolicyType is the policy type this factory consumes.
	PolicyType() domain.PolicyType
	// Enforce reports whether a single row counts toward the requirement.
	Enforce(details domain.PolicyDetails) bool
	// Create combines the rows into the requirement value.
	Create(details []domain.PolicyDetails) (T, error)
}

// Exemptions is the common per-row applicability rule shared by concrete
// factories: a row is not enforced when the member's role or status is
// exempt, or when the membership is provider-managed and providers are
// exempt.
type Exemptions struct {
	ExemptRoles     []domain.OrganizationUserType
	ExemptStatuses  []domain.OrganizationUserStatus
	ExemptProviders bool
}

// DefaultExemptions exempts invited and revoked members and
// provider-managed memberships.
func DefaultExemptions() Exemptions {
	return Exemptions{
		ExemptStatuses: []domain.OrganizationUserStatus{
			domain.OrganizationUserStatusInvited,
			domain.OrganizationUserStatusRevoked,
		},
		ExemptProviders: true,
	}
}

// Enforce implements the shared exemption rule.
func (e Exemptions) Enforce(details domain.PolicyDetails) bool {
	for _, role := range e.ExemptRoles {
		if details.OrganizationUserType == role {
			return false
		}
	}
	for _, status := range e.ExemptStatuses {
		if details.OrganizationUserStatus == status {
			return false
		}
	}
	if details.IsProviderManaged && e.ExemptProviders {
		return false
	}
	return true
}

// DetailsLoader loads every PolicyDetails row for a user in one fetch,
// spanning all their organizations and policy types.
type DetailsLoader interface {
	GetPolicyDetailsByUserID(ctx context.Context, userID uuid.UUID) ([]domain.PolicyDetails, error)
}

// Query dispatches requirement computation to the factory registered for
// the requested requirement type. The factory set is fixed at construction.
type Query struct {
	loader    DetailsLoader
	factories []any
}

// NewQuery registers the factory set. Registering two factories for the
// same policy type is a startup configuration error.
func NewQuery(loader DetailsLoader, factories ...any) (*Query, error) {
	seen := make(map[domain.PolicyType]bool, len(factories))
	for _, factory := range factories {
		typed, ok := factory.(interface{ PolicyType() domain.PolicyType })
		if !ok {
			return nil, fmt.Errorf("requirement factory %T does not declare a policy type", factory)
		}
		policyType := typed.PolicyType()
		if seen[policyType] {
			return nil, fmt.Errorf("duplicate requirement factory registered for the %s policy", policyType.Name())
		}
		seen[policyType] = true
	}
	return &Query{loader: loader, factories: factories}, nil
}

// Get computes the requirement T for the user. An unregistered T fails with
// a NotImplementedError: a silent default requirement would be a security
// hole, so missing configuration must be loud.
func Get[T any](ctx context.Context, q *Query, userID uuid.UUID) (T, error) {
	var zero T

	var factory Factory[T]
	found := false
	for _, candidate := range q.factories {
		typed, ok := candidate.(Factory[T])
		if !ok {
			continue
		}
		if found {
			return zero, fmt.Errorf("multiple requirement factories registered for %T", zero)
		}
		factory = typed
		found = true
	}
	if !found {
		return zero, &domain.NotImplementedError{Requirement: fmt.Sprintf("%T", zero)}
	}

	details, err := q.loader.GetPolicyDetailsByUserID(ctx, userID)
	if err != nil {
		return zero, fmt.Errorf("load policy details: %w", err)
	}

	relevant := make([]domain.PolicyDetails, 0, len(details))
	for _, row := range details {
		if row.PolicyType == factory.PolicyType() {
			relevant = append(relevant, row)
		}
	}
	return factory.Create(relevant)
}

// enforcedOrganizations indexes the organizations with at least one enforced
// row, the shared shape of the simple per-organization predicate factories.
func enforcedOrganizations(enforce func(domain.PolicyDetails) bool, details []domain.PolicyDetails) map[uuid.UUID]struct{} {
	orgs := make(map[uuid.UUID]struct{})
	for _, row := range details {
		if enforce(row) {
			orgs[row.OrganizationID] = struct{}{}
		}
	}
	return orgs
}
