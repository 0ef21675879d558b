package policy

import (
	"context"

	"github.com/orgguard/orgguard/pkg/domain"
)

// EventHandler is the common contract for policy event handlers. Each
// handler is bound to exactly one policy type; the save pipeline resolves
// handlers per (policy type, extension interface) pair.
type EventHandler interface {
	PolicyType() domain.PolicyType
}

// EnforceDependentPoliciesEvent declares the policy types that must be
// enabled before this handler's policy type may be enabled, and that in turn
// prevent it from being disabled while they remain enabled.
type EnforceDependentPoliciesEvent interface {
	EventHandler
	RequiredPolicies() []domain.PolicyType
}

// ValidationEvent performs business validation of a policy update before
// persistence. A non-empty returned string is a validation failure and
// becomes the BadRequest message; the error return is for collaborator
// failures only.
type ValidationEvent interface {
	EventHandler
	Validate(ctx context.Context, update *domain.PolicyUpdate, current *domain.Policy) (string, error)
}

// PreUpdateEvent runs a side effect immediately before the upsert.
// Execution is best-effort: failures are logged, not propagated.
type PreUpdateEvent interface {
	EventHandler
	ExecutePreUpsert(ctx context.Context, update *domain.PolicyUpdate, current *domain.Policy) error
}

// PostUpdateEvent runs a side effect after the policy has been persisted and
// audited. Execution is best-effort: failures are logged, not propagated.
type PostUpdateEvent interface {
	EventHandler
	ExecutePostUpsert(ctx context.Context, saved *domain.Policy, previous *domain.Policy) error
}
