package policy

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/orgguard/orgguard/pkg/domain"
	"github.com/orgguard/orgguard/pkg/telemetry"
)

// PolicyRepository is the slice of the policy store the save pipeline needs.
type PolicyRepository interface {
	GetManyByOrganizationID(ctx context.Context, orgID uuid.UUID) ([]*domain.Policy, error)
	Upsert(ctx context.Context, policy *domain.Policy) error
}

// AbilityProvider resolves the cached capability flags for an organization.
type AbilityProvider interface {
	GetOrganizationAbility(ctx context.Context, orgID uuid.UUID) (*domain.OrganizationAbility, error)
}

// AuditLogger records policy audit events. Emission is best-effort relative
// to the upsert; there is no shared transaction boundary.
type AuditLogger interface {
	LogPolicyEvent(ctx context.Context, policy *domain.Policy, eventType domain.EventType) error
}

// SavePolicyCommand orchestrates policy writes: eligibility check,
// dependency-graph enforcement, business validation, persistence, audit.
// Any failure before the upsert aborts with nothing persisted.
type SavePolicyCommand struct {
	abilities AbilityProvider
	policies  PolicyRepository
	audit     AuditLogger
	handlers  *EventHandlerFactory
	logger    *slog.Logger
	now       func() time.Time
}

// SaveOption customizes SavePolicyCommand construction.
type SaveOption func(*SavePolicyCommand)

// WithClock overrides the time source used to stamp CreationDate and
// RevisionDate.
func WithClock(now func() time.Time) SaveOption {
	return func(c *SavePolicyCommand) {
		c.now = now
	}
}

// NewSavePolicyCommand builds the save pipeline. Construction fails
// immediately when two or more dependency or validation handlers are
// registered for the same policy type; that misconfiguration must refuse to
// start rather than run inconsistently.
func NewSavePolicyCommand(
	abilities AbilityProvider,
	policies PolicyRepository,
	audit AuditLogger,
	handlers *EventHandlerFactory,
	logger *slog.Logger,
	opts ...SaveOption,
) (*SavePolicyCommand, error) {
	for _, policyType := range domain.AllPolicyTypes() {
		if _, _, err := GetHandler[EnforceDependentPoliciesEvent](handlers, policyType); err != nil {
			return nil, err
		}
		if _, _, err := GetHandler[ValidationEvent](handlers, policyType); err != nil {
			return nil, err
		}
	}

	command := &SavePolicyCommand{
		abilities: abilities,
		policies:  policies,
		audit:     audit,
		handlers:  handlers,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(command)
	}
	return command, nil
}

// Save validates and persists one policy update, returning the saved policy.
// Every BadRequest path returns before any store write.
func (c *SavePolicyCommand) Save(ctx context.Context, update *domain.PolicyUpdate) (*domain.Policy, error) {
	start := c.now()
	saved, err := c.save(ctx, update)
	telemetry.RecordPolicySave(ctx, telemetry.PolicySaveMetrics{
		PolicyType: update.Type,
		Enabled:    update.Enabled,
		Outcome:    telemetry.SaveOutcome(err),
		Duration:   c.now().Sub(start),
	})
	return saved, err
}

func (c *SavePolicyCommand) save(ctx context.Context, update *domain.PolicyUpdate) (*domain.Policy, error) {
	ability, err := c.abilities.GetOrganizationAbility(ctx, update.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("load organization ability: %w", err)
	}
	if ability == nil {
		return nil, domain.BadRequest("Organization not found")
	}
	if !ability.UsePolicies {
		return nil, domain.BadRequest("This organization cannot use policies.")
	}

	existing, err := c.policies.GetManyByOrganizationID(ctx, update.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("load organization policies: %w", err)
	}
	byType := make(map[domain.PolicyType]*domain.Policy, len(existing))
	for _, p := range existing {
		byType[p.Type] = p
	}
	current := byType[update.Type]

	if update.Enabled {
		if err := c.enforceRequiredPolicies(update, byType); err != nil {
			return nil, err
		}
	} else {
		if err := c.enforceNoEnabledDependents(update, existing); err != nil {
			return nil, err
		}
	}

	validator, ok, err := GetHandler[ValidationEvent](c.handlers, update.Type)
	if err != nil {
		return nil, err
	}
	if ok {
		message, err := validator.Validate(ctx, update, current)
		if err != nil {
			return nil, fmt.Errorf("validate %s policy: %w", update.Type.Name(), err)
		}
		if message != "" {
			return nil, domain.BadRequest("%s", message)
		}
	}

	now := c.now()
	policy := &domain.Policy{
		OrganizationID: update.OrganizationID,
		Type:           update.Type,
		Enabled:        update.Enabled,
		Data:           update.Data,
		RevisionDate:   now,
	}
	if current != nil {
		policy.ID = current.ID
		policy.CreationDate = current.CreationDate
	} else {
		policy.ID = uuid.New()
		policy.CreationDate = now
	}

	c.runPreUpdate(ctx, update, current)

	if err := c.policies.Upsert(ctx, policy); err != nil {
		return nil, fmt.Errorf("upsert %s policy: %w", update.Type.Name(), err)
	}

	if err := c.audit.LogPolicyEvent(ctx, policy, domain.EventTypePolicyUpdated); err != nil {
		// At-least-once, best-effort: the policy change is already durable.
		c.logger.Error("policy audit event failed",
			"organization_id", policy.OrganizationID,
			"policy_type", policy.Type,
			"error", err,
		)
	}

	c.runPostUpdate(ctx, policy, current)

	c.logger.Info("policy saved",
		"organization_id", policy.OrganizationID,
		"policy_type", policy.Type,
		"enabled", policy.Enabled,
	)
	return policy, nil
}

// enforceRequiredPolicies checks that every declared prerequisite of the
// policy being enabled is present and enabled in the organization.
func (c *SavePolicyCommand) enforceRequiredPolicies(update *domain.PolicyUpdate, byType map[domain.PolicyType]*domain.Policy) error {
	handler, ok, err := GetHandler[EnforceDependentPoliciesEvent](c.handlers, update.Type)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	for _, required := range handler.RequiredPolicies() {
		existing := byType[required]
		if existing == nil || !existing.Enabled {
			return domain.BadRequest("Turn on the %s policy because it is required for the %s policy.",
				required.Name(), update.Type.Name())
		}
	}
	return nil
}

// enforceNoEnabledDependents checks that no other enabled policy in the
// organization declares the policy being disabled as a prerequisite.
func (c *SavePolicyCommand) enforceNoEnabledDependents(update *domain.PolicyUpdate, existing []*domain.Policy) error {
	var dependents []string
	for _, other := range existing {
		if other.Type == update.Type || !other.Enabled {
			continue
		}
		handler, ok, err := GetHandler[EnforceDependentPoliciesEvent](c.handlers, other.Type)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if slices.Contains(handler.RequiredPolicies(), update.Type) {
			dependents = append(dependents, other.Type.Name())
		}
	}
	switch len(dependents) {
	case 0:
		return nil
	case 1:
		return domain.BadRequest("Turn off the %s policy because it requires the %s policy.",
			dependents[0], update.Type.Name())
	default:
		sort.Strings(dependents)
		return domain.BadRequest("Turn off all of the policies that require the %s policy: %s.",
			update.Type.Name(), strings.Join(dependents, ", "))
	}
}

func (c *SavePolicyCommand) runPreUpdate(ctx context.Context, update *domain.PolicyUpdate, current *domain.Policy) {
	handler, ok, err := GetHandler[PreUpdateEvent](c.handlers, update.Type)
	if err != nil || !ok {
		return
	}
	if err := handler.ExecutePreUpsert(ctx, update, current); err != nil {
		c.logger.Warn("policy pre-update side effect failed",
			"policy_type", update.Type,
			"error", err,
		)
	}
}

func (c *SavePolicyCommand) runPostUpdate(ctx context.Context, saved, previous *domain.Policy) {
	handler, ok, err := GetHandler[PostUpdateEvent](c.handlers, saved.Type)
	if err != nil || !ok {
		return
	}
	if err := handler.ExecutePostUpsert(ctx, saved, previous); err != nil {
		c.logger.Warn("policy post-update side effect failed",
			"policy_type", saved.Type,
			"error", err,
		)
	}
}
