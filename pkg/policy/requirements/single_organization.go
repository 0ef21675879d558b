package requirements

import (
	"errors"

	"github.com/google/uuid"

	"github.com/orgguard/orgguard/pkg/domain"
)

// Violations reported by SingleOrganizationRequirement. Callers surface the
// message and may branch with errors.Is.
var (
	ErrCannotCreateOrganization           = errors.New("You may not create an organization. You belong to an organization which has a policy that prohibits you from being a member of any other organization.")
	ErrMemberOfAnotherOrganization        = errors.New("You are a member of another organization which is not compliant with the single organization policy.")
	ErrOtherOrganizationRequiresSingleOrg = errors.New("You cannot join this organization because you are a member of another organization which forbids it.")
)

// SingleOrganizationRequirement aggregates all of a user's
// single-organization policy rows. The five queries below are pure functions
// over constructor state plus their arguments.
type SingleOrganizationRequirement struct {
	details []domain.PolicyDetails
}

// NewSingleOrganizationRequirement builds the requirement from the user's
// single-organization PolicyDetails rows.
func NewSingleOrganizationRequirement(details []domain.PolicyDetails) SingleOrganizationRequirement {
	return SingleOrganizationRequirement{details: append([]domain.PolicyDetails(nil), details...)}
}

// CanCreateOrganization reports whether any accepted or confirmed membership
// carries the policy. Invited and revoked rows do not block.
func (r SingleOrganizationRequirement) CanCreateOrganization() error {
	for _, row := range r.details {
		if rowIsActive(row) {
			return ErrCannotCreateOrganization
		}
	}
	return nil
}

// IsEnabledForTargetOrganization reports whether the target organization has
// the policy enabled for this user.
func (r SingleOrganizationRequirement) IsEnabledForTargetOrganization(targetOrgID uuid.UUID) bool {
	for _, row := range r.details {
		if row.OrganizationID == targetOrgID {
			return true
		}
	}
	return false
}

// IsCompliantWithTargetOrganization checks that, when the target
// organization enforces the policy, the user holds no membership in any
// other organization.
func (r SingleOrganizationRequirement) IsCompliantWithTargetOrganization(targetOrgID uuid.UUID, allOrgUsers []domain.OrganizationUser) error {
	if !r.IsEnabledForTargetOrganization(targetOrgID) {
		return nil
	}
	for _, member := range allOrgUsers {
		if member.OrganizationID != targetOrgID {
			return ErrMemberOfAnotherOrganization
		}
	}
	return nil
}

// IsEnabledForOtherOrganizationsUserIsAPartOf checks whether an accepted or
// confirmed membership in any organization other than the target carries the
// policy.
func (r SingleOrganizationRequirement) IsEnabledForOtherOrganizationsUserIsAPartOf(targetOrgID uuid.UUID) error {
	for _, row := range r.details {
		if row.OrganizationID != targetOrgID && rowIsActive(row) {
			return ErrOtherOrganizationRequiresSingleOrg
		}
	}
	return nil
}

// CanJoinOrganization evaluates the target-organization check first; when
// both checks would fail, the target-organization violation wins.
func (r SingleOrganizationRequirement) CanJoinOrganization(targetOrgID uuid.UUID, allOrgUsers []domain.OrganizationUser) error {
	if err := r.IsCompliantWithTargetOrganization(targetOrgID, allOrgUsers); err != nil {
		return err
	}
	return r.IsEnabledForOtherOrganizationsUserIsAPartOf(targetOrgID)
}

func rowIsActive(row domain.PolicyDetails) bool {
	return row.OrganizationUserStatus == domain.OrganizationUserStatusAccepted ||
		row.OrganizationUserStatus == domain.OrganizationUserStatusConfirmed
}

// SingleOrganizationFactory builds SingleOrganizationRequirement. The
// requirement inspects status per row itself, so no rows are pre-filtered.
type SingleOrganizationFactory struct{}

func (SingleOrganizationFactory) PolicyType() domain.PolicyType {
	return domain.PolicyTypeSingleOrg
}

func (SingleOrganizationFactory) Enforce(domain.PolicyDetails) bool {
	return true
}

func (SingleOrganizationFactory) Create(details []domain.PolicyDetails) (SingleOrganizationRequirement, error) {
	return NewSingleOrganizationRequirement(details), nil
}
