package requirements

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/orgguard/orgguard/pkg/domain"
)

// The simple per-organization predicate requirements share one shape: filter
// rows through Enforce, index by organization, expose a boolean lookup.

// ResetPasswordRequirement answers whether account recovery auto-enroll is
// in force for an organization.
type ResetPasswordRequirement struct {
	autoEnroll map[uuid.UUID]struct{}
}

// AutoEnrollEnabled reports whether the organization auto-enrolls members
// into account recovery.
func (r ResetPasswordRequirement) AutoEnrollEnabled(orgID uuid.UUID) bool {
	_, ok := r.autoEnroll[orgID]
	return ok
}

// ResetPasswordFactory builds ResetPasswordRequirement.
type ResetPasswordFactory struct {
	Exemptions
}

func NewResetPasswordFactory() ResetPasswordFactory {
	return ResetPasswordFactory{Exemptions: DefaultExemptions()}
}

func (ResetPasswordFactory) PolicyType() domain.PolicyType {
	return domain.PolicyTypeResetPassword
}

func (f ResetPasswordFactory) Create(details []domain.PolicyDetails) (ResetPasswordRequirement, error) {
	autoEnroll := make(map[uuid.UUID]struct{})
	for _, row := range details {
		if !f.Enforce(row) {
			continue
		}
		var data domain.ResetPasswordData
		if err := row.UnmarshalData(&data); err != nil {
			return ResetPasswordRequirement{}, fmt.Errorf("decode account recovery policy for organization %s: %w", row.OrganizationID, err)
		}
		if data.AutoEnrollEnabled {
			autoEnroll[row.OrganizationID] = struct{}{}
		}
	}
	return ResetPasswordRequirement{autoEnroll: autoEnroll}, nil
}

// OrganizationDataOwnershipRequirement answers whether an organization
// requires a default collection for member items.
type OrganizationDataOwnershipRequirement struct {
	orgs map[uuid.UUID]struct{}
}

// RequiresDefaultCollection reports whether the organization enforces data
// ownership for this user.
func (r OrganizationDataOwnershipRequirement) RequiresDefaultCollection(orgID uuid.UUID) bool {
	_, ok := r.orgs[orgID]
	return ok
}

// OrganizationDataOwnershipFactory builds
// OrganizationDataOwnershipRequirement.
type OrganizationDataOwnershipFactory struct {
	Exemptions
}

func NewOrganizationDataOwnershipFactory() OrganizationDataOwnershipFactory {
	return OrganizationDataOwnershipFactory{Exemptions: DefaultExemptions()}
}

func (OrganizationDataOwnershipFactory) PolicyType() domain.PolicyType {
	return domain.PolicyTypeOrganizationDataOwnership
}

func (f OrganizationDataOwnershipFactory) Create(details []domain.PolicyDetails) (OrganizationDataOwnershipRequirement, error) {
	return OrganizationDataOwnershipRequirement{orgs: enforcedOrganizations(f.Enforce, details)}, nil
}

// PersonalOwnershipState describes whether the user may own personal items.
type PersonalOwnershipState string

const (
	PersonalOwnershipAllowed    PersonalOwnershipState = "allowed"
	PersonalOwnershipRestricted PersonalOwnershipState = "restricted"
)

// PersonalOwnershipRequirement restricts personal vault ownership when any
// organization enforces the policy.
type PersonalOwnershipRequirement struct {
	State PersonalOwnershipState
}

// PersonalOwnershipFactory builds PersonalOwnershipRequirement.
type PersonalOwnershipFactory struct {
	Exemptions
}

func NewPersonalOwnershipFactory() PersonalOwnershipFactory {
	return PersonalOwnershipFactory{Exemptions: DefaultExemptions()}
}

func (PersonalOwnershipFactory) PolicyType() domain.PolicyType {
	return domain.PolicyTypePersonalOwnership
}

func (f PersonalOwnershipFactory) Create(details []domain.PolicyDetails) (PersonalOwnershipRequirement, error) {
	if len(enforcedOrganizations(f.Enforce, details)) > 0 {
		return PersonalOwnershipRequirement{State: PersonalOwnershipRestricted}, nil
	}
	return PersonalOwnershipRequirement{State: PersonalOwnershipAllowed}, nil
}

// RequireTwoFactorRequirement answers whether an organization requires
// two-step login. Invited members are included so the requirement applies
// before they join.
type RequireTwoFactorRequirement struct {
	orgs map[uuid.UUID]struct{}
}

// RequiredToJoinOrganization reports whether joining the organization
// requires two-step login.
func (r RequireTwoFactorRequirement) RequiredToJoinOrganization(orgID uuid.UUID) bool {
	_, ok := r.orgs[orgID]
	return ok
}

// RequireTwoFactorFactory builds RequireTwoFactorRequirement. Owners and
// admins are exempt; invited members are not, because the requirement gates
// joining.
type RequireTwoFactorFactory struct {
	Exemptions
}

func NewRequireTwoFactorFactory() RequireTwoFactorFactory {
	return RequireTwoFactorFactory{Exemptions: Exemptions{
		ExemptRoles: []domain.OrganizationUserType{
			domain.OrganizationUserTypeOwner,
			domain.OrganizationUserTypeAdmin,
		},
		ExemptStatuses:  []domain.OrganizationUserStatus{domain.OrganizationUserStatusRevoked},
		ExemptProviders: true,
	}}
}

func (RequireTwoFactorFactory) PolicyType() domain.PolicyType {
	return domain.PolicyTypeTwoFactorAuthentication
}

func (f RequireTwoFactorFactory) Create(details []domain.PolicyDetails) (RequireTwoFactorRequirement, error) {
	return RequireTwoFactorRequirement{orgs: enforcedOrganizations(f.Enforce, details)}, nil
}

// DisableSendRequirement disables Send creation when any organization
// enforces the policy.
type DisableSendRequirement struct {
	DisableSend bool
}

// DisableSendFactory builds DisableSendRequirement.
type DisableSendFactory struct {
	Exemptions
}

func NewDisableSendFactory() DisableSendFactory {
	return DisableSendFactory{Exemptions: DefaultExemptions()}
}

func (DisableSendFactory) PolicyType() domain.PolicyType {
	return domain.PolicyTypeDisableSend
}

func (f DisableSendFactory) Create(details []domain.PolicyDetails) (DisableSendRequirement, error) {
	return DisableSendRequirement{DisableSend: len(enforcedOrganizations(f.Enforce, details)) > 0}, nil
}

// SendOptionsRequirement is the merged Send option restrictions across every
// applicable policy (logical OR).
type SendOptionsRequirement struct {
	DisableHideEmail bool
}

// SendOptionsFactory builds SendOptionsRequirement.
type SendOptionsFactory struct {
	Exemptions
}

func NewSendOptionsFactory() SendOptionsFactory {
	return SendOptionsFactory{Exemptions: DefaultExemptions()}
}

func (SendOptionsFactory) PolicyType() domain.PolicyType {
	return domain.PolicyTypeSendOptions
}

func (f SendOptionsFactory) Create(details []domain.PolicyDetails) (SendOptionsRequirement, error) {
	var requirement SendOptionsRequirement
	for _, row := range details {
		if !f.Enforce(row) {
			continue
		}
		var data domain.SendOptionsData
		if err := row.UnmarshalData(&data); err != nil {
			return SendOptionsRequirement{}, fmt.Errorf("decode send options policy for organization %s: %w", row.OrganizationID, err)
		}
		requirement.DisableHideEmail = requirement.DisableHideEmail || data.DisableHideEmail
	}
	return requirement, nil
}

// DefaultFactories returns every compiled-in requirement factory.
func DefaultFactories() []any {
	return []any{
		SingleOrganizationFactory{},
		NewMasterPasswordFactory(),
		NewResetPasswordFactory(),
		NewOrganizationDataOwnershipFactory(),
		NewPersonalOwnershipFactory(),
		NewRequireTwoFactorFactory(),
		NewDisableSendFactory(),
		NewSendOptionsFactory(),
	}
}
