package policy

import "github.com/orgguard/orgguard/pkg/domain"

// Dependency declarations for the compiled-in policy graph. Each handler
// binds one policy type to the prerequisites that must be enabled first.

// RequireSsoPolicyHandler: SSO enforcement only makes sense once members are
// locked to a single organization.
type RequireSsoPolicyHandler struct{}

func (RequireSsoPolicyHandler) PolicyType() domain.PolicyType {
	return domain.PolicyTypeRequireSso
}

func (RequireSsoPolicyHandler) RequiredPolicies() []domain.PolicyType {
	return []domain.PolicyType{domain.PolicyTypeSingleOrg}
}

// ResetPasswordPolicyHandler: account recovery administration requires the
// single organization policy.
type ResetPasswordPolicyHandler struct{}

func (ResetPasswordPolicyHandler) PolicyType() domain.PolicyType {
	return domain.PolicyTypeResetPassword
}

func (ResetPasswordPolicyHandler) RequiredPolicies() []domain.PolicyType {
	return []domain.PolicyType{domain.PolicyTypeSingleOrg}
}

// MaximumVaultTimeoutPolicyHandler: the vault timeout cap requires the
// single organization policy.
type MaximumVaultTimeoutPolicyHandler struct{}

func (MaximumVaultTimeoutPolicyHandler) PolicyType() domain.PolicyType {
	return domain.PolicyTypeMaximumVaultTimeout
}

func (MaximumVaultTimeoutPolicyHandler) RequiredPolicies() []domain.PolicyType {
	return []domain.PolicyType{domain.PolicyTypeSingleOrg}
}

// DefaultHandlers returns the full handler set registered at startup:
// dependency declarations, validators, and side-effect hooks for the
// compiled-in policy types.
func DefaultHandlers(collections CollectionCreator) []EventHandler {
	return []EventHandler{
		RequireSsoPolicyHandler{},
		ResetPasswordPolicyHandler{},
		MaximumVaultTimeoutPolicyHandler{},
		MaximumVaultTimeoutValidator{},
		ResetPasswordValidator{},
		&OrganizationDataOwnershipPolicyHandler{collections: collections},
	}
}
