package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PolicyType identifies one of the compiled-in organization policy types.
// The set is closed; there is no user-extensible rule surface.
type PolicyType string

const (
	// PolicyTypeTwoFactorAuthentication requires members to set up two-step login.
	PolicyTypeTwoFactorAuthentication PolicyType = "two_factor_authentication"
	// PolicyTypeMasterPassword enforces master password complexity requirements.
	PolicyTypeMasterPassword PolicyType = "master_password"
	// PolicyTypeSingleOrg restricts members to a single organization.
	PolicyTypeSingleOrg PolicyType = "single_org"
	// PolicyTypeRequireSso requires members to authenticate through SSO.
	PolicyTypeRequireSso PolicyType = "require_sso"
	// PolicyTypeOrganizationDataOwnership routes member items into
	// organization-owned default collections instead of personal vaults.
	PolicyTypeOrganizationDataOwnership PolicyType = "organization_data_ownership"
	// PolicyTypePersonalOwnership disables personal vault ownership.
	PolicyTypePersonalOwnership PolicyType = "personal_ownership"
	// PolicyTypeDisableSend blocks members from creating Sends.
	PolicyTypeDisableSend PolicyType = "disable_send"
	// PolicyTypeSendOptions restricts Send creation options.
	PolicyTypeSendOptions PolicyType = "send_options"
	// PolicyTypeResetPassword enables administrative account recovery.
	PolicyTypeResetPassword PolicyType = "reset_password"
	// PolicyTypeMaximumVaultTimeout caps the member vault timeout.
	PolicyTypeMaximumVaultTimeout PolicyType = "maximum_vault_timeout"
	// PolicyTypeActivateAutofill turns on auto-fill for all members.
	PolicyTypeActivateAutofill PolicyType = "activate_autofill"
)

var policyTypeNames = map[PolicyType]string{
	PolicyTypeTwoFactorAuthentication:   "Require two-step login",
	PolicyTypeMasterPassword:            "Master password requirements",
	PolicyTypeSingleOrg:                 "Single organization",
	PolicyTypeRequireSso:                "Require single sign-on authentication",
	PolicyTypeOrganizationDataOwnership: "Organization data ownership",
	PolicyTypePersonalOwnership:         "Remove individual vault",
	PolicyTypeDisableSend:               "Remove Send",
	PolicyTypeSendOptions:               "Send options",
	PolicyTypeResetPassword:             "Account recovery administration",
	PolicyTypeMaximumVaultTimeout:       "Vault timeout",
	PolicyTypeActivateAutofill:          "Active auto-fill",
}

// AllPolicyTypes lists every compiled-in policy type.
func AllPolicyTypes() []PolicyType {
	return []PolicyType{
		PolicyTypeTwoFactorAuthentication,
		PolicyTypeMasterPassword,
		PolicyTypeSingleOrg,
		PolicyTypeRequireSso,
		PolicyTypeOrganizationDataOwnership,
		PolicyTypePersonalOwnership,
		PolicyTypeDisableSend,
		PolicyTypeSendOptions,
		PolicyTypeResetPassword,
		PolicyTypeMaximumVaultTimeout,
		PolicyTypeActivateAutofill,
	}
}

// Valid reports whether t is one of the compiled-in policy types.
func (t PolicyType) Valid() bool {
	_, ok := policyTypeNames[t]
	return ok
}

// Name returns the human-readable policy name used in user-facing messages.
func (t PolicyType) Name() string {
	if name, ok := policyTypeNames[t]; ok {
		return name
	}
	return string(t)
}

// Policy is an organization-scoped security control. At most one policy row
// exists per (OrganizationID, Type) pair.
type Policy struct {
	ID             uuid.UUID       `json:"id"`
	OrganizationID uuid.UUID       `json:"organization_id"`
	Type           PolicyType      `json:"type"`
	Enabled        bool            `json:"enabled"`
	Data           json.RawMessage `json:"data,omitempty"`
	CreationDate   time.Time       `json:"creation_date"`
	RevisionDate   time.Time       `json:"revision_date"`
}

// UnmarshalData decodes the opaque configuration payload into out. A nil or
// empty payload leaves out untouched.
func (p *Policy) UnmarshalData(out any) error {
	if len(p.Data) == 0 {
		return nil
	}
	return json.Unmarshal(p.Data, out)
}

// PolicyUpdate is the write intent for one (organization, type) policy.
type PolicyUpdate struct {
	OrganizationID uuid.UUID
	Type           PolicyType
	Enabled        bool
	Data           json.RawMessage
	// PerformedBy identifies the acting principal, when known.
	PerformedBy *uuid.UUID
}

// UnmarshalData decodes the update payload into out. A nil or empty payload
// leaves out untouched.
func (u *PolicyUpdate) UnmarshalData(out any) error {
	if len(u.Data) == 0 {
		return nil
	}
	return json.Unmarshal(u.Data, out)
}
