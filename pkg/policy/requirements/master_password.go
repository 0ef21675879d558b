package requirements

import (
	"fmt"

	"github.com/orgguard/orgguard/pkg/domain"
)

// EnforcedMasterPasswordOptions is the merged option set across every
// applicable master password policy.
type EnforcedMasterPasswordOptions struct {
	MinLength      int
	RequireLower   bool
	RequireUpper   bool
	RequireNumbers bool
	RequireSpecial bool
	EnforceOnLogin bool
}

// MasterPasswordRequirement is the restrictive union of the user's master
// password policies: MinLength takes the maximum, each flag the logical OR.
// The merge is associative and commutative, so row order never matters.
type MasterPasswordRequirement struct {
	Enabled         bool
	EnforcedOptions *EnforcedMasterPasswordOptions
}

func mergeMasterPasswordOptions(merged EnforcedMasterPasswordOptions, next domain.MasterPasswordPolicyOptions) EnforcedMasterPasswordOptions {
	if next.MinLength != nil && *next.MinLength > merged.MinLength {
		merged.MinLength = *next.MinLength
	}
	merged.RequireLower = merged.RequireLower || boolValue(next.RequireLower)
	merged.RequireUpper = merged.RequireUpper || boolValue(next.RequireUpper)
	merged.RequireNumbers = merged.RequireNumbers || boolValue(next.RequireNumbers)
	merged.RequireSpecial = merged.RequireSpecial || boolValue(next.RequireSpecial)
	merged.EnforceOnLogin = merged.EnforceOnLogin || boolValue(next.EnforceOnLogin)
	return merged
}

func boolValue(b *bool) bool {
	return b != nil && *b
}

// MasterPasswordFactory builds MasterPasswordRequirement with the default
// exemptions.
type MasterPasswordFactory struct {
	Exemptions
}

// NewMasterPasswordFactory constructs the factory.
func NewMasterPasswordFactory() MasterPasswordFactory {
	return MasterPasswordFactory{Exemptions: DefaultExemptions()}
}

func (MasterPasswordFactory) PolicyType() domain.PolicyType {
	return domain.PolicyTypeMasterPassword
}

func (f MasterPasswordFactory) Create(details []domain.PolicyDetails) (MasterPasswordRequirement, error) {
	var merged *EnforcedMasterPasswordOptions
	for _, row := range details {
		if !f.Enforce(row) {
			continue
		}
		var options domain.MasterPasswordPolicyOptions
		if err := row.UnmarshalData(&options); err != nil {
			return MasterPasswordRequirement{}, fmt.Errorf("decode master password policy for organization %s: %w", row.OrganizationID, err)
		}
		if merged == nil {
			merged = &EnforcedMasterPasswordOptions{}
		}
		*merged = mergeMasterPasswordOptions(*merged, options)
	}
	if merged == nil {
		return MasterPasswordRequirement{}, nil
	}
	return MasterPasswordRequirement{Enabled: true, EnforcedOptions: merged}, nil
}
