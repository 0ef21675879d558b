package domain

// Opaque policy payload schemas. Each schema belongs to exactly one
// PolicyType; pointer fields distinguish "unset" from zero values so that
// merges can treat absence as no constraint.

// MasterPasswordPolicyOptions is the payload for PolicyTypeMasterPassword.
type MasterPasswordPolicyOptions struct {
	MinLength      *int  `json:"minLength,omitempty"`
	RequireLower   *bool `json:"requireLower,omitempty"`
	RequireUpper   *bool `json:"requireUpper,omitempty"`
	RequireNumbers *bool `json:"requireNumbers,omitempty"`
	RequireSpecial *bool `json:"requireSpecial,omitempty"`
	EnforceOnLogin *bool `json:"enforceOnLogin,omitempty"`
}

// ResetPasswordData is the payload for PolicyTypeResetPassword.
type ResetPasswordData struct {
	AutoEnrollEnabled bool `json:"autoEnrollEnabled"`
}

// SendOptionsData is the payload for PolicyTypeSendOptions.
type SendOptionsData struct {
	DisableHideEmail bool `json:"disableHideEmail"`
}

// MaximumVaultTimeoutData is the payload for PolicyTypeMaximumVaultTimeout.
type MaximumVaultTimeoutData struct {
	Minutes int     `json:"minutes"`
	Action  *string `json:"action,omitempty"`
}

// OrganizationDataOwnershipData is the payload for
// PolicyTypeOrganizationDataOwnership.
type OrganizationDataOwnershipData struct {
	DefaultCollectionName string `json:"defaultCollectionName,omitempty"`
}
