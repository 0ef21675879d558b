package policy

import (
	"context"

	"github.com/orgguard/orgguard/pkg/domain"
)

// MaximumVaultTimeoutValidator rejects enabling the vault timeout policy
// with a missing or non-positive timeout.
type MaximumVaultTimeoutValidator struct{}

func (MaximumVaultTimeoutValidator) PolicyType() domain.PolicyType {
	return domain.PolicyTypeMaximumVaultTimeout
}

func (MaximumVaultTimeoutValidator) Validate(_ context.Context, update *domain.PolicyUpdate, _ *domain.Policy) (string, error) {
	if !update.Enabled {
		return "", nil
	}
	var data domain.MaximumVaultTimeoutData
	if err := update.UnmarshalData(&data); err != nil {
		return "Invalid vault timeout configuration.", nil
	}
	if data.Minutes <= 0 {
		return "Maximum vault timeout must be greater than 0.", nil
	}
	return "", nil
}

// ResetPasswordValidator rejects enabling account recovery with a malformed
// payload.
type ResetPasswordValidator struct{}

func (ResetPasswordValidator) PolicyType() domain.PolicyType {
	return domain.PolicyTypeResetPassword
}

func (ResetPasswordValidator) Validate(_ context.Context, update *domain.PolicyUpdate, _ *domain.Policy) (string, error) {
	if !update.Enabled {
		return "", nil
	}
	var data domain.ResetPasswordData
	if err := update.UnmarshalData(&data); err != nil {
		return "Invalid account recovery configuration.", nil
	}
	return "", nil
}
