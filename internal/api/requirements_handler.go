package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/orgguard/orgguard/pkg/policy/requirements"
)

// userRequirementsResponse is the aggregated policy view for one user against
// one target organization. Clients use it to gate organization-scoped actions
// without re-deriving policy semantics.
type userRequirementsResponse struct {
	SingleOrganizationEnabled bool                    `json:"single_organization_enabled"`
	RequireTwoFactorToJoin    bool                    `json:"require_two_factor_to_join"`
	AccountRecoveryAutoEnroll bool                    `json:"account_recovery_auto_enroll"`
	RequiresDefaultCollection bool                    `json:"requires_default_collection"`
	PersonalOwnership         string                  `json:"personal_ownership"`
	DisableSend               bool                    `json:"disable_send"`
	SendDisableHideEmail      bool                    `json:"send_disable_hide_email"`
	MasterPassword            *masterPasswordResponse `json:"master_password,omitempty"`
}

type masterPasswordResponse struct {
	MinLength      int  `json:"min_length"`
	RequireLower   bool `json:"require_lower"`
	RequireUpper   bool `json:"require_upper"`
	RequireNumbers bool `json:"require_numbers"`
	RequireSpecial bool `json:"require_special"`
	EnforceOnLogin bool `json:"enforce_on_login"`
}

func (s *Server) handleUserRequirements(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.PathValue("userID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id.")
		return
	}
	orgID, err := uuid.Parse(r.PathValue("orgID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid organization id.")
		return
	}

	resp, err := s.buildUserRequirements(r.Context(), userID, orgID)
	if err != nil {
		s.internalError(w, r, "user requirements", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) buildUserRequirements(ctx context.Context, userID, orgID uuid.UUID) (*userRequirementsResponse, error) {
	singleOrg, err := requirements.Get[requirements.SingleOrganizationRequirement](ctx, s.requirements, userID)
	if err != nil {
		return nil, err
	}
	twoFactor, err := requirements.Get[requirements.RequireTwoFactorRequirement](ctx, s.requirements, userID)
	if err != nil {
		return nil, err
	}
	resetPassword, err := requirements.Get[requirements.ResetPasswordRequirement](ctx, s.requirements, userID)
	if err != nil {
		return nil, err
	}
	dataOwnership, err := requirements.Get[requirements.OrganizationDataOwnershipRequirement](ctx, s.requirements, userID)
	if err != nil {
		return nil, err
	}
	personalOwnership, err := requirements.Get[requirements.PersonalOwnershipRequirement](ctx, s.requirements, userID)
	if err != nil {
		return nil, err
	}
	disableSend, err := requirements.Get[requirements.DisableSendRequirement](ctx, s.requirements, userID)
	if err != nil {
		return nil, err
	}
	sendOptions, err := requirements.Get[requirements.SendOptionsRequirement](ctx, s.requirements, userID)
	if err != nil {
		return nil, err
	}
	masterPassword, err := requirements.Get[requirements.MasterPasswordRequirement](ctx, s.requirements, userID)
	if err != nil {
		return nil, err
	}

	resp := &userRequirementsResponse{
		SingleOrganizationEnabled: singleOrg.IsEnabledForTargetOrganization(orgID),
		RequireTwoFactorToJoin:    twoFactor.RequiredToJoinOrganization(orgID),
		AccountRecoveryAutoEnroll: resetPassword.AutoEnrollEnabled(orgID),
		RequiresDefaultCollection: dataOwnership.RequiresDefaultCollection(orgID),
		PersonalOwnership:         string(personalOwnership.State),
		DisableSend:               disableSend.DisableSend,
		SendDisableHideEmail:      sendOptions.DisableHideEmail,
	}
	if masterPassword.Enabled && masterPassword.EnforcedOptions != nil {
		resp.MasterPassword = &masterPasswordResponse{
			MinLength:      masterPassword.EnforcedOptions.MinLength,
			RequireLower:   masterPassword.EnforcedOptions.RequireLower,
			RequireUpper:   masterPassword.EnforcedOptions.RequireUpper,
			RequireNumbers: masterPassword.EnforcedOptions.RequireNumbers,
			RequireSpecial: masterPassword.EnforcedOptions.RequireSpecial,
			EnforceOnLogin: masterPassword.EnforcedOptions.EnforceOnLogin,
		}
	}
	return resp, nil
}
