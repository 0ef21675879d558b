package domain

import (
	"encoding/json"

	"github.com/google/uuid"
)

// OrganizationUserType is the member's role within an organization.
type OrganizationUserType string

const (
	OrganizationUserTypeOwner  OrganizationUserType = "owner"
	OrganizationUserTypeAdmin  OrganizationUserType = "admin"
	OrganizationUserTypeUser   OrganizationUserType = "user"
	OrganizationUserTypeCustom OrganizationUserType = "custom"
)

// OrganizationUserStatus tracks the membership lifecycle.
type OrganizationUserStatus string

const (
	OrganizationUserStatusInvited   OrganizationUserStatus = "invited"
	OrganizationUserStatusAccepted  OrganizationUserStatus = "accepted"
	OrganizationUserStatusConfirmed OrganizationUserStatus = "confirmed"
	OrganizationUserStatusRevoked   OrganizationUserStatus = "revoked"
)

// PolicyDetails is the per-(user, organization, policy-type) projection used
// as the atomic input to requirement evaluation. Rows are produced by joining
// enabled policies with the requesting user's memberships; they are derived,
// read-only, and never persisted.
type PolicyDetails struct {
	OrganizationID         uuid.UUID
	PolicyType             PolicyType
	PolicyEnabled          bool
	PolicyData             json.RawMessage
	OrganizationUserType   OrganizationUserType
	OrganizationUserStatus OrganizationUserStatus
	IsProviderManaged      bool
}

// UnmarshalData decodes the row's policy payload into out. A nil or empty
// payload leaves out untouched.
func (d PolicyDetails) UnmarshalData(out any) error {
	if len(d.PolicyData) == 0 {
		return nil
	}
	return json.Unmarshal(d.PolicyData, out)
}
