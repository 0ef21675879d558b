package domain

import "github.com/google/uuid"

// OrganizationAbility is the cached capability flag set for an organization.
type OrganizationAbility struct {
	ID          uuid.UUID
	UsePolicies bool
}

// OrganizationUser is one user's membership in one organization.
type OrganizationUser struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	UserID         uuid.UUID
	Type           OrganizationUserType
	Status         OrganizationUserStatus
}
