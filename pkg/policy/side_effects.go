package policy

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/orgguard/orgguard/pkg/domain"
)

// CollectionCreator provisions organization-owned default collections. It is
// an external collaborator; the engine only triggers it.
type CollectionCreator interface {
	CreateDefaultCollection(ctx context.Context, orgID uuid.UUID, name string) error
}

const defaultCollectionName = "Default"

// OrganizationDataOwnershipPolicyHandler provisions the organization's
// default collection when the data ownership policy transitions to enabled.
// The provisioning call is best-effort relative to the policy save.
type OrganizationDataOwnershipPolicyHandler struct {
	collections CollectionCreator
}

// NewOrganizationDataOwnershipPolicyHandler wires the collection
// collaborator.
func NewOrganizationDataOwnershipPolicyHandler(collections CollectionCreator) *OrganizationDataOwnershipPolicyHandler {
	return &OrganizationDataOwnershipPolicyHandler{collections: collections}
}

func (h *OrganizationDataOwnershipPolicyHandler) PolicyType() domain.PolicyType {
	return domain.PolicyTypeOrganizationDataOwnership
}

// ExecutePostUpsert creates the default collection on a disabled→enabled
// transition.
func (h *OrganizationDataOwnershipPolicyHandler) ExecutePostUpsert(ctx context.Context, saved, previous *domain.Policy) error {
	if h.collections == nil || !saved.Enabled {
		return nil
	}
	if previous != nil && previous.Enabled {
		return nil
	}

	name := defaultCollectionName
	var data domain.OrganizationDataOwnershipData
	if err := saved.UnmarshalData(&data); err == nil && data.DefaultCollectionName != "" {
		name = data.DefaultCollectionName
	}
	if err := h.collections.CreateDefaultCollection(ctx, saved.OrganizationID, name); err != nil {
		return fmt.Errorf("create default collection: %w", err)
	}
	return nil
}
