package storage

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgguard/orgguard/pkg/domain"
)

func TestMemoryStorePolicyRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	orgID := uuid.New()

	_, err := store.GetByOrganizationIDAndType(ctx, orgID, domain.PolicyTypeSingleOrg)
	assert.ErrorIs(t, err, domain.ErrPolicyNotFound)

	policy := &domain.Policy{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Type:           domain.PolicyTypeSingleOrg,
		Enabled:        true,
	}
	require.NoError(t, store.Upsert(ctx, policy))

	got, err := store.GetByOrganizationIDAndType(ctx, orgID, domain.PolicyTypeSingleOrg)
	require.NoError(t, err)
	assert.Equal(t, policy.ID, got.ID)

	// The store hands out copies; mutating a result must not leak back.
	got.Enabled = false
	again, err := store.GetByOrganizationIDAndType(ctx, orgID, domain.PolicyTypeSingleOrg)
	require.NoError(t, err)
	assert.True(t, again.Enabled)
}

func TestMemoryStoreUpsertReplacesByTypeKey(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	orgID := uuid.New()

	first := &domain.Policy{ID: uuid.New(), OrganizationID: orgID, Type: domain.PolicyTypeDisableSend, Enabled: true}
	require.NoError(t, store.Upsert(ctx, first))

	second := *first
	second.Enabled = false
	require.NoError(t, store.Upsert(ctx, &second))

	policies, err := store.GetManyByOrganizationID(ctx, orgID)
	require.NoError(t, err)
	require.Len(t, policies, 1)
	assert.False(t, policies[0].Enabled)
}

func TestMemoryStorePolicyDetailsJoin(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	userID := uuid.New()
	orgA := uuid.New()
	orgB := uuid.New()

	store.AddOrganizationUser(domain.OrganizationUser{
		ID:             uuid.New(),
		OrganizationID: orgA,
		UserID:         userID,
		Type:           domain.OrganizationUserTypeUser,
		Status:         domain.OrganizationUserStatusConfirmed,
	})
	store.AddOrganizationUser(domain.OrganizationUser{
		ID:             uuid.New(),
		OrganizationID: orgB,
		UserID:         userID,
		Type:           domain.OrganizationUserTypeAdmin,
		Status:         domain.OrganizationUserStatusInvited,
	})

	require.NoError(t, store.Upsert(ctx, &domain.Policy{
		ID:             uuid.New(),
		OrganizationID: orgA,
		Type:           domain.PolicyTypeSingleOrg,
		Enabled:        true,
		Data:           json.RawMessage(`{}`),
	}))
	// Disabled policies never appear in the join.
	require.NoError(t, store.Upsert(ctx, &domain.Policy{
		ID:             uuid.New(),
		OrganizationID: orgB,
		Type:           domain.PolicyTypeSingleOrg,
		Enabled:        false,
	}))
	// Policies in organizations the user does not belong to never appear.
	require.NoError(t, store.Upsert(ctx, &domain.Policy{
		ID:             uuid.New(),
		OrganizationID: uuid.New(),
		Type:           domain.PolicyTypeSingleOrg,
		Enabled:        true,
	}))

	details, err := store.GetPolicyDetailsByUserID(ctx, userID)
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, orgA, details[0].OrganizationID)
	assert.Equal(t, domain.PolicyTypeSingleOrg, details[0].PolicyType)
	assert.Equal(t, domain.OrganizationUserStatusConfirmed, details[0].OrganizationUserStatus)
}

func TestMemoryStoreOrganizationAbility(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	orgID := uuid.New()

	ability, err := store.GetOrganizationAbility(ctx, orgID)
	require.NoError(t, err)
	assert.Nil(t, ability, "unknown organizations resolve to nil, not an error")

	store.SetOrganizationAbility(domain.OrganizationAbility{ID: orgID, UsePolicies: true})
	ability, err = store.GetOrganizationAbility(ctx, orgID)
	require.NoError(t, err)
	require.NotNil(t, ability)
	assert.True(t, ability.UsePolicies)
}

func TestMemoryStoreAuditEvents(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	policy := &domain.Policy{ID: uuid.New(), OrganizationID: uuid.New(), Type: domain.PolicyTypeSendOptions}
	require.NoError(t, store.LogPolicyEvent(ctx, policy, domain.EventTypePolicyUpdated))

	events := store.PolicyEvents()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventTypePolicyUpdated, events[0].EventType)
	assert.Equal(t, policy.ID, events[0].Policy.ID)
}

func TestMemoryStoreDefaultCollectionsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	orgID := uuid.New()

	require.NoError(t, store.CreateDefaultCollection(ctx, orgID, "Default"))
	require.NoError(t, store.CreateDefaultCollection(ctx, orgID, "Default"))
	require.NoError(t, store.CreateDefaultCollection(ctx, orgID, "Team Vault"))

	collections := store.Collections()
	require.Len(t, collections, 2)
	assert.Equal(t, orgID, collections[0].OrganizationID)
}
