package policy

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgguard/orgguard/pkg/domain"
)

var testNow = time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

type stubAbilities struct {
	ability *domain.OrganizationAbility
	err     error
}

func (s *stubAbilities) GetOrganizationAbility(context.Context, uuid.UUID) (*domain.OrganizationAbility, error) {
	return s.ability, s.err
}

type stubPolicies struct {
	existing []*domain.Policy
	upserts  []*domain.Policy
}

func (s *stubPolicies) GetManyByOrganizationID(context.Context, uuid.UUID) ([]*domain.Policy, error) {
	return s.existing, nil
}

func (s *stubPolicies) Upsert(_ context.Context, policy *domain.Policy) error {
	s.upserts = append(s.upserts, policy)
	return nil
}

type stubAudit struct {
	events []domain.EventType
	err    error
}

func (s *stubAudit) LogPolicyEvent(_ context.Context, _ *domain.Policy, eventType domain.EventType) error {
	s.events = append(s.events, eventType)
	return s.err
}

type stubCollections struct {
	created []string
	err     error
}

func (s *stubCollections) CreateDefaultCollection(_ context.Context, _ uuid.UUID, name string) error {
	s.created = append(s.created, name)
	return s.err
}

type saveFixture struct {
	abilities *stubAbilities
	policies  *stubPolicies
	audit     *stubAudit
	command   *SavePolicyCommand
}

func newSaveFixture(t *testing.T, handlers ...EventHandler) *saveFixture {
	t.Helper()

	if handlers == nil {
		handlers = DefaultHandlers(nil)
	}
	factory, err := NewEventHandlerFactory(handlers...)
	require.NoError(t, err)

	f := &saveFixture{
		abilities: &stubAbilities{ability: &domain.OrganizationAbility{UsePolicies: true}},
		policies:  &stubPolicies{},
		audit:     &stubAudit{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.command, err = NewSavePolicyCommand(f.abilities, f.policies, f.audit, factory, logger,
		WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)
	return f
}

func enabledPolicy(orgID uuid.UUID, policyType domain.PolicyType) *domain.Policy {
	return &domain.Policy{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Type:           policyType,
		Enabled:        true,
		CreationDate:   testNow.Add(-24 * time.Hour),
		RevisionDate:   testNow.Add(-24 * time.Hour),
	}
}

func assertNothingPersisted(t *testing.T, f *saveFixture) {
	t.Helper()
	assert.Empty(t, f.policies.upserts, "rejected save must not write")
	assert.Empty(t, f.audit.events, "rejected save must not log audit events")
}

func TestSaveRejectsUnknownOrganization(t *testing.T) {
	f := newSaveFixture(t)
	f.abilities.ability = nil

	_, err := f.command.Save(context.Background(), &domain.PolicyUpdate{
		OrganizationID: uuid.New(),
		Type:           domain.PolicyTypeSingleOrg,
		Enabled:        true,
	})

	require.Error(t, err)
	assert.True(t, domain.IsBadRequest(err))
	assert.EqualError(t, err, "Organization not found")
	assertNothingPersisted(t, f)
}

func TestSaveRejectsOrganizationWithoutPolicySupport(t *testing.T) {
	f := newSaveFixture(t)
	f.abilities.ability = &domain.OrganizationAbility{UsePolicies: false}

	_, err := f.command.Save(context.Background(), &domain.PolicyUpdate{
		OrganizationID: uuid.New(),
		Type:           domain.PolicyTypeSingleOrg,
		Enabled:        true,
	})

	require.Error(t, err)
	assert.EqualError(t, err, "This organization cannot use policies.")
	assertNothingPersisted(t, f)
}

func TestSaveRequiresPrerequisitePresent(t *testing.T) {
	f := newSaveFixture(t)

	_, err := f.command.Save(context.Background(), &domain.PolicyUpdate{
		OrganizationID: uuid.New(),
		Type:           domain.PolicyTypeRequireSso,
		Enabled:        true,
	})

	require.Error(t, err)
	assert.EqualError(t, err, "Turn on the Single organization policy because it is required for the Require single sign-on authentication policy.")
	assertNothingPersisted(t, f)
}

func TestSaveRequiresPrerequisiteEnabled(t *testing.T) {
	f := newSaveFixture(t)
	orgID := uuid.New()
	singleOrg := enabledPolicy(orgID, domain.PolicyTypeSingleOrg)
	singleOrg.Enabled = false
	f.policies.existing = []*domain.Policy{singleOrg}

	_, err := f.command.Save(context.Background(), &domain.PolicyUpdate{
		OrganizationID: orgID,
		Type:           domain.PolicyTypeRequireSso,
		Enabled:        true,
	})

	require.Error(t, err)
	assert.EqualError(t, err, "Turn on the Single organization policy because it is required for the Require single sign-on authentication policy.")
	assertNothingPersisted(t, f)
}

func TestSaveEnablesPolicyWithSatisfiedPrerequisite(t *testing.T) {
	f := newSaveFixture(t)
	orgID := uuid.New()
	f.policies.existing = []*domain.Policy{enabledPolicy(orgID, domain.PolicyTypeSingleOrg)}

	saved, err := f.command.Save(context.Background(), &domain.PolicyUpdate{
		OrganizationID: orgID,
		Type:           domain.PolicyTypeRequireSso,
		Enabled:        true,
	})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, saved.ID)
	assert.Equal(t, orgID, saved.OrganizationID)
	assert.True(t, saved.Enabled)
	assert.Equal(t, testNow, saved.CreationDate)
	assert.Equal(t, testNow, saved.RevisionDate)
	require.Len(t, f.policies.upserts, 1)
	assert.Equal(t, []domain.EventType{domain.EventTypePolicyUpdated}, f.audit.events)
}

func TestSaveBlocksDisablingRequiredPolicy(t *testing.T) {
	f := newSaveFixture(t)
	orgID := uuid.New()
	f.policies.existing = []*domain.Policy{
		enabledPolicy(orgID, domain.PolicyTypeSingleOrg),
		enabledPolicy(orgID, domain.PolicyTypeRequireSso),
	}

	_, err := f.command.Save(context.Background(), &domain.PolicyUpdate{
		OrganizationID: orgID,
		Type:           domain.PolicyTypeSingleOrg,
		Enabled:        false,
	})

	require.Error(t, err)
	assert.EqualError(t, err, "Turn off the Require single sign-on authentication policy because it requires the Single organization policy.")
	assertNothingPersisted(t, f)
}

func TestSaveListsAllEnabledDependents(t *testing.T) {
	f := newSaveFixture(t)
	orgID := uuid.New()
	f.policies.existing = []*domain.Policy{
		enabledPolicy(orgID, domain.PolicyTypeSingleOrg),
		enabledPolicy(orgID, domain.PolicyTypeRequireSso),
		enabledPolicy(orgID, domain.PolicyTypeResetPassword),
		enabledPolicy(orgID, domain.PolicyTypeMaximumVaultTimeout),
	}

	_, err := f.command.Save(context.Background(), &domain.PolicyUpdate{
		OrganizationID: orgID,
		Type:           domain.PolicyTypeSingleOrg,
		Enabled:        false,
	})

	require.Error(t, err)
	assert.EqualError(t, err, "Turn off all of the policies that require the Single organization policy: "+
		"Account recovery administration, Require single sign-on authentication, Vault timeout.")
	assertNothingPersisted(t, f)
}

func TestSaveIgnoresDisabledDependents(t *testing.T) {
	f := newSaveFixture(t)
	orgID := uuid.New()
	sso := enabledPolicy(orgID, domain.PolicyTypeRequireSso)
	sso.Enabled = false
	f.policies.existing = []*domain.Policy{
		enabledPolicy(orgID, domain.PolicyTypeSingleOrg),
		sso,
	}

	_, err := f.command.Save(context.Background(), &domain.PolicyUpdate{
		OrganizationID: orgID,
		Type:           domain.PolicyTypeSingleOrg,
		Enabled:        false,
	})

	require.NoError(t, err)
	require.Len(t, f.policies.upserts, 1)
	assert.False(t, f.policies.upserts[0].Enabled)
}

func TestSaveRejectsInvalidVaultTimeout(t *testing.T) {
	tests := []struct {
		name    string
		data    json.RawMessage
		message string
	}{
		{
			name:    "zero minutes",
			data:    json.RawMessage(`{"minutes":0}`),
			message: "Maximum vault timeout must be greater than 0.",
		},
		{
			name:    "negative minutes",
			data:    json.RawMessage(`{"minutes":-5}`),
			message: "Maximum vault timeout must be greater than 0.",
		},
		{
			name:    "malformed payload",
			data:    json.RawMessage(`{"minutes":`),
			message: "Invalid vault timeout configuration.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSaveFixture(t)
			orgID := uuid.New()
			f.policies.existing = []*domain.Policy{enabledPolicy(orgID, domain.PolicyTypeSingleOrg)}

			_, err := f.command.Save(context.Background(), &domain.PolicyUpdate{
				OrganizationID: orgID,
				Type:           domain.PolicyTypeMaximumVaultTimeout,
				Enabled:        true,
				Data:           tt.data,
			})

			require.Error(t, err)
			assert.EqualError(t, err, tt.message)
			assertNothingPersisted(t, f)
		})
	}
}

func TestSaveSkipsValidationWhenDisabling(t *testing.T) {
	f := newSaveFixture(t)
	orgID := uuid.New()
	f.policies.existing = []*domain.Policy{
		enabledPolicy(orgID, domain.PolicyTypeSingleOrg),
		enabledPolicy(orgID, domain.PolicyTypeMaximumVaultTimeout),
	}

	_, err := f.command.Save(context.Background(), &domain.PolicyUpdate{
		OrganizationID: orgID,
		Type:           domain.PolicyTypeMaximumVaultTimeout,
		Enabled:        false,
		Data:           json.RawMessage(`{"minutes":0}`),
	})

	require.NoError(t, err)
	require.Len(t, f.policies.upserts, 1)
}

func TestSaveUpdatesExistingPolicyInPlace(t *testing.T) {
	f := newSaveFixture(t)
	orgID := uuid.New()
	current := enabledPolicy(orgID, domain.PolicyTypeTwoFactorAuthentication)
	f.policies.existing = []*domain.Policy{current}

	saved, err := f.command.Save(context.Background(), &domain.PolicyUpdate{
		OrganizationID: orgID,
		Type:           domain.PolicyTypeTwoFactorAuthentication,
		Enabled:        false,
	})

	require.NoError(t, err)
	assert.Equal(t, current.ID, saved.ID, "update must keep the existing row identity")
	assert.Equal(t, current.CreationDate, saved.CreationDate)
	assert.Equal(t, testNow, saved.RevisionDate)
}

func TestSaveSucceedsWhenAuditFails(t *testing.T) {
	f := newSaveFixture(t)
	f.audit.err = errors.New("event store unavailable")

	saved, err := f.command.Save(context.Background(), &domain.PolicyUpdate{
		OrganizationID: uuid.New(),
		Type:           domain.PolicyTypeDisableSend,
		Enabled:        true,
	})

	require.NoError(t, err)
	require.NotNil(t, saved)
	require.Len(t, f.policies.upserts, 1)
}

func TestSaveProvisionsDefaultCollectionOnEnable(t *testing.T) {
	collections := &stubCollections{}
	f := newSaveFixture(t, DefaultHandlers(collections)...)
	orgID := uuid.New()

	_, err := f.command.Save(context.Background(), &domain.PolicyUpdate{
		OrganizationID: orgID,
		Type:           domain.PolicyTypeOrganizationDataOwnership,
		Enabled:        true,
		Data:           json.RawMessage(`{"defaultCollectionName":"Team Vault"}`),
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"Team Vault"}, collections.created)
}

func TestSaveSkipsCollectionWhenAlreadyEnabled(t *testing.T) {
	collections := &stubCollections{}
	f := newSaveFixture(t, DefaultHandlers(collections)...)
	orgID := uuid.New()
	f.policies.existing = []*domain.Policy{enabledPolicy(orgID, domain.PolicyTypeOrganizationDataOwnership)}

	_, err := f.command.Save(context.Background(), &domain.PolicyUpdate{
		OrganizationID: orgID,
		Type:           domain.PolicyTypeOrganizationDataOwnership,
		Enabled:        true,
	})

	require.NoError(t, err)
	assert.Empty(t, collections.created, "re-enabling must not provision again")
}

func TestSaveCollectionFailureDoesNotFailSave(t *testing.T) {
	collections := &stubCollections{err: errors.New("collection service down")}
	f := newSaveFixture(t, DefaultHandlers(collections)...)

	saved, err := f.command.Save(context.Background(), &domain.PolicyUpdate{
		OrganizationID: uuid.New(),
		Type:           domain.PolicyTypeOrganizationDataOwnership,
		Enabled:        true,
	})

	require.NoError(t, err)
	require.NotNil(t, saved)
	require.Len(t, f.policies.upserts, 1)
}
