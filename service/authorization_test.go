package service

import (
	"context"
	"testing"

	"challenger/events"
	"challenger/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAuthorizationService_AuthorizeStaff(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.EmergencyAdminEmails = []string{"oncall@arena.gg"}

	t.Run("staff role grants access", func(t *testing.T) {
		m := newServiceMocks()
		svc := NewAuthorizationService(m.factory, cfg)
		staff := createTestUser(models.UserRoleStaff)
		m.users.On("GetByID", mock.Anything, staff.ID).Return(staff, nil)

		grant, err := svc.AuthorizeStaff(ctx, staff.ID, staff.Email, "settle_match")

		require.NoError(t, err)
		assert.Equal(t, AccessViaRole, grant.Via)
		assert.Empty(t, m.publisher.Published())
	})

	t.Run("regular user is forbidden", func(t *testing.T) {
		m := newServiceMocks()
		svc := NewAuthorizationService(m.factory, cfg)
		user := createTestUser(models.UserRoleUser)
		m.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)

		_, err := svc.AuthorizeStaff(ctx, user.ID, user.Email, "settle_match")

		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("suspended staff is forbidden", func(t *testing.T) {
		m := newServiceMocks()
		svc := NewAuthorizationService(m.factory, cfg)
		staff := createTestUser(models.UserRoleAdmin)
		staff.IsSuspended = true
		m.users.On("GetByID", mock.Anything, staff.ID).Return(staff, nil)

		_, err := svc.AuthorizeStaff(ctx, staff.ID, staff.Email, "void_match")

		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("emergency email is a separate audited path", func(t *testing.T) {
		m := newServiceMocks()
		svc := NewAuthorizationService(m.factory, cfg)
		userID := uuid.New()
		m.users.On("GetByID", mock.Anything, userID).Return(nil, nil)

		grant, err := svc.AuthorizeStaff(ctx, userID, "OnCall@Arena.gg", "fix_duplicates")

		require.NoError(t, err)
		assert.Equal(t, AccessViaEmergency, grant.Via)
		m.uow.AssertCalled(t, "Commit")

		published := m.publishedOfType(events.EventTypeEmergencyAccess)
		require.Len(t, published, 1)
		event := published[0].(events.EmergencyAccessEvent)
		assert.Equal(t, "fix_duplicates", event.Operation)
		assert.Equal(t, userID, event.UserID)
	})
}
