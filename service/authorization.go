package service

import (
	"context"
	"fmt"

	"challenger/config"
	"challenger/events"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type authorizationService struct {
	uowFactory UnitOfWorkFactory
	config     *config.Config
}

// NewAuthorizationService creates a new authorization service
func NewAuthorizationService(uowFactory UnitOfWorkFactory, cfg *config.Config) AuthorizationService {
	return &authorizationService{
		uowFactory: uowFactory,
		config:     cfg,
	}
}

// AuthorizeStaff grants staff operations to users whose stored role allows it.
// Configured emergency emails are a separate break-glass path: every use is
// logged at warning level and raises an EmergencyAccessEvent.
func (s *authorizationService) AuthorizeStaff(ctx context.Context, userID uuid.UUID, email, operation string) (*AccessGrant, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user != nil && user.IsStaff() && !user.IsSuspended {
		return &AccessGrant{UserID: userID, Email: user.Email, Via: AccessViaRole}, nil
	}

	if !s.config.IsEmergencyAdmin(email) {
		return nil, ErrForbidden
	}

	log.WithFields(log.Fields{
		"email":     email,
		"userID":    userID,
		"operation": operation,
	}).Warn("Emergency credential used for staff operation")

	uow.EventBus().Publish(events.EmergencyAccessEvent{
		Email:     email,
		UserID:    userID,
		Operation: operation,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &AccessGrant{UserID: userID, Email: email, Via: AccessViaEmergency}, nil
}
