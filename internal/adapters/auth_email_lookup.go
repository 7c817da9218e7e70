package adapters

import (
	"context"

	"github.com/google/uuid"

	"civicpulse_backend/internal/auth"
)

// AuthEmailLookup resolves reporter user IDs to email addresses for
// notifications.
type AuthEmailLookup struct {
	auth *auth.Service
}

func NewAuthEmailLookup(svc *auth.Service) *AuthEmailLookup {
	return &AuthEmailLookup{auth: svc}
}

func (a *AuthEmailLookup) EmailForUser(ctx context.Context, userID uuid.UUID) (string, error) {
	return a.auth.EmailForUser(ctx, userID)
}
