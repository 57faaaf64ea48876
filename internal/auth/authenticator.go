// Package auth implements user registration, credential checks and session tokens.
package auth

import (
	"context"

	"github.com/BaiduAV/DividaFacil/internal/models"
)

// Authenticator registers users and verifies their credentials.
// Group and expense handlers only ever see the user ID it vouches for.
type Authenticator interface {
	// Register creates a new user account with the given email and credential.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate verifies the user's credentials and returns the user if successful.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks that a credential is acceptable before it is stored.
	ValidateCredential(credential string) error
}
