package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"chat-realtime/internal/models"
	"chat-realtime/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
)

var errMissingUserID = errors.New("token has no user id claim")

type UserFinder interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

// TokenVerifier validates HS256 connection tokens against a process-wide
// secret and resolves them to an identity.
type TokenVerifier struct {
	secret []byte
	users  UserFinder
	parser *jwt.Parser
	logger *slog.Logger
}

func NewTokenVerifier(secret string, leeway time.Duration, users UserFinder, logger *slog.Logger) *TokenVerifier {
	return &TokenVerifier{
		secret: []byte(secret),
		users:  users,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithLeeway(leeway),
			jwt.WithIssuedAt(),
		),
		logger: logger.With(slog.String("component", "token_verifier")),
	}
}

// Verify returns the identity for a valid token, or an *AuthError. Every
// call is logged exactly once.
func (v *TokenVerifier) Verify(ctx context.Context, tokenString string) (*models.Identity, error) {
	identity, err := v.verify(ctx, tokenString)
	if err != nil {
		reason, _ := ReasonOf(err)
		v.logger.Warn("Token rejected", slog.String("reason", string(reason)), slog.Any("error", errors.Unwrap(err)))
		return nil, err
	}
	v.logger.Info("Token verified", slog.Uint64("userID", uint64(identity.ID)))
	return identity, nil
}

func (v *TokenVerifier) verify(ctx context.Context, tokenString string) (*models.Identity, error) {
	claims := &Claims{}
	_, err := v.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, classify(err)
	}

	userID, ok := claims.userID()
	if !ok {
		return nil, newAuthError(ReasonMalformed, errMissingUserID)
	}

	user, err := v.users.FindByID(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, newAuthError(ReasonUnknownUser, err)
	}
	if err != nil {
		return nil, newAuthError(ReasonLookupFailed, err)
	}

	identity := user.Identity()
	return &identity, nil
}

// classify maps jwt parse errors onto the coarse reasons. Signature
// problems win over claim problems because jwt checks the signature first.
func classify(err error) *AuthError {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return newAuthError(ReasonMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return newAuthError(ReasonInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired),
		errors.Is(err, jwt.ErrTokenNotValidYet),
		errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return newAuthError(ReasonExpired, err)
	default:
		return newAuthError(ReasonMalformed, err)
	}
}
