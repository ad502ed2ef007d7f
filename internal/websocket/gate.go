package websocket

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"chat-realtime/internal/models"
)

// ErrRejected is the only error a client learns about a failed connect.
var ErrRejected = errors.New("connection rejected")

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*models.Identity, error)
}

// ConnectParams are the connection establishment parameters.
type ConnectParams struct {
	Token string
}

// ParamsFromRequest reads the token from the "token" query parameter,
// falling back to an "Authorization: Bearer" header.
func ParamsFromRequest(r *http.Request) ConnectParams {
	if token := strings.TrimSpace(r.URL.Query().Get("token")); token != "" {
		return ConnectParams{Token: token}
	}
	return ConnectParams{Token: bearerToken(r.Header.Get("Authorization"))}
}

// bearerToken returns the credentials of a Bearer authorization header.
// The scheme is matched case-insensitively; other schemes yield "".
func bearerToken(header string) string {
	scheme, credentials, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(credentials)
}

// Gate admits or refuses a connection attempt before any session state
// exists for it.
type Gate struct {
	verifier TokenVerifier
	logger   *slog.Logger
}

func NewGate(verifier TokenVerifier, logger *slog.Logger) *Gate {
	return &Gate{
		verifier: verifier,
		logger:   logger.With(slog.String("component", "connection_gate")),
	}
}

// Connect returns the identity to bind to the connection, or ErrRejected.
// Verification failures are not distinguished to the caller.
func (g *Gate) Connect(ctx context.Context, params ConnectParams) (models.Identity, error) {
	if params.Token == "" {
		g.logger.Info("Connection rejected", "reason", "missing_token")
		return models.Identity{}, ErrRejected
	}

	identity, err := g.verifier.Verify(ctx, params.Token)
	if err != nil || identity == nil {
		g.logger.Info("Connection rejected", "reason", "verification_failed")
		return models.Identity{}, ErrRejected
	}
	return *identity, nil
}
