package google

import (
	"context"
	"errors"

	"github.com/vncsmyrnk/pollsite/internal/core/ports"
	"google.golang.org/api/idtoken"
)

type Verifier struct {
	validate func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

func NewVerifier() ports.TokenVerifier {
	return &Verifier{validate: idtoken.Validate}
}

// Verify checks a Google ID token for clientID and extracts the verified email.
func (v *Verifier) Verify(ctx context.Context, token string, clientID string) (*ports.TokenPayload, error) {
	if clientID == "" {
		return nil, errors.New("google client id is not configured")
	}

	payload, err := v.validate(ctx, token, clientID)
	if err != nil {
		return nil, err
	}
	return payloadFromClaims(payload.Claims)
}

func payloadFromClaims(claims map[string]any) (*ports.TokenPayload, error) {
	email, ok := claims["email"].(string)
	if !ok || email == "" {
		return nil, errors.New("email not found in claims")
	}
	if verified, ok := claims["email_verified"].(bool); ok && !verified {
		return nil, errors.New("email is not verified")
	}
	name, _ := claims["name"].(string)
	return &ports.TokenPayload{Email: email, Name: name}, nil
}
