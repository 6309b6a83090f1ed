package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/jcmexdev/food-ordering/internal/order-service/domain"
	"github.com/jcmexdev/food-ordering/internal/pkg/config"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenVerifier resolves a bearer token to the caller. Issuing tokens is the
// identity provider's job, not ours.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (domain.Principal, error)
}

// StaticTokens is a fixed token table for development and tests.
type StaticTokens map[string]domain.Principal

func NewStaticTokens(tokens []config.Token) StaticTokens {
	out := make(StaticTokens, len(tokens))
	for _, t := range tokens {
		out[t.Value] = domain.Principal{UserID: t.UserID, Admin: t.Admin}
	}
	return out
}

func (s StaticTokens) Verify(_ context.Context, token string) (domain.Principal, error) {
	p, ok := s[token]
	if !ok {
		return domain.Principal{}, ErrInvalidToken
	}
	return p, nil
}

type principalKey struct{}

func principalFrom(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domain.Principal)
	return p, ok
}

// Authenticate rejects requests without a valid "Authorization: Bearer" header.
func Authenticate(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			token = strings.TrimSpace(token)
			if !ok || token == "" {
				writeError(w, http.StatusUnauthorized, "Please sign in to continue", nil)
				return
			}
			p, err := v.Verify(r.Context(), token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Your session has expired, please sign in again", nil)
				return
			}
			ctx := context.WithValue(r.Context(), principalKey{}, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
