package middleware

import (
	"context"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
)

type ctxKey string

const authUserKey ctxKey = "authUser"

type AuthUser struct {
	UID    string
	Email  string
	Claims map[string]any
}

// WithAuth verifies the Firebase ID token on every request and stashes
// the resolved user on the context.
func WithAuth(authClient *auth.Client) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if h == "" || !strings.HasPrefix(strings.ToLower(h), "bearer ") {
				http.Error(w, "missing Authorization: Bearer <token>", http.StatusUnauthorized)
				return
			}
			idToken := strings.TrimSpace(h[len("Bearer "):])

			tok, err := authClient.VerifyIDToken(r.Context(), idToken)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			au := &AuthUser{
				UID:    tok.UID,
				Claims: tok.Claims,
			}
			if v, ok := tok.Claims["email"].(string); ok {
				au.Email = v
			}

			ctx := context.WithValue(r.Context(), authUserKey, au)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetAuthUser(ctx context.Context) (*AuthUser, bool) {
	v := ctx.Value(authUserKey)
	if v == nil {
		return nil, false
	}
	au, ok := v.(*AuthUser)
	return au, ok
}

// RoleClaim reads the derived subscription role from a claim set. The
// second return reports whether any role is present.
func RoleClaim(claims map[string]any, claimKey string) (string, bool) {
	if claims == nil {
		return "", false
	}
	role, ok := claims[claimKey].(string)
	if !ok || role == "" {
		return "", false
	}
	return role, true
}

// HasRole reports whether the claim set carries the given role.
func HasRole(claims map[string]any, claimKey, role string) bool {
	got, ok := RoleClaim(claims, claimKey)
	return ok && got == role
}
