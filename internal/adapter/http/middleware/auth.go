package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/example/ride-dispatch/internal/domain/models"
	"github.com/example/ride-dispatch/internal/domain/types"
	wrap "github.com/example/ride-dispatch/pkg/logger/wrapper"
)

var errInvalidToken = errors.New("invalid or expired token")

// Auth verifies the bearer token and injects the actor into the
// context. A missing header means anonymous; protected endpoints
// reject anonymous actors in RequireRoles.
func (h *Middleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r.WithContext(models.WithActor(ctx, models.AnonymousActor())))
			return
		}

		token, err := extractBearerToken(header)
		if err != nil {
			errorResponse(w, http.StatusUnauthorized, err.Error())
			return
		}

		actor, err := h.verifyToken(token)
		if err != nil {
			h.log.Error(wrap.ErrorCtx(ctx, err), "failed to authenticate request", err)
			errorResponse(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		next.ServeHTTP(w, r.WithContext(models.WithActor(ctx, actor)))
	})
}

// RequireRoles allows only authenticated actors holding one of the
// given roles.
func (h *Middleware) RequireRoles(next http.HandlerFunc, allowedRoles ...types.UserRole) http.Handler {
	allowed := make(map[types.UserRole]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := models.ActorFromContext(r.Context())
		if actor == nil || actor.IsAnonymous() {
			errorResponse(w, http.StatusUnauthorized, "authorization required")
			return
		}
		if len(allowed) > 0 {
			if _, ok := allowed[actor.Role]; !ok {
				errorResponse(w, http.StatusForbidden, "forbidden: insufficient role")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// verifyToken checks the HS256 signature and standard expiry claims,
// then lifts subject and role into an Actor.
func (h *Middleware) verifyToken(token string) (*models.Actor, error) {
	parsed, err := jwt.ParseWithClaims(token, jwt.MapClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(h.secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, errInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return nil, errInvalidToken
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return nil, errInvalidToken
	}

	role, _ := claims["role"].(string)
	return &models.Actor{ID: id, Role: types.UserRole(role)}, nil
}

func extractBearerToken(header string) (string, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", fmt.Errorf("invalid Authorization header format")
	}
	return parts[1], nil
}
