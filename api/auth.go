package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

type ctxKey int

const subjectKey ctxKey = iota

// requireToken rejects requests without a valid HS256 bearer token when a JWT secret is set.
// Tokens are issued elsewhere; only the subject claim (the owner id) is used here.
func (a *API) requireToken(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(a.jwtSecret) == 0 {
			next(w, r)
			return
		}

		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			a.Response(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		subject, err := a.parseToken(raw)
		if err != nil {
			a.logger.Debug().Err(err).Msg("token rejected")
			a.Response(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), subjectKey, subject)))
	})
}

func (a *API) parseToken(raw string) (string, error) {
	keyFunc := func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.jwtSecret, nil
	}

	var claims jwt.RegisteredClaims
	if _, err := jwt.ParseWithClaims(raw, &claims, keyFunc); err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// ownedBy reports whether the caller may act for ownerID. Always true when tokens are off.
func (a *API) ownedBy(r *http.Request, ownerID uuid.UUID) bool {
	if len(a.jwtSecret) == 0 {
		return true
	}
	return tokenSubject(r) == ownerID.String()
}

func tokenSubject(r *http.Request) string {
	subject, _ := r.Context().Value(subjectKey).(string)
	return subject
}
