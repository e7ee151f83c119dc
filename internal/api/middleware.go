package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/xtrntr/ligabets/internal/auth"

	"github.com/go-chi/chi/v5"
)

type ctxKey struct{}

// ClaimsFromContext returns the session claims stored by JWTAuthMiddleware
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(ctxKey{}).(*auth.Claims)
	return claims, ok
}

// JWTAuthMiddleware verifies JWT tokens
func (h *Handler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.Header.Get("Authorization")
		if tokenString == "" {
			writeError(w, http.StatusUnauthorized, "Authorization header required")
			return
		}
		tokenString = strings.TrimPrefix(tokenString, "Bearer ")

		claims, err := h.AuthService.GetUserFromToken(tokenString)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), ctxKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminOnly rejects users whose stored role is not admin.
// Must run after JWTAuthMiddleware.
func (h *Handler) AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		user, err := h.Ledger.User(claims.Username)
		if err != nil || !user.IsAdmin() {
			writeError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Routes mounts every endpoint on r
func (h *Handler) Routes(r chi.Router) {
	// Public endpoints
	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)
	r.Get("/leaderboard", h.GetLeaderboard)
	r.Get("/matches", h.GetMatches)
	r.Get("/matches/{id}", h.GetMatch)
	r.Get("/ws", h.Hub.Handler(h.LeaderboardMessage))

	// Protected endpoints (require JWT)
	r.Group(func(r chi.Router) {
		r.Use(h.JWTAuthMiddleware)
		r.Get("/me", h.Me)
		r.Get("/me/bets", h.GetUserBets)
		r.Post("/matches/{id}/bets", h.PlaceBet)

		r.Group(func(r chi.Router) {
			r.Use(h.AdminOnly)
			r.Post("/admin/matches", h.CreateMatch)
			r.Post("/admin/matches/{id}/result", h.SettleMatch)
		})
	})
}
