// Package api implements the REST surface the perkloop client consumes,
// for local development and integration tests. Every response uses the
// {success, data|error} envelope the client expects.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/perkloop/perkloop-go/internal/backend/store"
)

type contextKey string

const (
	uidCtxKey  contextKey = "uid"
	roleCtxKey contextKey = "role"
)

// AccessTokenTTL is the validity window of minted access tokens.
const AccessTokenTTL = time.Hour

// Handler holds the backend handler state.
type Handler struct {
	store  *store.MemoryStore
	log    zerolog.Logger
	secret []byte
}

// NewHandler creates a Handler signing tokens with secret.
func NewHandler(s *store.MemoryStore, log zerolog.Logger, secret []byte) *Handler {
	return &Handler{store: s, log: log, secret: secret}
}

// Routes mounts every endpoint.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/loginUser", h.LoginUser)
	r.Post("/registerUser", h.RegisterUser)
	r.Post("/refreshToken", h.RefreshToken)
	r.Post("/logoutUser", h.LogoutUser)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)

		r.Get("/getUserDetails", h.GetUserDetails)
		r.Get("/dashboard/seller-stats", h.SellerStats)

		r.Post("/qr-code/generate-qr", h.GenerateQR)
		r.Get("/qr-code/get-active-qr", h.GetActiveQR)
		r.Post("/qr/scan", h.ScanQR)

		r.Get("/points/balance", h.PointsBalance)
		r.Get("/points/transactions", h.PointsTransactions)

		r.Post("/createOrder", h.CreateOrder)
		r.Post("/verifyPayment", h.VerifyPayment)

		r.Route("/redemptions", func(r chi.Router) {
			r.Get("/", h.ListRedemptions)
			r.Post("/", h.CreateRedemption)
			r.Get("/{id}/status", h.RedemptionStatus)
			r.Get("/{id}/qr", h.RedemptionQR)
			r.Post("/{id}/cancel", h.CancelRedemption)
			r.Post("/{id}/redeem", h.RedeemRedemption)
		})
	})
}

// success writes a success envelope.
func success(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"data":    data,
	})
}

// fail writes an error envelope. code is a machine-readable discriminator
// the client can branch on; message is shown to users verbatim.
func fail(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"code":    code,
		"error":   message,
	})
}

// decode reads a JSON body into v.
func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// mintAccessToken signs a short-lived bearer token for the account.
func (h *Handler) mintAccessToken(acct *store.Account) (string, error) {
	now := h.store.Clock.Now()
	claims := jwt.MapClaims{
		"sub":  acct.UID,
		"role": acct.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(AccessTokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
}

// requireAuth validates the bearer token and puts uid/role in context.
// Expiry is checked against the simulated clock so tests can age tokens.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			fail(w, http.StatusUnauthorized, "missing_token", "missing bearer token")
			return
		}
		raw := strings.TrimPrefix(auth, "Bearer ")

		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return h.secret, nil
		}, jwt.WithTimeFunc(h.store.Clock.Now), jwt.WithValidMethods([]string{"HS256"}))
		if err != nil {
			fail(w, http.StatusUnauthorized, "invalid_token", "token expired or invalid")
			return
		}

		uid, _ := claims["sub"].(string)
		role, _ := claims["role"].(string)
		if _, ok := h.store.Accounts.Get(uid); !ok {
			fail(w, http.StatusUnauthorized, "unknown_user", "token subject no longer exists")
			return
		}

		ctx := context.WithValue(r.Context(), uidCtxKey, uid)
		ctx = context.WithValue(ctx, roleCtxKey, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authUID returns the authenticated user's UID.
func authUID(r *http.Request) string {
	uid, _ := r.Context().Value(uidCtxKey).(string)
	return uid
}

// authRole returns the authenticated user's role.
func authRole(r *http.Request) string {
	role, _ := r.Context().Value(roleCtxKey).(string)
	return role
}

// account loads the authenticated account.
func (h *Handler) account(r *http.Request) (store.Account, bool) {
	return h.store.Accounts.Get(authUID(r))
}
