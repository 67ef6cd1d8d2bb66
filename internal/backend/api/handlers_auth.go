package api

import (
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/perkloop/perkloop-go/internal/backend/store"
)

// LoginUser handles POST /loginUser. It returns only the token pair; the
// client fetches the full profile in a follow-up call.
func (h *Handler) LoginUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	acct := h.store.GetAccountByEmail(req.Email, req.Role)
	if acct == nil {
		fail(w, http.StatusUnauthorized, "bad_credentials", "invalid email or password")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(req.Password)) != nil {
		fail(w, http.StatusUnauthorized, "bad_credentials", "invalid email or password")
		return
	}

	idToken, err := h.mintAccessToken(acct)
	if err != nil {
		fail(w, http.StatusInternalServerError, "token_error", "could not issue token")
		return
	}
	refresh := uuid.NewString()
	h.store.Sessions.Set(refresh, store.Session{
		UID:          acct.UID,
		RefreshToken: refresh,
		CreatedAt:    h.store.Clock.Now(),
	})

	h.log.Info().Str("uid", acct.UID).Str("role", acct.Role).Msg("login")
	success(w, http.StatusOK, map[string]any{
		"uid":          acct.UID,
		"idToken":      idToken,
		"refreshToken": refresh,
	})
}

// RegisterUser handles POST /registerUser. Success does not issue tokens.
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email        string   `json:"email"`
		Password     string   `json:"password"`
		Name         string   `json:"name"`
		Role         string   `json:"role"`
		BusinessName string   `json:"business_name"`
		QRCodeType   string   `json:"qr_code_type"`
		Phone        string   `json:"phone"`
		City         string   `json:"city"`
		Lat          *float64 `json:"lat"`
		Lng          *float64 `json:"lng"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		fail(w, http.StatusUnprocessableEntity, "missing_fields", "email and password are required")
		return
	}
	if req.Role != "seller" && req.Role != "customer" {
		fail(w, http.StatusUnprocessableEntity, "bad_role", "role must be seller or customer")
		return
	}
	if h.store.EmailTaken(req.Email) {
		fail(w, http.StatusConflict, "email_taken", "an account with this email already exists")
		return
	}
	if req.Role == "seller" && req.BusinessName == "" {
		fail(w, http.StatusUnprocessableEntity, "missing_fields", "business_name is required for sellers")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		fail(w, http.StatusInternalServerError, "hash_error", "could not store credentials")
		return
	}

	acct := store.Account{
		UID:          h.store.Accounts.NextID(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
		Role:         req.Role,
		Phone:        req.Phone,
		City:         req.City,
		Lat:          req.Lat,
		Lng:          req.Lng,
		CreatedAt:    h.store.Clock.Now(),
	}
	if req.Role == "seller" {
		acct.BusinessName = req.BusinessName
		acct.Tier = "free"
		acct.QRCodeType = req.QRCodeType
		if acct.QRCodeType == "" {
			acct.QRCodeType = "static"
		}
	}
	h.store.Accounts.Set(acct.UID, acct)

	h.log.Info().Str("uid", acct.UID).Str("role", acct.Role).Msg("registered")
	success(w, http.StatusCreated, map[string]any{"uid": acct.UID})
}

// RefreshToken handles POST /refreshToken. The pair is rotated: the old
// refresh token is consumed and a new pair issued together.
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := decode(r, &req); err != nil || req.RefreshToken == "" {
		fail(w, http.StatusBadRequest, "bad_request", "refreshToken is required")
		return
	}

	sess, ok := h.store.Sessions.Get(req.RefreshToken)
	if !ok {
		fail(w, http.StatusUnauthorized, "invalid_refresh", "refresh token not recognized")
		return
	}
	acct, ok := h.store.Accounts.Get(sess.UID)
	if !ok {
		fail(w, http.StatusUnauthorized, "unknown_user", "account no longer exists")
		return
	}

	idToken, err := h.mintAccessToken(&acct)
	if err != nil {
		fail(w, http.StatusInternalServerError, "token_error", "could not issue token")
		return
	}
	next := uuid.NewString()
	h.store.Sessions.Delete(req.RefreshToken)
	h.store.Sessions.Set(next, store.Session{
		UID:          acct.UID,
		RefreshToken: next,
		CreatedAt:    h.store.Clock.Now(),
	})

	success(w, http.StatusOK, map[string]any{
		"idToken":      idToken,
		"refreshToken": next,
	})
}

// LogoutUser handles POST /logoutUser. Unauthenticated on purpose: clients
// call it best-effort while discarding local state.
func (h *Handler) LogoutUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UID string `json:"uid"`
	}
	if err := decode(r, &req); err != nil || req.UID == "" {
		fail(w, http.StatusBadRequest, "bad_request", "uid is required")
		return
	}
	h.store.RevokeSessionsFor(req.UID)
	h.log.Info().Str("uid", req.UID).Msg("logout")
	success(w, http.StatusOK, nil)
}

// GetUserDetails handles GET /getUserDetails?uid=. Users may only read
// their own profile.
func (h *Handler) GetUserDetails(w http.ResponseWriter, r *http.Request) {
	uid := r.URL.Query().Get("uid")
	if uid == "" {
		uid = authUID(r)
	}
	if uid != authUID(r) {
		fail(w, http.StatusForbidden, "forbidden", "cannot read another user's profile")
		return
	}
	acct, ok := h.store.Accounts.Get(uid)
	if !ok {
		fail(w, http.StatusNotFound, "not_found", "user not found")
		return
	}
	success(w, http.StatusOK, map[string]any{"user": userPayload(&acct)})
}

// userPayload builds the nested profile object the client stores in its
// session.
func userPayload(a *store.Account) map[string]any {
	u := map[string]any{
		"uid":   a.UID,
		"email": a.Email,
		"name":  a.Name,
		"role":  a.Role,
	}
	switch a.Role {
	case "seller":
		u["seller"] = map[string]any{
			"business_name": a.BusinessName,
			"tier":          a.Tier,
			"qr_code_type":  a.QRCodeType,
		}
	case "customer":
		cust := map[string]any{}
		if a.Phone != "" {
			cust["phone"] = a.Phone
		}
		if a.Lat != nil && a.Lng != nil {
			cust["location"] = map[string]any{
				"lat":  *a.Lat,
				"lng":  *a.Lng,
				"city": a.City,
			}
		}
		u["customer"] = cust
	}
	return u
}
