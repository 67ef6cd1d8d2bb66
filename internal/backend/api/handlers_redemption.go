package api

import (
	"encoding/base64"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/perkloop/perkloop-go/internal/backend/store"
)

// CreateRedemption handles POST /redemptions. Points are deducted up front
// and returned if the redemption cancels or expires, so a pending
// redemption cannot double-spend the balance.
func (h *Handler) CreateRedemption(w http.ResponseWriter, r *http.Request) {
	if authRole(r) != "customer" {
		fail(w, http.StatusForbidden, "forbidden", "only customers can redeem points")
		return
	}
	acct, _ := h.account(r)

	var req struct {
		SellerID string `json:"seller_id"`
		Points   int    `json:"points"`
		OfferID  string `json:"offer_id"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	seller, ok := h.store.Accounts.Get(req.SellerID)
	if !ok || seller.Role != "seller" {
		fail(w, http.StatusNotFound, "not_found", "seller not found")
		return
	}
	if req.Points <= 0 {
		fail(w, http.StatusUnprocessableEntity, "bad_points", "points must be positive")
		return
	}
	if h.store.Balance(acct.UID, seller.UID) < req.Points {
		fail(w, http.StatusUnprocessableEntity, "insufficient_points", "not enough points with this seller")
		return
	}

	now := h.store.Clock.Now()
	id := h.store.Redemptions.NextID()
	rdm := store.Redemption{
		ID:          id,
		CustomerUID: acct.UID,
		SellerUID:   seller.UID,
		SellerName:  seller.BusinessName,
		Points:      req.Points,
		OfferID:     req.OfferID,
		Status:      "pending",
		CreatedAt:   now,
		ExpiresAt:   now.Add(store.RedemptionTTL),
	}
	h.store.Redemptions.Set(id, rdm)

	txID := h.store.Transactions.NextID()
	h.store.Transactions.Set(txID, store.Transaction{
		ID:          txID,
		CustomerUID: acct.UID,
		Type:        "redeemed",
		Amount:      req.Points,
		SellerUID:   seller.UID,
		SellerName:  seller.BusinessName,
		Timestamp:   now,
	})

	h.log.Info().Str("redemption", id).Str("customer", acct.UID).Msg("redemption created")
	success(w, http.StatusCreated, rdm)
}

// loadRedemption resolves {id} and lazily expires stale pending
// redemptions first.
func (h *Handler) loadRedemption(w http.ResponseWriter, r *http.Request) (store.Redemption, bool) {
	h.store.ExpireStaleRedemptions()
	id := chi.URLParam(r, "id")
	rdm, ok := h.store.Redemptions.Get(id)
	if !ok {
		fail(w, http.StatusNotFound, "not_found", "redemption not found")
		return store.Redemption{}, false
	}
	uid := authUID(r)
	if rdm.CustomerUID != uid && rdm.SellerUID != uid {
		fail(w, http.StatusForbidden, "forbidden", "not your redemption")
		return store.Redemption{}, false
	}
	return rdm, true
}

// refundPoints returns a settled redemption's points to the customer.
func (h *Handler) refundPoints(rdm *store.Redemption) {
	txID := h.store.Transactions.NextID()
	h.store.Transactions.Set(txID, store.Transaction{
		ID:          txID,
		CustomerUID: rdm.CustomerUID,
		Type:        "earned",
		Amount:      rdm.Points,
		SellerUID:   rdm.SellerUID,
		SellerName:  rdm.SellerName,
		Timestamp:   h.store.Clock.Now(),
	})
}

// RedemptionStatus handles GET /redemptions/{id}/status.
func (h *Handler) RedemptionStatus(w http.ResponseWriter, r *http.Request) {
	rdm, ok := h.loadRedemption(w, r)
	if !ok {
		return
	}
	success(w, http.StatusOK, rdm)
}

// CancelRedemption handles POST /redemptions/{id}/cancel. Only pending
// redemptions may be cancelled; terminal states are final.
func (h *Handler) CancelRedemption(w http.ResponseWriter, r *http.Request) {
	rdm, ok := h.loadRedemption(w, r)
	if !ok {
		return
	}
	if rdm.Status != "pending" {
		fail(w, http.StatusConflict, "not_pending", "redemption is already "+rdm.Status)
		return
	}
	rdm.Status = "cancelled"
	h.store.Redemptions.Set(rdm.ID, rdm)
	h.refundPoints(&rdm)
	success(w, http.StatusOK, rdm)
}

// RedeemRedemption handles POST /redemptions/{id}/redeem, the seller-side
// settlement that moves a pending redemption to redeemed.
func (h *Handler) RedeemRedemption(w http.ResponseWriter, r *http.Request) {
	rdm, ok := h.loadRedemption(w, r)
	if !ok {
		return
	}
	if rdm.SellerUID != authUID(r) {
		fail(w, http.StatusForbidden, "forbidden", "only the seller can settle a redemption")
		return
	}
	if rdm.Status != "pending" {
		fail(w, http.StatusConflict, "not_pending", "redemption is already "+rdm.Status)
		return
	}
	now := h.store.Clock.Now()
	rdm.Status = "redeemed"
	rdm.RedeemedAt = &now
	h.store.Redemptions.Set(rdm.ID, rdm)
	success(w, http.StatusOK, rdm)
}

// RedemptionQR handles GET /redemptions/{id}/qr: the code the customer
// presents to the seller while the redemption is pending.
func (h *Handler) RedemptionQR(w http.ResponseWriter, r *http.Request) {
	rdm, ok := h.loadRedemption(w, r)
	if !ok {
		return
	}
	if rdm.Status != "pending" {
		fail(w, http.StatusConflict, "not_pending", "redemption is already "+rdm.Status)
		return
	}
	data := "plr:" + rdm.ID + ":" + uuid.NewString()
	success(w, http.StatusOK, map[string]any{
		"id":           rdm.ID,
		"qr_type":      "static",
		"points_value": rdm.Points,
		"qr_code_data": data,
		"image":        base64.StdEncoding.EncodeToString([]byte(data)),
		"created_at":   rdm.CreatedAt,
	})
}

// ListRedemptions handles GET /redemptions?status=.
func (h *Handler) ListRedemptions(w http.ResponseWriter, r *http.Request) {
	h.store.ExpireStaleRedemptions()
	uid := authUID(r)
	want := r.URL.Query().Get("status")
	matches := h.store.Redemptions.Filter(func(_ string, rd store.Redemption) bool {
		if rd.CustomerUID != uid && rd.SellerUID != uid {
			return false
		}
		return want == "" || rd.Status == want
	})
	if matches == nil {
		matches = []store.Redemption{}
	}
	success(w, http.StatusOK, map[string]any{"redemptions": matches})
}
