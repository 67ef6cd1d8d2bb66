package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	"github.com/perkloop/perkloop-go/internal/backend/store"
)

// planPrices are subscription prices in the smallest currency unit.
var planPrices = map[string]int{
	"pro":     49900,
	"premium": 99900,
}

// CreateOrder handles POST /createOrder: reserves a payment order for a
// subscription upgrade. The charge itself happens in the payment SDK.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	if authRole(r) != "seller" {
		fail(w, http.StatusForbidden, "forbidden", "only sellers can subscribe")
		return
	}
	var req struct {
		Plan string `json:"plan"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	price, ok := planPrices[req.Plan]
	if !ok {
		fail(w, http.StatusUnprocessableEntity, "bad_plan", "plan must be pro or premium")
		return
	}

	id := h.store.Orders.NextID()
	order := store.Order{
		OrderID:   id,
		SellerUID: authUID(r),
		Plan:      req.Plan,
		Amount:    price,
		Currency:  "INR",
		CreatedAt: h.store.Clock.Now(),
	}
	h.store.Orders.Set(id, order)
	success(w, http.StatusCreated, order)
}

// paymentSignature is what the payment provider would send back: an HMAC of
// order and payment IDs under the backend secret.
func (h *Handler) paymentSignature(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, h.secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPayment handles POST /verifyPayment: checks the provider signature
// and applies the purchased plan to the seller.
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID   string `json:"order_id"`
		PaymentID string `json:"payment_id"`
		Signature string `json:"signature"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	order, ok := h.store.Orders.Get(req.OrderID)
	if !ok || order.SellerUID != authUID(r) {
		fail(w, http.StatusNotFound, "not_found", "order not found")
		return
	}
	if order.Paid {
		fail(w, http.StatusConflict, "already_paid", "order is already settled")
		return
	}
	want := h.paymentSignature(req.OrderID, req.PaymentID)
	if !hmac.Equal([]byte(want), []byte(req.Signature)) {
		fail(w, http.StatusForbidden, "bad_signature", "payment signature mismatch")
		return
	}

	order.Paid = true
	h.store.Orders.Set(order.OrderID, order)

	acct, _ := h.store.Accounts.Get(order.SellerUID)
	acct.Tier = order.Plan
	h.store.Accounts.Set(acct.UID, acct)

	h.log.Info().Str("seller", acct.UID).Str("plan", order.Plan).Msg("subscription upgraded")
	success(w, http.StatusOK, map[string]any{
		"verified": true,
		"plan":     order.Plan,
	})
}
