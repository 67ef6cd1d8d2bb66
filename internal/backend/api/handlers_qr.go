package api

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/perkloop/perkloop-go/internal/backend/store"
)

// tierAllowsQRType mirrors the client-side gate: free is locked to the
// registered type, pro adds dynamic, premium allows everything.
func tierAllowsQRType(tier, registered, want string) bool {
	switch tier {
	case "premium":
		return true
	case "pro":
		return want == registered || want == "dynamic"
	default:
		return want == registered
	}
}

// GenerateQR handles POST /qr-code/generate-qr. The new code supersedes the
// seller's previously active one.
func (h *Handler) GenerateQR(w http.ResponseWriter, r *http.Request) {
	if authRole(r) != "seller" {
		fail(w, http.StatusForbidden, "forbidden", "only sellers can generate QR codes")
		return
	}
	acct, _ := h.account(r)

	var req struct {
		Type             string `json:"qr_type"`
		PointsValue      int    `json:"points_value"`
		ExpiresInMinutes int    `json:"expires_in_minutes"`
		HiddenCode       string `json:"hidden_code"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if req.PointsValue <= 0 {
		fail(w, http.StatusUnprocessableEntity, "bad_points", "points_value must be positive")
		return
	}
	if !tierAllowsQRType(acct.Tier, acct.QRCodeType, req.Type) {
		fail(w, http.StatusForbidden, "tier_limit",
			fmt.Sprintf("your %s plan does not allow %s QR codes", acct.Tier, req.Type))
		return
	}
	if req.Type == "static_hidden" && req.HiddenCode == "" {
		fail(w, http.StatusUnprocessableEntity, "missing_fields", "hidden_code is required for static_hidden")
		return
	}
	if req.Type == "dynamic" && req.ExpiresInMinutes <= 0 {
		fail(w, http.StatusUnprocessableEntity, "missing_fields", "expires_in_minutes is required for dynamic")
		return
	}

	h.store.DeactivateSellerQRs(acct.UID)

	now := h.store.Clock.Now()
	id := h.store.QRCodes.NextID()
	qr := store.QRCode{
		ID:          id,
		SellerUID:   acct.UID,
		Type:        req.Type,
		PointsValue: req.PointsValue,
		Data:        "pl:" + acct.UID + ":" + uuid.NewString(),
		HiddenCode:  req.HiddenCode,
		Active:      true,
		CreatedAt:   now,
	}
	if req.Type == "dynamic" {
		exp := now.Add(time.Duration(req.ExpiresInMinutes) * time.Minute)
		qr.ExpiresAt = &exp
	}
	h.store.QRCodes.Set(id, qr)

	h.log.Info().Str("seller", acct.UID).Str("qr", id).Str("type", req.Type).Msg("qr generated")
	success(w, http.StatusCreated, qrPayload(&qr))
}

// GetActiveQR handles GET /qr-code/get-active-qr. No active code is a
// success:false envelope with a dedicated code, not an HTTP error.
func (h *Handler) GetActiveQR(w http.ResponseWriter, r *http.Request) {
	if authRole(r) != "seller" {
		fail(w, http.StatusForbidden, "forbidden", "only sellers have active QR codes")
		return
	}
	qr := h.store.ActiveQRForSeller(authUID(r))
	if qr == nil {
		fail(w, http.StatusOK, "no_active_qr", "no active QR code")
		return
	}
	success(w, http.StatusOK, qrPayload(qr))
}

// ScanQR handles POST /qr/scan: the customer earns the code's points.
func (h *Handler) ScanQR(w http.ResponseWriter, r *http.Request) {
	if authRole(r) != "customer" {
		fail(w, http.StatusForbidden, "forbidden", "only customers can scan")
		return
	}
	acct, _ := h.account(r)

	var req struct {
		Data       string `json:"qr_code_data"`
		HiddenCode string `json:"hidden_code"`
	}
	if err := decode(r, &req); err != nil || req.Data == "" {
		fail(w, http.StatusBadRequest, "bad_request", "qr_code_data is required")
		return
	}

	qr := h.store.QRByData(req.Data)
	if qr == nil || !qr.Active {
		fail(w, http.StatusNotFound, "qr_not_found", "QR code not found or no longer active")
		return
	}
	now := h.store.Clock.Now()
	if qr.ExpiresAt != nil && now.After(*qr.ExpiresAt) {
		fail(w, http.StatusGone, "qr_expired", "QR code has expired")
		return
	}
	if qr.Type == "static_hidden" && req.HiddenCode != qr.HiddenCode {
		fail(w, http.StatusForbidden, "bad_hidden_code", "hidden code does not match")
		return
	}

	seller, _ := h.store.Accounts.Get(qr.SellerUID)

	txID := h.store.Transactions.NextID()
	h.store.Transactions.Set(txID, store.Transaction{
		ID:          txID,
		CustomerUID: acct.UID,
		Type:        "earned",
		Amount:      qr.PointsValue,
		SellerUID:   seller.UID,
		SellerName:  seller.BusinessName,
		Timestamp:   now,
	})
	h.store.Scans.Set(h.store.Scans.NextID(), store.ScanEvent{
		SellerUID:    seller.UID,
		CustomerName: acct.Name,
		Points:       qr.PointsValue,
		ScannedAt:    now,
	})

	success(w, http.StatusOK, map[string]any{
		"points_earned": qr.PointsValue,
		"total_points":  h.store.Balance(acct.UID, seller.UID),
		"seller_name":   seller.BusinessName,
	})
}

// qrPayload serializes a code for API responses, embedding a placeholder
// rendered image the way the production backend ships a PNG.
func qrPayload(qr *store.QRCode) map[string]any {
	p := map[string]any{
		"id":           qr.ID,
		"qr_type":      qr.Type,
		"points_value": qr.PointsValue,
		"qr_code_data": qr.Data,
		"image":        base64.StdEncoding.EncodeToString([]byte(qr.Data)),
		"created_at":   qr.CreatedAt,
	}
	if qr.ExpiresAt != nil {
		p["expires_at"] = qr.ExpiresAt
	}
	return p
}
