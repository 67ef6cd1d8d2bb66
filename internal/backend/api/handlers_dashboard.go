package api

import (
	"net/http"
	"time"

	"github.com/perkloop/perkloop-go/internal/backend/store"
)

// SellerStats handles GET /dashboard/seller-stats. All aggregates are
// computed here; the client renders them as-is.
func (h *Handler) SellerStats(w http.ResponseWriter, r *http.Request) {
	if authRole(r) != "seller" {
		fail(w, http.StatusForbidden, "forbidden", "only sellers have a dashboard")
		return
	}
	acct, _ := h.account(r)
	uid := acct.UID
	now := h.store.Clock.Now()
	// Truncate rounds to UTC midnight; "today" rolls over at local midnight.
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	scans := h.store.Scans.Filter(func(_ string, s store.ScanEvent) bool {
		return s.SellerUID == uid
	})
	earned := h.store.Transactions.Filter(func(_ string, t store.Transaction) bool {
		return t.SellerUID == uid && t.Type == "earned"
	})
	redemptions := h.store.Redemptions.Filter(func(_ string, rd store.Redemption) bool {
		return rd.SellerUID == uid
	})

	customers := map[string]struct{}{}
	pointsIssued := 0
	for _, t := range earned {
		customers[t.CustomerUID] = struct{}{}
		pointsIssued += t.Amount
	}

	today := map[string]int{"scans": 0, "points_issued": 0, "redemptions": 0}
	for _, s := range scans {
		if !s.ScannedAt.Before(midnight) {
			today["scans"]++
			today["points_issued"] += s.Points
		}
	}
	for _, rd := range redemptions {
		if !rd.CreatedAt.Before(midnight) {
			today["redemptions"]++
		}
	}

	lastFive := []store.ScanEvent{}
	for i := len(scans) - 1; i >= 0 && len(lastFive) < 5; i-- {
		lastFive = append(lastFive, scans[i])
	}

	qrCount := len(h.store.QRCodes.Filter(func(_ string, q store.QRCode) bool {
		return q.SellerUID == uid
	}))

	success(w, http.StatusOK, map[string]any{
		"total_users":         len(customers),
		"total_qrs":           qrCount,
		"total_scanned":       len(scans),
		"total_points_issued": pointsIssued,
		"total_redemptions":   len(redemptions),
		"seller_name":         acct.BusinessName,
		"today":               today,
		"last_five_scans":     lastFive,
	})
}
