package api

import (
	"net/http"

	"github.com/perkloop/perkloop-go/internal/backend/store"
)

// PointsBalance handles GET /points/balance. Balances are aggregated
// server-side; clients never derive them from the transaction log.
func (h *Handler) PointsBalance(w http.ResponseWriter, r *http.Request) {
	if authRole(r) != "customer" {
		fail(w, http.StatusForbidden, "forbidden", "only customers hold balances")
		return
	}
	balances := []map[string]any{}
	for _, b := range h.store.BalancesFor(authUID(r)) {
		balances = append(balances, map[string]any{
			"seller_id":   b.SellerUID,
			"seller_name": b.SellerName,
			"points":      b.Points,
		})
	}
	success(w, http.StatusOK, map[string]any{"balances": balances})
}

// PointsTransactions handles GET /points/transactions, newest first.
func (h *Handler) PointsTransactions(w http.ResponseWriter, r *http.Request) {
	if authRole(r) != "customer" {
		fail(w, http.StatusForbidden, "forbidden", "only customers have a points history")
		return
	}
	uid := authUID(r)
	txns := h.store.Transactions.Filter(func(_ string, t store.Transaction) bool {
		return t.CustomerUID == uid
	})
	// newest first
	out := make([]store.Transaction, 0, len(txns))
	for i := len(txns) - 1; i >= 0; i-- {
		out = append(out, txns[i])
	}
	success(w, http.StatusOK, map[string]any{"transactions": out})
}
