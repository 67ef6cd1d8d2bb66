// Package store holds all development backend state in memory, keyed the
// way the REST handlers need it, with a simulated clock driving QR expiry
// and redemption timeouts.
package store

import (
	"time"

	pkgstore "github.com/perkloop/perkloop-go/pkg/store"
)

// RedemptionTTL is how long a pending redemption stays open before the
// backend expires it.
const RedemptionTTL = 15 * time.Minute

// MemoryStore is the backend's complete state.
type MemoryStore struct {
	Accounts     *pkgstore.Store[Account]     // keyed by UID
	Sessions     *pkgstore.Store[Session]     // keyed by refresh token
	QRCodes      *pkgstore.Store[QRCode]      // keyed by QR ID
	Transactions *pkgstore.Store[Transaction] // keyed by transaction ID
	Redemptions  *pkgstore.Store[Redemption]  // keyed by redemption ID
	Scans        *pkgstore.Store[ScanEvent]   // keyed by generated ID
	Orders       *pkgstore.Store[Order]       // keyed by order ID
	Clock        *pkgstore.Clock
}

// New creates an empty MemoryStore.
func New() *MemoryStore {
	return &MemoryStore{
		Accounts:     pkgstore.New[Account]("usr"),
		Sessions:     pkgstore.New[Session]("ses"),
		QRCodes:      pkgstore.New[QRCode]("qr"),
		Transactions: pkgstore.New[Transaction]("txn"),
		Redemptions:  pkgstore.New[Redemption]("rdm"),
		Scans:        pkgstore.New[ScanEvent]("scan"),
		Orders:       pkgstore.New[Order]("ord"),
		Clock:        pkgstore.NewClock(),
	}
}

// Reset clears every collection and the clock offset.
func (s *MemoryStore) Reset() {
	s.Accounts.Reset()
	s.Sessions.Reset()
	s.QRCodes.Reset()
	s.Transactions.Reset()
	s.Redemptions.Reset()
	s.Scans.Reset()
	s.Orders.Reset()
	s.Clock.Reset()
}

// GetAccountByEmail returns the account registered under email and role.
func (s *MemoryStore) GetAccountByEmail(email, role string) *Account {
	matches := s.Accounts.Filter(func(_ string, a Account) bool {
		return a.Email == email && (role == "" || a.Role == role)
	})
	if len(matches) == 0 {
		return nil
	}
	return &matches[0]
}

// EmailTaken reports whether any account uses the email, regardless of role.
func (s *MemoryStore) EmailTaken(email string) bool {
	return len(s.Accounts.Filter(func(_ string, a Account) bool {
		return a.Email == email
	})) > 0
}

// ActiveQRForSeller returns the seller's active, unexpired code. An expired
// dynamic code is deactivated lazily here.
func (s *MemoryStore) ActiveQRForSeller(sellerUID string) *QRCode {
	now := s.Clock.Now()
	active := s.QRCodes.Filter(func(_ string, q QRCode) bool {
		return q.SellerUID == sellerUID && q.Active
	})
	for i := range active {
		q := active[i]
		if q.ExpiresAt != nil && now.After(*q.ExpiresAt) {
			q.Active = false
			s.QRCodes.Set(q.ID, q)
			continue
		}
		return &q
	}
	return nil
}

// DeactivateSellerQRs marks every active code of the seller inactive. A
// regenerated code supersedes, never mutates, its predecessor.
func (s *MemoryStore) DeactivateSellerQRs(sellerUID string) {
	for _, q := range s.QRCodes.Filter(func(_ string, q QRCode) bool {
		return q.SellerUID == sellerUID && q.Active
	}) {
		q.Active = false
		s.QRCodes.Set(q.ID, q)
	}
}

// QRByData resolves a scanned payload to its code.
func (s *MemoryStore) QRByData(data string) *QRCode {
	matches := s.QRCodes.Filter(func(_ string, q QRCode) bool {
		return q.Data == data
	})
	if len(matches) == 0 {
		return nil
	}
	return &matches[0]
}

// Balance returns a customer's running total with one seller, aggregated
// from the transaction log.
func (s *MemoryStore) Balance(customerUID, sellerUID string) int {
	total := 0
	for _, t := range s.Transactions.Filter(func(_ string, t Transaction) bool {
		return t.CustomerUID == customerUID && t.SellerUID == sellerUID
	}) {
		switch t.Type {
		case "earned":
			total += t.Amount
		case "redeemed":
			total -= t.Amount
		}
	}
	return total
}

// BalancesFor returns the customer's non-zero per-seller balances in first-
// seen order.
func (s *MemoryStore) BalancesFor(customerUID string) []struct {
	SellerUID  string
	SellerName string
	Points     int
} {
	type agg struct {
		name   string
		points int
	}
	totals := make(map[string]*agg)
	var order []string
	for _, t := range s.Transactions.Filter(func(_ string, t Transaction) bool {
		return t.CustomerUID == customerUID
	}) {
		a, ok := totals[t.SellerUID]
		if !ok {
			a = &agg{name: t.SellerName}
			totals[t.SellerUID] = a
			order = append(order, t.SellerUID)
		}
		switch t.Type {
		case "earned":
			a.points += t.Amount
		case "redeemed":
			a.points -= t.Amount
		}
	}
	out := make([]struct {
		SellerUID  string
		SellerName string
		Points     int
	}, 0, len(order))
	for _, uid := range order {
		out = append(out, struct {
			SellerUID  string
			SellerName string
			Points     int
		}{uid, totals[uid].name, totals[uid].points})
	}
	return out
}

// ExpireStaleRedemptions walks pending redemptions past their TTL, moves
// them to expired, and returns the held points to the customer. Called
// lazily on redemption reads, like QR expiry.
func (s *MemoryStore) ExpireStaleRedemptions() {
	now := s.Clock.Now()
	for _, r := range s.Redemptions.Filter(func(_ string, r Redemption) bool {
		return r.Status == "pending" && now.After(r.ExpiresAt)
	}) {
		r.Status = "expired"
		s.Redemptions.Set(r.ID, r)

		txID := s.Transactions.NextID()
		s.Transactions.Set(txID, Transaction{
			ID:          txID,
			CustomerUID: r.CustomerUID,
			Type:        "earned",
			Amount:      r.Points,
			SellerUID:   r.SellerUID,
			SellerName:  r.SellerName,
			Timestamp:   now,
		})
	}
}

// RevokeSessionsFor drops every session belonging to the user.
func (s *MemoryStore) RevokeSessionsFor(uid string) {
	for _, sess := range s.Sessions.Filter(func(_ string, x Session) bool {
		return x.UID == uid
	}) {
		s.Sessions.Delete(sess.RefreshToken)
	}
}
