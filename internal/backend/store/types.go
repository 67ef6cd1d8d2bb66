package store

import "time"

// Account is a registered principal, seller or customer, with its
// role-specific profile fields.
type Account struct {
	UID          string `json:"uid"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"` // seller, customer

	// Seller fields
	BusinessName string `json:"business_name,omitempty"`
	Tier         string `json:"tier,omitempty"` // free, pro, premium
	QRCodeType   string `json:"qr_code_type,omitempty"`

	// Customer fields
	Phone string   `json:"phone,omitempty"`
	City  string   `json:"city,omitempty"`
	Lat   *float64 `json:"lat,omitempty"`
	Lng   *float64 `json:"lng,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Session is an issued token pair. The refresh token is the key; rotating a
// pair replaces the record.
type Session struct {
	UID          string    `json:"uid"`
	RefreshToken string    `json:"refresh_token"`
	CreatedAt    time.Time `json:"created_at"`
}

// QRCode is a seller-issued code. HiddenCode is never serialized to API
// responses; scans must supply it for static_hidden codes.
type QRCode struct {
	ID          string     `json:"id"`
	SellerUID   string     `json:"-"`
	Type        string     `json:"qr_type"` // dynamic, static, static_hidden
	PointsValue int        `json:"points_value"`
	Data        string     `json:"qr_code_data"`
	HiddenCode  string     `json:"-"`
	Active      bool       `json:"-"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Transaction is one immutable entry in a customer's points history.
type Transaction struct {
	ID          string    `json:"id"`
	CustomerUID string    `json:"-"`
	Type        string    `json:"type"` // earned, redeemed, payment
	Amount      int       `json:"amount"`
	SellerUID   string    `json:"seller_id"`
	SellerName  string    `json:"seller_name"`
	Timestamp   time.Time `json:"timestamp"`
}

// Redemption is a customer's pending or settled exchange of points.
// Pending redemptions expire via the clock; only pending ones may be
// cancelled or redeemed.
type Redemption struct {
	ID          string     `json:"id"`
	CustomerUID string     `json:"-"`
	SellerUID   string     `json:"seller_id"`
	SellerName  string     `json:"seller_name"`
	Points      int        `json:"points"`
	OfferID     string     `json:"offer_id,omitempty"`
	Status      string     `json:"status"` // pending, redeemed, cancelled, expired
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   time.Time  `json:"-"`
	RedeemedAt  *time.Time `json:"redeemed_at,omitempty"`
}

// ScanEvent is one row of a seller's recent-scan feed.
type ScanEvent struct {
	SellerUID    string    `json:"-"`
	CustomerName string    `json:"customer_name"`
	Points       int       `json:"points"`
	ScannedAt    time.Time `json:"scanned_at"`
}

// Order is a subscription payment order awaiting verification.
type Order struct {
	OrderID   string    `json:"order_id"`
	SellerUID string    `json:"-"`
	Plan      string    `json:"plan"`
	Amount    int       `json:"amount"`
	Currency  string    `json:"currency"`
	Paid      bool      `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
