package api

import "time"

// Role distinguishes the two account kinds the platform serves.
type Role string

const (
	RoleSeller   Role = "seller"
	RoleCustomer Role = "customer"
)

// Tier is a seller's subscription level. It gates which QR code types may be
// active concurrently.
type Tier string

const (
	TierFree    Tier = "free"
	TierPro     Tier = "pro"
	TierPremium Tier = "premium"
)

// QRType identifies a QR code variant. Dynamic codes expire, static codes
// persist until replaced, static-hidden codes additionally require a secret
// code at scan time.
type QRType string

const (
	QRDynamic      QRType = "dynamic"
	QRStatic       QRType = "static"
	QRStaticHidden QRType = "static_hidden"
)

// RedemptionStatus is the lifecycle state of a redemption. Pending is the
// only non-terminal state.
type RedemptionStatus string

const (
	RedemptionPending   RedemptionStatus = "pending"
	RedemptionRedeemed  RedemptionStatus = "redeemed"
	RedemptionCancelled RedemptionStatus = "cancelled"
	RedemptionExpired   RedemptionStatus = "expired"
)

// Terminal reports whether the status ends the redemption's lifecycle.
func (s RedemptionStatus) Terminal() bool {
	return s == RedemptionRedeemed || s == RedemptionCancelled || s == RedemptionExpired
}

// LoginResult is the token pair issued by POST /loginUser.
type LoginResult struct {
	UID          string `json:"uid"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
}

// RefreshResult is the replacement token pair issued by POST /refreshToken.
type RefreshResult struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
}

// Location is a customer's stored coordinates. City may be empty and the
// whole struct may be absent from a profile.
type Location struct {
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	City string  `json:"city,omitempty"`
}

// Subscription describes a seller's current plan.
type Subscription struct {
	Plan      Tier       `json:"plan"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	AutoRenew bool       `json:"auto_renew"`
}

// QRSettings are the seller's defaults for code generation.
type QRSettings struct {
	DefaultPoints   int `json:"default_points"`
	DefaultExpiryMn int `json:"default_expiry_minutes"`
}

// SellerProfile is the seller side of a user's nested profile.
type SellerProfile struct {
	BusinessName string        `json:"business_name"`
	Tier         Tier          `json:"tier"`
	QRCodeType   QRType        `json:"qr_code_type"`
	QRSettings   *QRSettings   `json:"qr_settings,omitempty"`
	Subscription *Subscription `json:"subscription,omitempty"`
}

// CustomerProfile is the customer side of a user's nested profile.
type CustomerProfile struct {
	Phone    string    `json:"phone,omitempty"`
	Location *Location `json:"location,omitempty"`
}

// User is the authenticated principal with its role-specific nested profile.
// Exactly one of Seller and Customer is populated.
type User struct {
	UID      string           `json:"uid"`
	Email    string           `json:"email"`
	Name     string           `json:"name"`
	Role     Role             `json:"role"`
	Seller   *SellerProfile   `json:"seller,omitempty"`
	Customer *CustomerProfile `json:"customer,omitempty"`
}

// RegisterPayload is the body of POST /registerUser.
type RegisterPayload struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Name         string `json:"name"`
	Role         Role   `json:"role"`
	BusinessName string `json:"business_name,omitempty"`
	QRCodeType   QRType `json:"qr_code_type,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

// GenerateQRRequest is the body of POST /qr-code/generate-qr.
type GenerateQRRequest struct {
	Type             QRType `json:"qr_type"`
	PointsValue      int    `json:"points_value"`
	ExpiresInMinutes int    `json:"expires_in_minutes,omitempty"`
	HiddenCode       string `json:"hidden_code,omitempty"`
}

// QRCode is a generated code as issued by the backend. Image holds the
// rendered payload (base64 PNG) ready for display.
type QRCode struct {
	ID          string     `json:"id"`
	Type        QRType     `json:"qr_type"`
	PointsValue int        `json:"points_value"`
	Data        string     `json:"qr_code_data"`
	Image       string     `json:"image,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ScanResult is the outcome of POST /qr/scan.
type ScanResult struct {
	PointsEarned int    `json:"points_earned"`
	TotalPoints  int    `json:"total_points"`
	SellerName   string `json:"seller_name,omitempty"`
}

// Balance is a customer's running total with one seller. Read-only: the
// client never derives it from the transaction log.
type Balance struct {
	SellerID   string `json:"seller_id"`
	SellerName string `json:"seller_name"`
	Points     int    `json:"points"`
}

// TransactionType classifies an entry in the points history.
type TransactionType string

const (
	TxEarned   TransactionType = "earned"
	TxRedeemed TransactionType = "redeemed"
	TxPayment  TransactionType = "payment"
)

// Transaction is one immutable entry in a customer's points history.
type Transaction struct {
	ID         string          `json:"id"`
	Type       TransactionType `json:"type"`
	Amount     int             `json:"amount"`
	SellerID   string          `json:"seller_id"`
	SellerName string          `json:"seller_name"`
	Timestamp  time.Time       `json:"timestamp"`
}

// CreateRedemptionRequest is the body of POST /redemptions.
type CreateRedemptionRequest struct {
	SellerID string `json:"seller_id"`
	Points   int    `json:"points"`
	OfferID  string `json:"offer_id,omitempty"`
}

// Redemption is a customer's exchange of points for a reward.
type Redemption struct {
	ID         string           `json:"id"`
	SellerID   string           `json:"seller_id"`
	SellerName string           `json:"seller_name"`
	Points     int              `json:"points"`
	OfferID    string           `json:"offer_id,omitempty"`
	Status     RedemptionStatus `json:"status"`
	CreatedAt  time.Time        `json:"created_at"`
	RedeemedAt *time.Time       `json:"redeemed_at,omitempty"`
}

// ScanRecord is one row of a seller's recent-scan feed.
type ScanRecord struct {
	CustomerName string    `json:"customer_name"`
	Points       int       `json:"points"`
	ScannedAt    time.Time `json:"scanned_at"`
}

// TodayStats are the current-day counters on the seller dashboard.
type TodayStats struct {
	Scans        int `json:"scans"`
	PointsIssued int `json:"points_issued"`
	Redemptions  int `json:"redemptions"`
}

// SellerStats is the payload of GET /dashboard/seller-stats. All aggregates
// are computed by the backend.
type SellerStats struct {
	TotalUsers        int          `json:"total_users"`
	TotalQRs          int          `json:"total_qrs"`
	TotalScanned      int          `json:"total_scanned"`
	TotalPointsIssued int          `json:"total_points_issued"`
	TotalRedemptions  int          `json:"total_redemptions"`
	SellerName        string       `json:"seller_name"`
	Today             TodayStats   `json:"today"`
	LastFiveScans     []ScanRecord `json:"last_five_scans"`
}

// Order is a payment order opened for a subscription upgrade. The actual
// charge happens in a third-party payment SDK; the backend only brackets it
// with create and verify calls.
type Order struct {
	OrderID  string `json:"order_id"`
	Amount   int    `json:"amount"`
	Currency string `json:"currency"`
	Plan     Tier   `json:"plan"`
}

// VerifyPaymentRequest is the body of POST /verifyPayment.
type VerifyPaymentRequest struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

// PaymentResult reports the verified payment and the seller's new plan.
type PaymentResult struct {
	Verified bool `json:"verified"`
	Plan     Tier `json:"plan"`
}
