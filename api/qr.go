package api

import (
	"context"
	"fmt"
)

// CheckQRTypeAllowed applies the subscription-tier gate before any network
// call. Free tier sellers are locked to the QR type chosen at registration;
// pro adds dynamic codes; premium allows every type.
func CheckQRTypeAllowed(tier Tier, registered, want QRType) error {
	switch tier {
	case TierPremium:
		return nil
	case TierPro:
		if want == registered || want == QRDynamic {
			return nil
		}
		return &ValidationError{
			Field:   "qr_type",
			Message: fmt.Sprintf("your plan allows %s and dynamic codes only, upgrade to use %s", registered, want),
		}
	default:
		if want == registered {
			return nil
		}
		return &ValidationError{
			Field:   "qr_type",
			Message: fmt.Sprintf("free plan is limited to %s codes, upgrade to use %s", registered, want),
		}
	}
}

// GenerateQR requests a new QR code. A new code supersedes the seller's
// previously active one; codes are never mutated in place.
func (c *Client) GenerateQR(ctx context.Context, req GenerateQRRequest) (*QRCode, error) {
	if req.PointsValue <= 0 {
		return nil, &ValidationError{Field: "points_value", Message: "points value must be positive"}
	}
	if req.Type == QRStaticHidden && req.HiddenCode == "" {
		return nil, &ValidationError{Field: "hidden_code", Message: "hidden code is required for static_hidden QR"}
	}
	if req.Type == QRDynamic && req.ExpiresInMinutes <= 0 {
		return nil, &ValidationError{Field: "expires_in_minutes", Message: "dynamic QR needs an expiry"}
	}
	var qr QRCode
	if err := c.do(ctx, "POST", "/qr-code/generate-qr", nil, req, &qr); err != nil {
		return nil, err
	}
	return &qr, nil
}

// GetActiveQR returns the seller's currently active code, or (nil, nil) when
// none is active. Having no active code is a valid state, not an error.
func (c *Client) GetActiveQR(ctx context.Context) (*QRCode, error) {
	var qr QRCode
	err := c.do(ctx, "GET", "/qr-code/get-active-qr", nil, nil, &qr)
	if err != nil {
		if se, ok := err.(*ServerError); ok && se.Code == "no_active_qr" {
			return nil, nil
		}
		return nil, err
	}
	return &qr, nil
}

// ScanQR submits a scanned code payload, earning the customer its points.
// hiddenCode is required only for static_hidden codes.
func (c *Client) ScanQR(ctx context.Context, qrData, hiddenCode string) (*ScanResult, error) {
	if qrData == "" {
		return nil, &ValidationError{Field: "qr_code_data", Message: "scan payload is empty"}
	}
	body := map[string]string{"qr_code_data": qrData}
	if hiddenCode != "" {
		body["hidden_code"] = hiddenCode
	}
	var res ScanResult
	if err := c.do(ctx, "POST", "/qr/scan", nil, body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
