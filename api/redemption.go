package api

import (
	"context"
	"net/url"
)

// CreateRedemption opens a pending redemption against a seller. The backend
// drives it to redeemed or expired; the client may only cancel.
func (c *Client) CreateRedemption(ctx context.Context, req CreateRedemptionRequest) (*Redemption, error) {
	if req.SellerID == "" {
		return nil, &ValidationError{Field: "seller_id", Message: "seller is required"}
	}
	if req.Points <= 0 {
		return nil, &ValidationError{Field: "points", Message: "points must be positive"}
	}
	var r Redemption
	if err := c.do(ctx, "POST", "/redemptions", nil, req, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// CancelRedemption moves a pending redemption to cancelled. Terminal
// redemptions reject the transition server-side.
func (c *Client) CancelRedemption(ctx context.Context, id string) error {
	return c.do(ctx, "POST", "/redemptions/"+id+"/cancel", nil, nil, nil)
}

// RedemptionStatus fetches the current state of one redemption. The
// watcher in package poll calls this every ten seconds while pending.
func (c *Client) RedemptionStatus(ctx context.Context, id string) (*Redemption, error) {
	var r Redemption
	if err := c.do(ctx, "GET", "/redemptions/"+id+"/status", nil, nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// RedemptionQR fetches the code the customer presents to the seller for a
// pending redemption.
func (c *Client) RedemptionQR(ctx context.Context, id string) (*QRCode, error) {
	var qr QRCode
	if err := c.do(ctx, "GET", "/redemptions/"+id+"/qr", nil, nil, &qr); err != nil {
		return nil, err
	}
	return &qr, nil
}

// ListRedemptions returns the caller's redemptions, optionally filtered by
// status.
func (c *Client) ListRedemptions(ctx context.Context, status RedemptionStatus) ([]Redemption, error) {
	var q url.Values
	if status != "" {
		q = url.Values{"status": {string(status)}}
	}
	var res struct {
		Redemptions []Redemption `json:"redemptions"`
	}
	if err := c.do(ctx, "GET", "/redemptions", q, nil, &res); err != nil {
		return nil, err
	}
	if res.Redemptions == nil {
		res.Redemptions = []Redemption{}
	}
	return res.Redemptions, nil
}
