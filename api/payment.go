package api

import "context"

// CreateOrder opens a payment order for a subscription upgrade. The charge
// itself is collected by the third-party payment SDK; this call only
// reserves the order server-side.
func (c *Client) CreateOrder(ctx context.Context, plan Tier) (*Order, error) {
	if plan != TierPro && plan != TierPremium {
		return nil, &ValidationError{Field: "plan", Message: "plan must be pro or premium"}
	}
	var order Order
	if err := c.do(ctx, "POST", "/createOrder", nil, map[string]any{"plan": plan}, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// VerifyPayment confirms a completed payment and applies the new plan.
func (c *Client) VerifyPayment(ctx context.Context, req VerifyPaymentRequest) (*PaymentResult, error) {
	if req.OrderID == "" || req.PaymentID == "" {
		return nil, &ValidationError{Message: "order_id and payment_id are required"}
	}
	var res PaymentResult
	if err := c.do(ctx, "POST", "/verifyPayment", nil, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
