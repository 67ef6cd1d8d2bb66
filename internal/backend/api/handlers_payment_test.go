package api_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"testing"
)

// providerSignature reproduces what the payment provider sends back after a
// successful charge.
func providerSignature(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestSubscriptionUpgradeFlow(t *testing.T) {
	c, _ := newTestBackend(t)
	asSeller(t, c, "chai@example.com", "static")

	order := c.Post("/createOrder", map[string]any{"plan": "pro"}).
		AssertStatus(http.StatusCreated).Data()
	orderID := order["order_id"].(string)
	if order["amount"].(float64) != 49900 {
		t.Errorf("expected pro price 49900, got %v", order["amount"])
	}
	if order["currency"] != "INR" {
		t.Errorf("expected INR, got %v", order["currency"])
	}

	result := c.Post("/verifyPayment", map[string]any{
		"order_id":   orderID,
		"payment_id": "pay_abc",
		"signature":  providerSignature(orderID, "pay_abc"),
	}).AssertStatus(http.StatusOK).Data()
	if result["verified"] != true {
		t.Errorf("expected verified payment, got %v", result)
	}
	if result["plan"] != "pro" {
		t.Errorf("expected pro plan, got %v", result["plan"])
	}

	// the upgrade takes effect: pro may generate dynamic codes
	c.Post("/qr-code/generate-qr", map[string]any{
		"qr_type":            "dynamic",
		"points_value":       10,
		"expires_in_minutes": 30,
	}).AssertStatus(http.StatusCreated)
}

func TestVerifyPaymentBadSignature(t *testing.T) {
	c, _ := newTestBackend(t)
	asSeller(t, c, "chai@example.com", "static")

	order := c.Post("/createOrder", map[string]any{"plan": "premium"}).
		AssertStatus(http.StatusCreated).Data()

	c.Post("/verifyPayment", map[string]any{
		"order_id":   order["order_id"],
		"payment_id": "pay_abc",
		"signature":  "deadbeef",
	}).AssertStatus(http.StatusForbidden).AssertBodyContains("bad_signature")
}

func TestVerifyPaymentReplayRejected(t *testing.T) {
	c, _ := newTestBackend(t)
	asSeller(t, c, "chai@example.com", "static")

	order := c.Post("/createOrder", map[string]any{"plan": "pro"}).
		AssertStatus(http.StatusCreated).Data()
	orderID := order["order_id"].(string)
	payload := map[string]any{
		"order_id":   orderID,
		"payment_id": "pay_abc",
		"signature":  providerSignature(orderID, "pay_abc"),
	}

	c.Post("/verifyPayment", payload).AssertStatus(http.StatusOK)
	c.Post("/verifyPayment", payload).
		AssertStatus(http.StatusConflict).AssertBodyContains("already_paid")
}

func TestCreateOrderUnknownPlan(t *testing.T) {
	c, _ := newTestBackend(t)
	asSeller(t, c, "chai@example.com", "static")

	c.Post("/createOrder", map[string]any{"plan": "enterprise"}).
		AssertStatus(http.StatusUnprocessableEntity).AssertBodyContains("bad_plan")
}

func TestCreateOrderCustomerForbidden(t *testing.T) {
	c, _ := newTestBackend(t)
	asCustomer(t, c, "amira@example.com")

	c.Post("/createOrder", map[string]any{"plan": "pro"}).
		AssertStatus(http.StatusForbidden)
}

func TestVerifyPaymentForeignOrder(t *testing.T) {
	c, _ := newTestBackend(t)
	asSeller(t, c, "chai@example.com", "static")
	order := c.Post("/createOrder", map[string]any{"plan": "pro"}).
		AssertStatus(http.StatusCreated).Data()
	orderID := order["order_id"].(string)

	asSeller(t, c, "other@example.com", "static")
	c.Post("/verifyPayment", map[string]any{
		"order_id":   orderID,
		"payment_id": "pay_abc",
		"signature":  providerSignature(orderID, "pay_abc"),
	}).AssertStatus(http.StatusNotFound)
}
