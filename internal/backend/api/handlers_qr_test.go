package api_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/perkloop/perkloop-go/pkg/testutil"
)

func generateQR(t *testing.T, c *testutil.Client, body map[string]any) map[string]any {
	t.Helper()
	return c.Post("/qr-code/generate-qr", body).AssertStatus(http.StatusCreated).Data()
}

func TestGenerateAndFetchActiveQR(t *testing.T) {
	c, _ := newTestBackend(t)
	asSeller(t, c, "chai@example.com", "static")

	created := generateQR(t, c, map[string]any{
		"qr_type":      "static",
		"points_value": 25,
	})
	if created["qr_code_data"] == "" {
		t.Error("expected a scannable payload")
	}
	if created["image"] == "" {
		t.Error("expected a rendered image")
	}

	active := c.Get("/qr-code/get-active-qr").AssertStatus(http.StatusOK).Data()
	if active["id"] != created["id"] {
		t.Errorf("active code %v does not match created %v", active["id"], created["id"])
	}
}

func TestNoActiveQRIsEnvelopeNotHTTPError(t *testing.T) {
	c, _ := newTestBackend(t)
	asSeller(t, c, "chai@example.com", "static")

	resp := c.Get("/qr-code/get-active-qr")
	resp.AssertStatus(http.StatusOK)
	m := resp.JSONMap()
	if m["success"] != false {
		t.Fatalf("expected success:false envelope, got %s", resp.Body)
	}
	if m["code"] != "no_active_qr" {
		t.Errorf("expected code no_active_qr, got %v", m["code"])
	}
}

func TestGenerateQRSupersedesPrevious(t *testing.T) {
	c, _ := newTestBackend(t)
	asSeller(t, c, "chai@example.com", "static")

	first := generateQR(t, c, map[string]any{"qr_type": "static", "points_value": 10})
	second := generateQR(t, c, map[string]any{"qr_type": "static", "points_value": 20})

	active := c.Get("/qr-code/get-active-qr").AssertStatus(http.StatusOK).Data()
	if active["id"] != second["id"] {
		t.Errorf("expected newest code active, got %v", active["id"])
	}
	if active["id"] == first["id"] {
		t.Error("superseded code still active")
	}
}

func TestGenerateQRTierLimit(t *testing.T) {
	c, _ := newTestBackend(t)
	asSeller(t, c, "chai@example.com", "static")

	// free tier: locked to the registered type
	c.Post("/qr-code/generate-qr", map[string]any{
		"qr_type":            "dynamic",
		"points_value":       10,
		"expires_in_minutes": 30,
	}).AssertStatus(http.StatusForbidden).AssertBodyContains("tier_limit")

	c.Post("/qr-code/generate-qr", map[string]any{
		"qr_type":      "static_hidden",
		"points_value": 10,
		"hidden_code":  "1234",
	}).AssertStatus(http.StatusForbidden).AssertBodyContains("tier_limit")
}

func TestDynamicQRExpiresWithClock(t *testing.T) {
	c, b := newTestBackend(t)
	asSeller(t, c, "chai@example.com", "dynamic")

	// registered type dynamic is allowed on free
	generateQR(t, c, map[string]any{
		"qr_type":            "dynamic",
		"points_value":       10,
		"expires_in_minutes": 30,
	})
	c.Get("/qr-code/get-active-qr").AssertStatus(http.StatusOK)

	b.Store.Clock.Advance(31 * time.Minute)
	resp := c.Get("/qr-code/get-active-qr")
	resp.AssertStatus(http.StatusOK).AssertBodyContains("no_active_qr")
}

func TestScanEarnsPoints(t *testing.T) {
	c, _ := newTestBackend(t)
	asSeller(t, c, "chai@example.com", "static")
	qr := generateQR(t, c, map[string]any{"qr_type": "static", "points_value": 25})

	asCustomer(t, c, "amira@example.com")
	data := c.Post("/qr/scan", map[string]any{
		"qr_code_data": qr["qr_code_data"],
	}).AssertStatus(http.StatusOK).Data()

	if data["points_earned"].(float64) != 25 {
		t.Errorf("expected 25 points earned, got %v", data["points_earned"])
	}
	if data["total_points"].(float64) != 25 {
		t.Errorf("expected running total 25, got %v", data["total_points"])
	}
	if data["seller_name"] != "Chai Point" {
		t.Errorf("expected seller name, got %v", data["seller_name"])
	}

	// scanning twice keeps accruing
	data = c.Post("/qr/scan", map[string]any{
		"qr_code_data": qr["qr_code_data"],
	}).AssertStatus(http.StatusOK).Data()
	if data["total_points"].(float64) != 50 {
		t.Errorf("expected running total 50, got %v", data["total_points"])
	}
}

func TestScanHiddenCode(t *testing.T) {
	c, b := newTestBackend(t)
	asSeller(t, c, "chai@example.com", "static_hidden")
	qr := generateQR(t, c, map[string]any{
		"qr_type":      "static_hidden",
		"points_value": 10,
		"hidden_code":  "4321",
	})

	asCustomer(t, c, "amira@example.com")
	c.Post("/qr/scan", map[string]any{
		"qr_code_data": qr["qr_code_data"],
	}).AssertStatus(http.StatusForbidden).AssertBodyContains("bad_hidden_code")

	c.Post("/qr/scan", map[string]any{
		"qr_code_data": qr["qr_code_data"],
		"hidden_code":  "4321",
	}).AssertStatus(http.StatusOK)

	// hidden code never leaks into responses
	if _, leaked := qr["hidden_code"]; leaked {
		t.Error("hidden code leaked into the generate response")
	}
	if snapshot := b.Store.QRCodes.List(); len(snapshot) != 1 || snapshot[0].HiddenCode != "4321" {
		t.Fatalf("expected the stored code to keep its hidden code, got %+v", snapshot)
	}
}

func TestScanExpiredDynamicQR(t *testing.T) {
	c, b := newTestBackend(t)
	asSeller(t, c, "chai@example.com", "dynamic")
	qr := generateQR(t, c, map[string]any{
		"qr_type":            "dynamic",
		"points_value":       10,
		"expires_in_minutes": 5,
	})

	b.Store.Clock.Advance(6 * time.Minute)

	asCustomer(t, c, "amira@example.com")
	c.Post("/qr/scan", map[string]any{
		"qr_code_data": qr["qr_code_data"],
	}).AssertStatus(http.StatusGone).AssertBodyContains("qr_expired")
}

func TestScanUnknownCode(t *testing.T) {
	c, _ := newTestBackend(t)
	asCustomer(t, c, "amira@example.com")

	c.Post("/qr/scan", map[string]any{
		"qr_code_data": "pl:usr_000099:nope",
	}).AssertStatus(http.StatusNotFound).AssertBodyContains("qr_not_found")
}

func TestSellerCannotScanCustomerCannotGenerate(t *testing.T) {
	c, _ := newTestBackend(t)

	asSeller(t, c, "chai@example.com", "static")
	c.Post("/qr/scan", map[string]any{"qr_code_data": "x"}).
		AssertStatus(http.StatusForbidden)

	asCustomer(t, c, "amira@example.com")
	c.Post("/qr-code/generate-qr", map[string]any{"qr_type": "static", "points_value": 5}).
		AssertStatus(http.StatusForbidden)
}
