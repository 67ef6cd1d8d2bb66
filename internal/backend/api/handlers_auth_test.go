package api_test

import (
	"net/http"
	"testing"
	"time"
)

func TestRegisterLoginFetchProfile(t *testing.T) {
	c, _ := newTestBackend(t)

	uid := registerSeller(t, c, "chai@example.com", "static")
	c.Token, _ = login(t, c, "chai@example.com", "seller")

	data := c.Get("/getUserDetails").AssertStatus(http.StatusOK).Data()
	user := data["user"].(map[string]any)
	if user["uid"] != uid {
		t.Errorf("expected uid %s, got %v", uid, user["uid"])
	}
	seller := user["seller"].(map[string]any)
	if seller["tier"] != "free" {
		t.Errorf("new sellers start on free, got %v", seller["tier"])
	}
	if seller["qr_code_type"] != "static" {
		t.Errorf("expected registered type static, got %v", seller["qr_code_type"])
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	c, _ := newTestBackend(t)

	registerCustomer(t, c, "amira@example.com")
	c.Post("/registerUser", map[string]any{
		"email":         "amira@example.com",
		"password":      "correct-horse",
		"role":          "seller",
		"business_name": "Shadow Biz",
	}).AssertStatus(http.StatusConflict).AssertBodyContains("email_taken")
}

func TestRegisterSellerNeedsBusinessName(t *testing.T) {
	c, _ := newTestBackend(t)

	c.Post("/registerUser", map[string]any{
		"email":    "nameless@example.com",
		"password": "correct-horse",
		"role":     "seller",
	}).AssertStatus(http.StatusUnprocessableEntity).AssertBodyContains("business_name")
}

func TestLoginWrongPassword(t *testing.T) {
	c, _ := newTestBackend(t)

	registerCustomer(t, c, "amira@example.com")
	c.Post("/loginUser", map[string]any{
		"email":    "amira@example.com",
		"password": "wrong",
		"role":     "customer",
	}).AssertStatus(http.StatusUnauthorized).AssertBodyContains("bad_credentials")
}

func TestLoginRoleMismatch(t *testing.T) {
	c, _ := newTestBackend(t)

	registerCustomer(t, c, "amira@example.com")
	c.Post("/loginUser", map[string]any{
		"email":    "amira@example.com",
		"password": "correct-horse",
		"role":     "seller",
	}).AssertStatus(http.StatusUnauthorized)
}

func TestRefreshRotatesPair(t *testing.T) {
	c, _ := newTestBackend(t)

	registerCustomer(t, c, "amira@example.com")
	_, refresh := login(t, c, "amira@example.com", "customer")

	data := c.Post("/refreshToken", map[string]any{"refreshToken": refresh}).
		AssertStatus(http.StatusOK).Data()
	next := data["refreshToken"].(string)
	if next == refresh {
		t.Error("refresh token was not rotated")
	}

	// the consumed token is gone
	c.Post("/refreshToken", map[string]any{"refreshToken": refresh}).
		AssertStatus(http.StatusUnauthorized).AssertBodyContains("invalid_refresh")

	// the new one works
	c.Post("/refreshToken", map[string]any{"refreshToken": next}).
		AssertStatus(http.StatusOK)
}

func TestLogoutRevokesSessions(t *testing.T) {
	c, _ := newTestBackend(t)

	uid := registerCustomer(t, c, "amira@example.com")
	_, refresh := login(t, c, "amira@example.com", "customer")

	c.Post("/logoutUser", map[string]any{"uid": uid}).AssertStatus(http.StatusOK)

	c.Post("/refreshToken", map[string]any{"refreshToken": refresh}).
		AssertStatus(http.StatusUnauthorized)
}

func TestAccessTokenExpiresWithClock(t *testing.T) {
	c, b := newTestBackend(t)

	registerCustomer(t, c, "amira@example.com")
	c.Token, _ = login(t, c, "amira@example.com", "customer")

	c.Get("/getUserDetails").AssertStatus(http.StatusOK)

	b.Store.Clock.Advance(2 * time.Hour)
	c.Get("/getUserDetails").
		AssertStatus(http.StatusUnauthorized).
		AssertBodyContains("invalid_token")
}

func TestGetUserDetailsOwnProfileOnly(t *testing.T) {
	c, _ := newTestBackend(t)

	otherUID := registerCustomer(t, c, "other@example.com")
	asCustomer(t, c, "amira@example.com")

	c.Get("/getUserDetails?uid=" + otherUID).
		AssertStatus(http.StatusForbidden)
}
