package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	token     atomic.Value
	refreshed atomic.Int32
	refresh   func(ctx context.Context) error
}

func newFakeAuth(token string) *fakeAuth {
	a := &fakeAuth{}
	a.token.Store(token)
	return a
}

func (a *fakeAuth) AccessToken() string {
	tok, _ := a.token.Load().(string)
	return tok
}

func (a *fakeAuth) RefreshToken(ctx context.Context) error {
	a.refreshed.Add(1)
	if a.refresh != nil {
		return a.refresh(ctx)
	}
	return nil
}

func writeEnvelope(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func TestClientAttachesBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{}})
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.Bind(newFakeAuth("tok-123"))

	err := c.do(context.Background(), "GET", "/getUserDetails", nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestClientNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refused connection from here on

	c := New(srv.URL)
	err := c.do(context.Background(), "GET", "/points/balance", nil, nil, nil)

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, FallbackNetworkMessage, UserMessage(err))
}

func TestClientServerErrorCarriesEnvelopeFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusConflict, map[string]any{
			"success": false,
			"code":    "email_taken",
			"error":   "an account with this email already exists",
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	err := c.do(context.Background(), "POST", "/registerUser", nil, map[string]string{}, nil)

	var srvErr *ServerError
	require.ErrorAs(t, err, &srvErr)
	assert.Equal(t, http.StatusConflict, srvErr.Status)
	assert.Equal(t, "email_taken", srvErr.Code)
	assert.Equal(t, "an account with this email already exists", srvErr.Message)
	assert.Equal(t, "an account with this email already exists", UserMessage(err))
}

func TestClientSuccessFalseIsServerErrorEvenOn200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]any{
			"success": false,
			"code":    "no_active_qr",
			"error":   "no active QR code",
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	err := c.do(context.Background(), "GET", "/qr-code/get-active-qr", nil, nil, nil)

	var srvErr *ServerError
	require.ErrorAs(t, err, &srvErr)
	assert.Equal(t, "no_active_qr", srvErr.Code)
}

func TestClientRefreshesOnceOn401(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			writeEnvelope(w, http.StatusUnauthorized, map[string]any{
				"success": false, "code": "invalid_token", "error": "token expired or invalid",
			})
			return
		}
		if r.Header.Get("Authorization") != "Bearer fresh" {
			writeEnvelope(w, http.StatusUnauthorized, map[string]any{"success": false})
			return
		}
		writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{}})
	}))
	defer srv.Close()

	auth := newFakeAuth("stale")
	auth.refresh = func(context.Context) error {
		auth.token.Store("fresh")
		return nil
	}

	c := New(srv.URL)
	c.Bind(auth)

	err := c.do(context.Background(), "GET", "/getUserDetails", nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(1), auth.refreshed.Load())
	assert.Equal(t, int32(2), calls.Load())
}

func TestClientGivesUpAfterSecond401(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeEnvelope(w, http.StatusUnauthorized, map[string]any{
			"success": false, "error": "token expired or invalid",
		})
	}))
	defer srv.Close()

	auth := newFakeAuth("stale")
	c := New(srv.URL)
	c.Bind(auth)

	err := c.do(context.Background(), "GET", "/getUserDetails", nil, nil, nil)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, int32(1), auth.refreshed.Load())
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, "please log in again", UserMessage(err))
}

func TestClientRefreshFailureSurfacesOriginal401(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, map[string]any{"success": false})
	}))
	defer srv.Close()

	auth := newFakeAuth("stale")
	auth.refresh = func(context.Context) error {
		return &AuthError{Message: "refresh token not recognized"}
	}

	c := New(srv.URL)
	c.Bind(auth)

	err := c.do(context.Background(), "GET", "/getUserDetails", nil, nil, nil)
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, int32(1), auth.refreshed.Load())
}

func TestLoginUserNeverRefreshesOn401(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, map[string]any{
			"success": false, "error": "invalid email or password",
		})
	}))
	defer srv.Close()

	auth := newFakeAuth("")
	c := New(srv.URL)
	c.Bind(auth)

	_, err := c.LoginUser(context.Background(), "a@b.c", "wrong-password", RoleCustomer)
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, int32(0), auth.refreshed.Load(), "auth endpoints must not trigger the refresh interceptor")
}

func TestUserMessageFallbacks(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, "something went wrong, please try again",
		UserMessage(&ServerError{Status: 500}))
	assert.Equal(t, "seller is required",
		UserMessage(&ValidationError{Field: "seller_id", Message: "seller is required"}))
}
