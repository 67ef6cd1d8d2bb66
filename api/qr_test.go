package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckQRTypeAllowed(t *testing.T) {
	cases := []struct {
		name       string
		tier       Tier
		registered QRType
		want       QRType
		allowed    bool
	}{
		{"free registered type", TierFree, QRStatic, QRStatic, true},
		{"free other static type", TierFree, QRStatic, QRStaticHidden, false},
		{"free dynamic", TierFree, QRStatic, QRDynamic, false},
		{"pro registered type", TierPro, QRStaticHidden, QRStaticHidden, true},
		{"pro dynamic", TierPro, QRStatic, QRDynamic, true},
		{"pro other static type", TierPro, QRStatic, QRStaticHidden, false},
		{"premium anything", TierPremium, QRStatic, QRStaticHidden, true},
		{"premium dynamic", TierPremium, QRStaticHidden, QRDynamic, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckQRTypeAllowed(tc.tier, tc.registered, tc.want)
			if tc.allowed {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "qr_type", verr.Field)
		})
	}
}

func TestGenerateQRValidatesBeforeNetwork(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	c := New(srv.URL)
	ctx := context.Background()

	_, err := c.GenerateQR(ctx, GenerateQRRequest{Type: QRStatic, PointsValue: 0})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = c.GenerateQR(ctx, GenerateQRRequest{Type: QRStaticHidden, PointsValue: 10})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "hidden_code", verr.Field)

	_, err = c.GenerateQR(ctx, GenerateQRRequest{Type: QRDynamic, PointsValue: 10})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "expires_in_minutes", verr.Field)

	assert.Equal(t, int32(0), hits.Load(), "validation failures must not reach the backend")
}

func TestGetActiveQRTreatsNoActiveAsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]any{
			"success": false,
			"code":    "no_active_qr",
			"error":   "no active QR code",
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	qr, err := c.GetActiveQR(context.Background())
	require.NoError(t, err)
	assert.Nil(t, qr)
}

func TestGetActiveQRDecodesCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"id":           "qr_000001",
				"qr_type":      "static",
				"points_value": 25,
				"qr_code_data": "pl:usr_000001:abc",
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	qr, err := c.GetActiveQR(context.Background())
	require.NoError(t, err)
	require.NotNil(t, qr)
	assert.Equal(t, QRStatic, qr.Type)
	assert.Equal(t, 25, qr.PointsValue)
	assert.Equal(t, "pl:usr_000001:abc", qr.Data)
}
