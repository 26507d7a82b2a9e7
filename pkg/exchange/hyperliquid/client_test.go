package hyperliquid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hypergate/pkg/exchange"
)

const testPrivateKey = "0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a741b52d7c5d5095e2f"

func testSigner(t *testing.T) *PrivateKeySigner {
	t.Helper()
	signer, err := NewPrivateKeySigner(testPrivateKey)
	require.NoError(t, err)
	return signer
}

func TestNewPrivateKeySigner(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		signer := testSigner(t)
		require.NotEmpty(t, signer.Address())
		require.Equal(t, "0x", signer.Address()[:2])
	})

	t.Run("empty", func(t *testing.T) {
		_, err := NewPrivateKeySigner("")
		require.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := NewPrivateKeySigner("nothex")
		require.Error(t, err)
	})
}

func TestSignerRejectsBadDigest(t *testing.T) {
	signer := testSigner(t)
	_, err := signer.Sign([]byte("short"))
	require.Error(t, err)
}

func TestSignActionDeterministic(t *testing.T) {
	signer := testSigner(t)
	action := buildCancelAction([]exchange.Cancel{{Asset: 0, Oid: 1}})

	first, err := signAction(action, signer, 1700000000000, "", true)
	require.NoError(t, err)
	second, err := signAction(action, signer, 1700000000000, "", true)
	require.NoError(t, err)
	require.Equal(t, first.Signature, second.Signature)

	// Nonce participates in the digest.
	third, err := signAction(action, signer, 1700000000001, "", true)
	require.NoError(t, err)
	require.NotEqual(t, first.Signature, third.Signature)

	// So does the network.
	fourth, err := signAction(action, signer, 1700000000000, "", false)
	require.NoError(t, err)
	require.NotEqual(t, first.Signature, fourth.Signature)
}

func TestClientOrder(t *testing.T) {
	var captured ExchangeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(`{"status":"ok","response":{"type":"order","data":{"statuses":[{"filled":{"totalSz":"0.25","avgPx":"123.4","oid":42}}]}}}`))
	}))
	defer server.Close()

	client := NewClient(testSigner(t), false,
		WithBaseURLs(server.URL, server.URL),
		WithClock(func() time.Time { return time.UnixMilli(1700000000000) }),
	)

	resp, err := client.Order(context.Background(), []exchange.Order{limitOrder(3, true, "123.45", "0.25")}, exchange.GroupingNA)
	require.NoError(t, err)
	require.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Response.Data.Statuses, 1)
	require.NotNil(t, resp.Response.Data.Statuses[0].Filled)
	assert.Equal(t, int64(42), resp.Response.Data.Statuses[0].Filled.Oid)

	require.Equal(t, ActionTypeOrder, captured.Action.Type)
	require.Equal(t, int64(1700000000000), captured.Nonce)
	require.NotEmpty(t, captured.Signature.R)
	require.NotEmpty(t, captured.Signature.S)
	require.Contains(t, []int{27, 28}, captured.Signature.V)
}

func TestClientOrderWithoutSigner(t *testing.T) {
	client := NewClient(nil, false)
	_, err := client.Order(context.Background(), []exchange.Order{limitOrder(0, true, "1", "1")}, exchange.GroupingNA)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no signer")
}

func TestClientUpdateLeverage(t *testing.T) {
	var captured ExchangeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	client := NewClient(testSigner(t), true, WithBaseURLs(server.URL, server.URL))

	require.NoError(t, client.UpdateLeverage(context.Background(), 0, true, 20))
	require.Equal(t, ActionTypeUpdateLeverage, captured.Action.Type)
	require.NotNil(t, captured.Action.Asset)
	require.Equal(t, 0, *captured.Action.Asset)
	require.Equal(t, 20, captured.Action.Leverage)

	require.Error(t, client.UpdateLeverage(context.Background(), 0, true, 0))
}

func TestClientUpdateIsolatedMargin(t *testing.T) {
	var captured ExchangeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	client := NewClient(testSigner(t), true, WithBaseURLs(server.URL, server.URL))

	require.NoError(t, client.UpdateIsolatedMargin(context.Background(), 1, true, 5000000))
	require.Equal(t, ActionTypeUpdateIsolatedMargin, captured.Action.Type)
	require.Equal(t, int64(5000000), captured.Action.Ntli)

	require.Error(t, client.UpdateIsolatedMargin(context.Background(), 1, true, 0))
}

func TestClientInfoEndpoints(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req infoRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		switch req.Type {
		case "meta":
			w.Write([]byte(`{"universe":[{"name":"BTC","szDecimals":5},{"name":"ETH","szDecimals":4}]}`))
		case "allMids":
			w.Write([]byte(`{"BTC":"97000.5","ETH":"3500.25"}`))
		case "clearinghouseState":
			w.Write([]byte(`{"marginSummary":{"accountValue":"1234.5","totalMarginUsed":"100","totalNtlPos":"500","totalRawUsd":"1234.5"},"crossMarginSummary":{"accountValue":"1234.5"},"assetPositions":[]}`))
		case "openOrders":
			w.Write([]byte(`[{"coin":"BTC","side":"B","limitPx":"90000","sz":"0.1","oid":7,"timestamp":1700000000000}]`))
		case "spotClearinghouseState":
			w.Write([]byte(`{"balances":[{"coin":"USDC","total":"100","hold":"0"}]}`))
		default:
			t.Fatalf("unexpected info type %q", req.Type)
		}
	}))
	defer server.Close()

	client := NewClient(nil, false, WithBaseURLs(server.URL, server.URL))
	ctx := context.Background()
	user := "0x1234567890abcdef1234567890abcdef12345678"

	meta, err := client.Meta(ctx)
	require.NoError(t, err)
	require.Len(t, meta.Universe, 2)
	require.Equal(t, "BTC", meta.Universe[0].Name)

	mids, err := client.AllMids(ctx)
	require.NoError(t, err)
	require.Equal(t, "97000.5", mids["BTC"])

	state, err := client.ClearinghouseState(ctx, user)
	require.NoError(t, err)
	require.Equal(t, "1234.5", state.MarginSummary.AccountValue)

	orders, err := client.OpenOrders(ctx, user)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, int64(7), orders[0].Oid)

	spot, err := client.SpotClearinghouseState(ctx, user)
	require.NoError(t, err)
	require.Len(t, spot.Balances, 1)

	t.Run("invalid_address", func(t *testing.T) {
		_, err := client.ClearinghouseState(ctx, "not-an-address")
		require.Error(t, err)
	})
}

func TestInfoRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"BTC":"97000.5"}`))
	}))
	defer server.Close()

	client := NewClient(nil, false, WithBaseURLs(server.URL, server.URL))
	mids, err := client.AllMids(context.Background())
	require.NoError(t, err)
	require.Equal(t, "97000.5", mids["BTC"])
	require.Equal(t, int32(3), calls.Load())
}
