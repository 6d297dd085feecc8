package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/adshao/go-binance/v2"
	"go.uber.org/zap"

	"signal_bot/internal/models"
	"signal_bot/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.InfoLogger = zap.NewNop()
	logger.FatalLogger = zap.NewNop()
	os.Exit(m.Run())
}

// fakeFapi поднимает один сервер на оба яруса: основной ордерный
// эндпоинт и conditional-эндпоинт, со счётчиками обращений.
type fakeFapi struct {
	srv          *httptest.Server
	primaryCalls atomic.Int64
	algoCalls    atomic.Int64

	primary func(w http.ResponseWriter, r *http.Request)
	algo    func(w http.ResponseWriter, r *http.Request)
}

func newFakeFapi(t *testing.T) *fakeFapi {
	t.Helper()
	f := &fakeFapi{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/fapi/v1/order":
			f.primaryCalls.Add(1)
			f.primary(w, r)
		case conditionalOrderPath:
			f.algoCalls.Add(1)
			f.algo(w, r)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeFapi) client() *Client {
	fut := binance.NewFuturesClient("test-key", "test-secret")
	fut.BaseURL = f.srv.URL
	return &Client{
		fut: fut,
		algo: &algoClient{
			apiKey:    "test-key",
			apiSecret: "test-secret",
			baseURL:   f.srv.URL,
			http:      f.srv.Client(),
		},
		live: true,
		meta: map[string]models.Instrument{
			"ETHUSDT": {Symbol: "ETHUSDT", StepSize: 0.001, TickSize: 0.01, MinQty: 0.001},
		},
	}
}

func apiError(w http.ResponseWriter, code int, msg string) {
	w.WriteHeader(http.StatusBadRequest)
	_, _ = w.Write([]byte(`{"code":` + strconv.Itoa(code) + `,"msg":"` + msg + `"}`))
}

func TestPlaceConditionalFallsBackToAlgoTierOnce(t *testing.T) {
	f := newFakeFapi(t)
	f.primary = func(w http.ResponseWriter, r *http.Request) {
		apiError(w, codeUseAlgoEndpoint, "Order's trigger type is not supported on this endpoint")
	}
	f.algo = func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("algo method = %s, want POST", r.Method)
		}
		_, _ = w.Write([]byte(`{"algoId":9100000123}`))
	}

	id, err := f.client().PlaceConditional(context.Background(), "ETH/USDT", models.DirectionLong, false, 15, 83.0)
	if err != nil {
		t.Fatalf("PlaceConditional: %v", err)
	}
	if id != "9100000123" {
		t.Errorf("order id = %q, want algo id 9100000123", id)
	}
	if got := f.primaryCalls.Load(); got != 1 {
		t.Errorf("primary calls = %d, want 1", got)
	}
	if got := f.algoCalls.Load(); got != 1 {
		t.Errorf("algo calls = %d, want exactly 1", got)
	}
}

func TestPlaceConditionalOtherErrorDoesNotFallBack(t *testing.T) {
	f := newFakeFapi(t)
	f.primary = func(w http.ResponseWriter, r *http.Request) {
		apiError(w, codeMarginInsufficient, "Margin is insufficient")
	}

	if _, err := f.client().PlaceConditional(context.Background(), "ETH/USDT", models.DirectionLong, false, 15, 83.0); err == nil {
		t.Fatal("expected error from primary tier")
	}
	if got := f.algoCalls.Load(); got != 0 {
		t.Errorf("algo calls = %d, want 0: margin errors must not reach the second tier", got)
	}
}

func TestPlaceConditionalBothTiersFail(t *testing.T) {
	f := newFakeFapi(t)
	f.primary = func(w http.ResponseWriter, r *http.Request) {
		apiError(w, codeUseAlgoEndpoint, "use conditional endpoint")
	}
	f.algo = func(w http.ResponseWriter, r *http.Request) {
		apiError(w, -1000, "internal error")
	}

	id, err := f.client().PlaceConditional(context.Background(), "ETH/USDT", models.DirectionLong, true, 9, 101.8)
	if err == nil {
		t.Fatal("expected error when both tiers reject")
	}
	if id != "" {
		t.Errorf("order id = %q, want empty when both tiers fail", id)
	}
	if got := f.algoCalls.Load(); got != 1 {
		t.Errorf("algo calls = %d, want exactly 1 retry", got)
	}
}

func TestCancelConditionalFallsBackOnUnknownOrder(t *testing.T) {
	f := newFakeFapi(t)
	f.primary = func(w http.ResponseWriter, r *http.Request) {
		apiError(w, codeUnknownOrder, "Unknown order sent")
	}
	f.algo = func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("algo method = %s, want DELETE", r.Method)
		}
		_, _ = w.Write([]byte(`{"code":0,"msg":"success"}`))
	}

	if err := f.client().CancelConditional(context.Background(), "ETH/USDT", "12345"); err != nil {
		t.Fatalf("CancelConditional: %v", err)
	}
	if got := f.primaryCalls.Load(); got != 1 {
		t.Errorf("primary calls = %d, want 1", got)
	}
	if got := f.algoCalls.Load(); got != 1 {
		t.Errorf("algo calls = %d, want 1", got)
	}
}

func TestCancelConditionalUnknownOnBothTiersIsSuccess(t *testing.T) {
	f := newFakeFapi(t)
	f.primary = func(w http.ResponseWriter, r *http.Request) {
		apiError(w, codeUnknownOrder, "Unknown order sent")
	}
	f.algo = func(w http.ResponseWriter, r *http.Request) {
		apiError(w, codeUnknownOrder, "Unknown order sent")
	}

	// ордер уже исполнился или снят: отмена идемпотентна
	if err := f.client().CancelConditional(context.Background(), "ETH/USDT", "12345"); err != nil {
		t.Fatalf("CancelConditional: %v, want success for already-gone order", err)
	}
}

func TestCancelConditionalNonNumericIDSkipsPrimaryTier(t *testing.T) {
	f := newFakeFapi(t)
	f.algo = func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":0}`))
	}

	if err := f.client().CancelConditional(context.Background(), "ETH/USDT", "algo-abc"); err != nil {
		t.Fatalf("CancelConditional: %v", err)
	}
	if got := f.primaryCalls.Load(); got != 0 {
		t.Errorf("primary calls = %d, want 0 for a non-numeric id", got)
	}
	if got := f.algoCalls.Load(); got != 1 {
		t.Errorf("algo calls = %d, want 1", got)
	}
}

func TestConditionalStatusFallsBackOnUnknownOrder(t *testing.T) {
	cases := []struct {
		name       string
		algoStatus string
		want       models.OrderState
	}{
		{"working is open", "WORKING", models.OrderStateOpen},
		{"filled is closed", "FILLED", models.OrderStateClosed},
		{"triggered is closed", "TRIGGERED", models.OrderStateClosed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFakeFapi(t)
			f.primary = func(w http.ResponseWriter, r *http.Request) {
				apiError(w, codeNoSuchOrder, "Order does not exist")
			}
			f.algo = func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet {
					t.Errorf("algo method = %s, want GET", r.Method)
				}
				_, _ = w.Write([]byte(`{"algoStatus":"` + tc.algoStatus + `"}`))
			}

			st, err := f.client().ConditionalStatus(context.Background(), "ETH/USDT", "12345")
			if err != nil {
				t.Fatalf("ConditionalStatus: %v", err)
			}
			if st != tc.want {
				t.Errorf("state = %s, want %s", st, tc.want)
			}
			if got := f.algoCalls.Load(); got != 1 {
				t.Errorf("algo calls = %d, want 1", got)
			}
		})
	}
}
