package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2/common"
	"github.com/bytedance/sonic"

	"signal_bot/internal/models"
)

// Второй ярус условных ордеров: conditional-эндпоинт, на который биржа
// переводит триггерные типы с основного ордерного. SDK его не покрывает,
// поэтому подписываем запросы сами.
const conditionalOrderPath = "/fapi/v1/conditional/order"

type algoClient struct {
	apiKey    string
	apiSecret string
	baseURL   string
	http      *http.Client
}

func (a *algoClient) signedRequest(ctx context.Context, method string, params url.Values) ([]byte, error) {
	params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
	params.Set("recvWindow", "5000")

	query := params.Encode()
	mac := hmac.New(sha256.New, []byte(a.apiSecret))
	mac.Write([]byte(query))
	query += "&signature=" + hex.EncodeToString(mac.Sum(nil))

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+conditionalOrderPath+"?"+query, nil)
	if err != nil {
		return nil, fmt.Errorf("algo new request: %w", err)
	}
	req.Header.Set("X-MBX-APIKEY", a.apiKey)

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("algo do: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)

	if resp.StatusCode/100 != 2 {
		var apiErr common.APIError
		if uerr := sonic.Unmarshal(data, &apiErr); uerr == nil && apiErr.Code != 0 {
			return nil, &apiErr
		}
		return nil, fmt.Errorf("algo http %d: %s", resp.StatusCode, string(data))
	}
	return data, nil
}

func (a *algoClient) place(ctx context.Context, symbol, side, ordType, qty, triggerPx string) (string, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("side", side)
	params.Set("type", ordType)
	params.Set("quantity", qty)
	params.Set("triggerPrice", triggerPx)
	params.Set("workingType", "MARK_PRICE")
	params.Set("reduceOnly", "true")

	data, err := a.signedRequest(ctx, http.MethodPost, params)
	if err != nil {
		return "", err
	}

	var r struct {
		AlgoID int64  `json:"algoId"`
		Code   int64  `json:"code"`
		Msg    string `json:"msg"`
	}
	if err := sonic.Unmarshal(data, &r); err != nil {
		return "", fmt.Errorf("algo decode: %w; body=%s", err, string(data))
	}
	if r.Code != 0 {
		return "", &common.APIError{Code: r.Code, Message: r.Msg}
	}
	if r.AlgoID == 0 {
		return "", fmt.Errorf("algo place: empty algoId, body=%s", string(data))
	}
	return strconv.FormatInt(r.AlgoID, 10), nil
}

func (a *algoClient) cancel(ctx context.Context, symbol, algoID string) error {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("algoId", algoID)

	data, err := a.signedRequest(ctx, http.MethodDelete, params)
	if err != nil {
		return err
	}

	var r struct {
		Code int64  `json:"code"`
		Msg  string `json:"msg"`
	}
	if err := sonic.Unmarshal(data, &r); err == nil && r.Code != 0 {
		return &common.APIError{Code: r.Code, Message: r.Msg}
	}
	return nil
}

func (a *algoClient) status(ctx context.Context, symbol, algoID string) (models.OrderState, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("algoId", algoID)

	data, err := a.signedRequest(ctx, http.MethodGet, params)
	if err != nil {
		return models.OrderStateUnknown, err
	}

	var r struct {
		AlgoStatus string `json:"algoStatus"`
		Code       int64  `json:"code"`
		Msg        string `json:"msg"`
	}
	if err := sonic.Unmarshal(data, &r); err != nil {
		return models.OrderStateUnknown, fmt.Errorf("algo status decode: %w; body=%s", err, string(data))
	}
	if r.Code != 0 {
		return models.OrderStateUnknown, &common.APIError{Code: r.Code, Message: r.Msg}
	}

	switch r.AlgoStatus {
	case "NEW", "WORKING":
		return models.OrderStateOpen, nil
	case "TRIGGERED", "FILLED", "FINISHED", "CANCELLED", "REJECTED", "EXPIRED":
		return models.OrderStateClosed, nil
	default:
		return models.OrderStateUnknown, nil
	}
}
