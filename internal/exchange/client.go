package exchange

import (
	"net/http"
	"sync"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/futures"

	"signal_bot/internal/models"
	"signal_bot/pkg/logger"
)

const baseFapiURL = "https://fapi.binance.com"

// Config — креды и режим работы адаптера.
type Config struct {
	APIKey    string
	APISecret string
	Live      bool // false => paper: мутирующие вызовы не ходят на биржу
	Testnet   bool
}

// Client — адаптер Binance USDT-M futures. Основные вызовы идут через SDK,
// условные ордера имеют второй ярус — conditional-эндпоинт (см. algo.go).
type Client struct {
	fut  *futures.Client
	algo *algoClient
	live bool

	metaMu sync.Mutex
	meta   map[string]models.Instrument
}

func NewClient(cfg Config) *Client {
	if cfg.Testnet {
		futures.UseTestnet = true
	}
	if !cfg.Live {
		logger.Info("PAPER MODE: ордера на биржу не отправляются")
	}
	return &Client{
		fut: binance.NewFuturesClient(cfg.APIKey, cfg.APISecret),
		algo: &algoClient{
			apiKey:    cfg.APIKey,
			apiSecret: cfg.APISecret,
			baseURL:   baseFapiURL,
			http:      &http.Client{Timeout: 15 * time.Second},
		},
		live: cfg.Live,
		meta: make(map[string]models.Instrument),
	}
}
