package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV    = "CONFIG_FILE"
	tokenTelegramENV     = "TELEGRAM_TOKEN"
	channelIDENV         = "TELEGRAM_CHANNEL_ID"
	chatIDENV            = "TELEGRAM_CHAT_ID"
	binanceKeyENV        = "BINANCE_API_KEY"
	binanceSecretENV     = "BINANCE_API_SECRET"
	liveTradingENV       = "LIVE_TRADING"
	reconcileIntervalENV = "RECONCILE_INTERVAL"
)

// Config ...
type Config struct {
	Telegram struct {
		Token string `yaml:"token"`
		// Канал с сигналами (источник) и чат для уведомлений.
		ChannelID int64 `yaml:"channel_id"`
		ChatID    int64 `yaml:"chat_id"`
	} `yaml:"telegram"`

	Binance struct {
		APIKey    string `yaml:"api_key"`
		APISecret string `yaml:"api_secret"`
		Testnet   bool   `yaml:"testnet"`
	} `yaml:"binance"`

	Service struct {
		Host       string `yaml:"host"`
		PublicPort int    `yaml:"public_port"`
	} `yaml:"service"`

	Jaeger struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"jaeger"`

	Trading Trading `yaml:"trading"`
}

// Trading — политика исполнения сигналов.
type Trading struct {
	// false => бумажный режим: биржевые мутации подменяются синтетикой.
	Live bool `yaml:"live"`

	Quote string `yaml:"quote"` // котируемая валюта сигналов, обычно USDT

	// Какая доля свободного баланса уходит в маржу одной сделки.
	BalanceFraction float64 `yaml:"balance_fraction"`

	// Целевой ROI стопа в процентах (170 => стоп на -170% ROI с плечом).
	StopROIPct float64 `yaml:"stop_roi_pct"`

	// Доли позиции по целям, по порядку. Сумма <= 1.0.
	// Количество долей и есть число используемых целей.
	TPFractions []float64 `yaml:"tp_fractions"`

	// Период опроса reconciliation-цикла. yaml.v2 не умеет в
	// time.Duration, поэтому в файле строка ("30s"), разбор в NewConfig.
	ReconcileIntervalRaw string `yaml:"reconcile_interval"`

	ReconcileInterval time.Duration `yaml:"-"`
}

func NewConfig() (*Config, error) {
	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	file, err := os.Open("configs/" + configFileName)
	if err != nil {
		return nil, errors.Wrap(err, "open config file")
	}

	defer func() {
		_ = file.Close()
	}()

	decoder := yaml.NewDecoder(file)
	config := Config{
		Trading: Trading{
			Quote:             "USDT",
			BalanceFraction:   floatFromEnv("BALANCE_FRACTION", 0.15),
			StopROIPct:        floatFromEnv("STOP_ROI_PCT", 170),
			TPFractions:       []float64{0.60, 0.40},
			ReconcileInterval: 30 * time.Second,
		},
	}
	if err = decoder.Decode(&config); err != nil {
		return nil, errors.Wrap(err, "decode config file")
	}

	// приоритет: окружение > yaml > дефолт
	if v := config.Trading.ReconcileIntervalRaw; v != "" {
		d, perr := time.ParseDuration(v)
		if perr != nil {
			return nil, errors.Wrap(perr, "parse trading.reconcile_interval")
		}
		config.Trading.ReconcileInterval = d
	}
	if v := os.Getenv(reconcileIntervalENV); v != "" {
		if d, perr := time.ParseDuration(v); perr == nil {
			config.Trading.ReconcileInterval = d
		}
	}

	if token := os.Getenv(tokenTelegramENV); token != "" {
		config.Telegram.Token = token
	}
	if v := os.Getenv(channelIDENV); v != "" {
		if id, perr := strconv.ParseInt(v, 10, 64); perr == nil {
			config.Telegram.ChannelID = id
		}
	}
	if v := os.Getenv(chatIDENV); v != "" {
		if id, perr := strconv.ParseInt(v, 10, 64); perr == nil {
			config.Telegram.ChatID = id
		}
	}
	if key := os.Getenv(binanceKeyENV); key != "" {
		config.Binance.APIKey = key
	}
	if secret := os.Getenv(binanceSecretENV); secret != "" {
		config.Binance.APISecret = secret
	}
	config.Trading.Live = boolFromEnv(liveTradingENV, config.Trading.Live)

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	t := c.Trading
	if t.BalanceFraction <= 0 || t.BalanceFraction > 1 {
		return fmt.Errorf("trading.balance_fraction вне (0;1]: %v", t.BalanceFraction)
	}
	if t.StopROIPct <= 0 {
		return fmt.Errorf("trading.stop_roi_pct <= 0: %v", t.StopROIPct)
	}
	if len(t.TPFractions) == 0 {
		return fmt.Errorf("trading.tp_fractions пуст")
	}
	sum := 0.0
	for _, f := range t.TPFractions {
		if f <= 0 {
			return fmt.Errorf("trading.tp_fractions: доля <= 0")
		}
		sum += f
	}
	if sum > 1.0+1e-9 {
		return fmt.Errorf("trading.tp_fractions: сумма долей %v > 1", sum)
	}
	if t.ReconcileInterval <= 0 {
		return fmt.Errorf("reconcile interval <= 0")
	}
	return nil
}

func floatFromEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func boolFromEnv(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if v == "1" || v == "true" || v == "TRUE" {
			return true
		}
		if v == "0" || v == "false" || v == "FALSE" {
			return false
		}
	}
	return def
}
