package exchange

import (
	"errors"

	"github.com/adshao/go-binance/v2/common"
)

// ErrCategory — закрытый набор категорий биржевых ошибок. Ядро ветвится
// только по ним, никогда по подстрокам сообщений.
type ErrCategory int

const (
	CategoryGeneric ErrCategory = iota
	CategoryRateLimited
	CategoryNeedsAlgoEndpoint
	CategoryUnknownOrder
	CategoryInsufficientFunds
)

func (c ErrCategory) String() string {
	switch c {
	case CategoryRateLimited:
		return "rate_limited"
	case CategoryNeedsAlgoEndpoint:
		return "needs_algo_endpoint"
	case CategoryUnknownOrder:
		return "unknown_order"
	case CategoryInsufficientFunds:
		return "insufficient_funds"
	default:
		return "generic"
	}
}

// Наблюдаемые коды fapi.
const (
	codeRateLimited         = -1003
	codeUnknownOrder        = -2011
	codeNoSuchOrder         = -2013
	codeBalanceInsufficient = -2018
	codeMarginInsufficient  = -2019
	// Биржа перестала принимать триггерные типы на основном ордерном
	// эндпоинте и требует отдельный conditional-эндпоинт.
	codeUseAlgoEndpoint = -4120
)

// Classify сводит ошибку биржи к категории. Единственное место,
// где интерпретируются коды API.
func Classify(err error) ErrCategory {
	var api *common.APIError
	if !errors.As(err, &api) {
		return CategoryGeneric
	}
	switch api.Code {
	case codeRateLimited:
		return CategoryRateLimited
	case codeUnknownOrder, codeNoSuchOrder:
		return CategoryUnknownOrder
	case codeBalanceInsufficient, codeMarginInsufficient:
		return CategoryInsufficientFunds
	case codeUseAlgoEndpoint:
		return CategoryNeedsAlgoEndpoint
	default:
		return CategoryGeneric
	}
}
