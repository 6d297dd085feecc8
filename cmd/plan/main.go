// Команда plan — офлайн-прогон сигнала: читает текст поста из файла,
// разбирает его и печатает план ордеров без единого вызова биржи.
// Удобно для проверки формата сигналов и настроек сайзинга.
//
//	go run ./cmd/plan --file signal.txt --balance 1000 --step 0.001 --tick 0.01
package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"signal_bot/internal/models"
	"signal_bot/internal/modules/config"
	"signal_bot/internal/parser"
	"signal_bot/internal/runner"
)

func run() error {
	pflag.String("file", "", "файл с текстом сигнала")
	pflag.Float64("balance", 1000, "доступный баланс, квотируемая валюта")
	pflag.Float64("step", 0.001, "шаг количества инструмента")
	pflag.Float64("tick", 0.01, "шаг цены инструмента")
	pflag.String("quote", "USDT", "квотируемая валюта")
	pflag.Float64("fraction", 0.15, "доля баланса на сделку")
	pflag.Float64("stop-roi", 170, "целевой ROI стопа, %")
	pflag.Parse()

	v := viper.New()
	if err := v.BindPFlags(pflag.CommandLine); err != nil {
		return errors.Wrap(err, "bind flags")
	}

	file := v.GetString("file")
	if file == "" {
		return errors.New("--file is required")
	}
	raw, err := os.ReadFile(file)
	if err != nil {
		return errors.Wrap(err, "read signal file")
	}

	pol := config.Trading{
		Quote:           v.GetString("quote"),
		BalanceFraction: v.GetFloat64("fraction"),
		StopROIPct:      v.GetFloat64("stop-roi"),
		TPFractions:     []float64{0.60, 0.40},
	}

	p := parser.New(pol.Quote, len(pol.TPFractions))
	sig, err := p.Parse(string(raw))
	if err != nil {
		return errors.Wrap(err, "parse signal")
	}

	inst := models.Instrument{
		StepSize: v.GetFloat64("step"),
		TickSize: v.GetFloat64("tick"),
		MinQty:   v.GetFloat64("step"),
	}
	plan, err := runner.BuildPlan(sig, v.GetFloat64("balance"), inst, pol)
	if err != nil {
		return errors.Wrap(err, "build plan")
	}

	fmt.Printf("%-5s %s @ %.6f, плечо %.0fx\n", sig.Direction, sig.Symbol, sig.EntryPrice, sig.Leverage)
	fmt.Printf("размер: %.6f (доля баланса %.0f%%)\n", plan.Quantity, plan.UsedFraction*100)
	fmt.Printf("стоп:   %.6f\n", plan.StopPrice)
	for i, tp := range plan.TakeProfits {
		roi := runner.RealizedROI(sig.Direction, sig.EntryPrice, tp.Price, sig.Leverage)
		fmt.Printf("тейк %d: %.6f x %.6f (ROI %.2f%%)\n", i+1, tp.Price, tp.Quantity, roi)
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "plan:", err)
		os.Exit(1)
	}
}
