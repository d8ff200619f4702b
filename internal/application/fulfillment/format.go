package fulfillment

import (
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// moneyFormatter renders amounts with the store currency's symbol
type moneyFormatter struct {
	unit    currency.Unit
	printer *message.Printer
}

func newMoneyFormatter(code string) moneyFormatter {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		unit = currency.USD
	}
	return moneyFormatter{unit: unit, printer: message.NewPrinter(language.English)}
}

func (f moneyFormatter) Format(amount decimal.Decimal) string {
	return f.printer.Sprint(currency.Symbol(f.unit.Amount(amount.Round(2).InexactFloat64())))
}

var titleCaser = cases.Title(language.English)

func templateFuncs(money moneyFormatter) template.FuncMap {
	return template.FuncMap{
		"money": money.Format,
		"title": titleCaser.String,
		"formatDate": func(t time.Time) string {
			return t.UTC().Format("January 2, 2006 15:04 MST")
		},
	}
}
