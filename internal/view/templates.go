// Package view renders the embedded HTML templates.
package view

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/irrigo/irrigo/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
	printer   *message.Printer
}

// NewEngine parses the embedded templates.
func NewEngine() (*Engine, error) {
	e := &Engine{printer: message.NewPrinter(language.English)}
	funcMap := template.FuncMap{
		"money":   e.Money,
		"percent": e.Percent,
		"qty":     e.Quantity,
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006")
		},
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates, "templates/*.html")
	if err != nil {
		return nil, err
	}
	e.templates = tpl
	return e, nil
}

// Render executes a named template.
func (e *Engine) Render(w io.Writer, name string, data any) error {
	if e == nil || e.templates == nil {
		return fmt.Errorf("template engine not initialised")
	}
	return e.templates.ExecuteTemplate(w, name, data)
}

// Money formats an amount with thousands grouping, two decimals and the currency code.
func (e *Engine) Money(currency string, amount decimal.Decimal) string {
	value := e.printer.Sprint(number.Decimal(amount.Round(2).InexactFloat64(), number.Scale(2)))
	if currency == "" {
		return value
	}
	return currency + " " + value
}

// Percent formats a rate such as 16 or 7.5 as "16%" or "7.5%".
func (e *Engine) Percent(rate decimal.Decimal) string {
	return rate.String() + "%"
}

// Quantity formats a quantity without trailing zeros and with grouping.
func (e *Engine) Quantity(q decimal.Decimal) string {
	return e.printer.Sprint(number.Decimal(q.InexactFloat64(), number.MaxFractionDigits(3)))
}
