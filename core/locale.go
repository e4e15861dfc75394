package core

import (
	"github.com/go-playground/locales"
	"github.com/go-playground/locales/currency"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/fr"
	"github.com/pkg/errors"
)

var (
	localeFuncs = map[string]func() locales.Translator{
		"fr": fr.New,
		"en": en.New,
	}

	currencies = map[string]currency.Type{
		"EUR": currency.EUR,
		"USD": currency.USD,
		"GBP": currency.GBP,
		"CHF": currency.CHF,
		"CAD": currency.CAD,
		"XOF": currency.XOF,
		"XAF": currency.XAF,
		"CDF": currency.CDF,
		"MAD": currency.MAD,
	}
)

// Formatter renders dates and amounts the way the configured locale writes them.
type Formatter struct {
	locale   string
	trans    locales.Translator
	currency currency.Type
}

func NewFormatter(locale, currencyCode string) (*Formatter, error) {
	newLocale, ok := localeFuncs[locale]
	if !ok {
		return nil, errors.Errorf("unsupported locale %q", locale)
	}
	cur, ok := currencies[currencyCode]
	if !ok {
		return nil, errors.Errorf("unsupported currency %q", currencyCode)
	}
	return &Formatter{locale: locale, trans: newLocale(), currency: cur}, nil
}

func (f *Formatter) Locale() string { return f.locale }

func (f *Formatter) Date(d Date) string {
	return f.trans.FmtDateShort(d.Time())
}

func (f *Formatter) Amount(m Money) string {
	return f.trans.FmtCurrency(m.Float64(), 2, f.currency)
}
