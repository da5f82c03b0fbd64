package internal

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Currency formats amounts for display
type Currency struct {
	Code    string // "USD", "SGD", "EUR"
	unit    currency.Unit
	tag     language.Tag
	printer *message.Printer
	symbol  string
}

// symbolOverrides provides custom symbols where x/text defaults aren't ideal
var symbolOverrides = map[string]string{
	"SEK": "kr",
	"NOK": "kr",
	"DKK": "kr",
	"SGD": "$",
}

// defaultLocaleForCurrency picks a "home" locale when no system locale was detected
var defaultLocaleForCurrency = map[string]language.Tag{
	"USD": language.AmericanEnglish,
	"SGD": language.MustParse("en-SG"),
	"GBP": language.BritishEnglish,
	"EUR": language.German,
	"SEK": language.Swedish,
	"NOK": language.Norwegian,
	"DKK": language.Danish,
	"CHF": language.German,
	"JPY": language.Japanese,
	"AUD": language.MustParse("en-AU"),
	"NZD": language.MustParse("en-NZ"),
	"CAD": language.MustParse("en-CA"),
	"INR": language.MustParse("en-IN"),
	"HKD": language.MustParse("zh-HK"),
}

// GetCurrency returns the Currency for a code, formatted in the currency's home locale.
// Unknown codes format as numbers followed by the code.
func GetCurrency(code string) Currency {
	code = strings.ToUpper(code)
	tag, ok := defaultLocaleForCurrency[code]
	if !ok {
		tag = language.English
	}
	return GetCurrencyWithLocale(code, tag)
}

// GetCurrencyWithLocale returns a Currency with a specific locale for formatting
func GetCurrencyWithLocale(code string, tag language.Tag) Currency {
	code = strings.ToUpper(code)

	c := Currency{
		Code:    code,
		tag:     tag,
		printer: message.NewPrinter(tag),
	}

	unit, err := currency.ParseISO(code)
	switch {
	case err != nil:
		c.unit = currency.USD // number formatting only
		c.symbol = code
	case symbolOverrides[code] != "":
		c.unit = unit
		c.symbol = symbolOverrides[code]
	default:
		c.unit = unit
		c.symbol = c.printer.Sprint(currency.NarrowSymbol(unit))
	}
	return c
}

// DetectSystemCurrency derives the currency from the monetary locale.
// Returns empty string if detection fails.
func DetectSystemCurrency() (string, language.Tag) {
	locale := detectSystemLocale(monetaryLocaleVars)
	if locale == "" {
		return "", language.Und
	}
	return parseCurrencyFromLocale(locale)
}

// parseCurrencyFromLocale extracts currency code and language tag from a locale string.
// Examples: "en_SG.UTF-8" -> ("SGD", en-SG), "de_DE" -> ("EUR", de-DE)
func parseCurrencyFromLocale(locale string) (string, language.Tag) {
	tag := localeToTag(locale)
	if tag == language.Und {
		return "", language.Und
	}

	_, _, region := tag.Raw()
	if region.String() == "" || region.String() == "ZZ" {
		return "", language.Und
	}

	unit, ok := currency.FromRegion(region)
	if !ok {
		return "", language.Und
	}
	return unit.String(), tag
}

// isPrefix reports whether the symbol goes before the amount.
// x/text does not expose CLDR symbol placement, so this list is maintained by hand.
func (c Currency) isPrefix() bool {
	switch c.Code {
	case "USD", "SGD", "GBP", "JPY", "CAD", "AUD", "NZD", "HKD", "INR":
		return true
	default:
		return false
	}
}

func (c Currency) numberPrinter() *message.Printer {
	if c.printer == nil {
		return message.NewPrinter(language.English)
	}
	return c.printer
}

func (c Currency) withSymbol(formatted string) string {
	if c.isPrefix() {
		return c.symbol + formatted
	}
	return formatted + " " + c.symbol
}

// Format renders the magnitude of an amount with two decimals, e.g. "$1,234.50"
func (c Currency) Format(amount decimal.Decimal) string {
	formatted := c.numberPrinter().Sprint(number.Decimal(amount.Abs().InexactFloat64(),
		number.MinFractionDigits(2), number.MaxFractionDigits(2)))
	return c.withSymbol(formatted)
}

// FormatWhole renders the magnitude without decimals, as chart labels do
func (c Currency) FormatWhole(amount decimal.Decimal) string {
	formatted := c.numberPrinter().Sprint(number.Decimal(amount.Abs().Round(0).InexactFloat64(),
		number.MaxFractionDigits(0)))
	return c.withSymbol(formatted)
}

// FormatSigned prefixes the amount with "+" for income and "-" for spending
func (c Currency) FormatSigned(amount decimal.Decimal, credit bool) string {
	if credit {
		return "+" + c.Format(amount)
	}
	return "-" + c.Format(amount)
}
