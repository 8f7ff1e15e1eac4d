// Package currency holds the static currency table used to render amounts.
package currency

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCode is used whenever a requested code is unknown.
const DefaultCode = "DZD"

type Position string

const (
	PositionBefore Position = "before"
	PositionAfter  Position = "after"
)

type Region string

const (
	RegionArab          Region = "arab"
	RegionInternational Region = "international"
)

type Currency struct {
	Code     string   `json:"code"`
	Symbol   string   `json:"symbol"`
	Name     string   `json:"name"`
	NameEn   string   `json:"nameEn"`
	Position Position `json:"position"`
	Decimals int32    `json:"decimals"`
	Region   Region   `json:"region"`
}

var table = map[string]Currency{
	"DZD": {Code: "DZD", Symbol: "دج", Name: "الدينار الجزائري", NameEn: "Algerian Dinar", Position: PositionAfter, Decimals: 2, Region: RegionArab},
	"SAR": {Code: "SAR", Symbol: "ر.س", Name: "الريال السعودي", NameEn: "Saudi Riyal", Position: PositionAfter, Decimals: 2, Region: RegionArab},
	"AED": {Code: "AED", Symbol: "د.إ", Name: "الدرهم الإماراتي", NameEn: "UAE Dirham", Position: PositionAfter, Decimals: 2, Region: RegionArab},
	"EGP": {Code: "EGP", Symbol: "ج.م", Name: "الجنيه المصري", NameEn: "Egyptian Pound", Position: PositionAfter, Decimals: 2, Region: RegionArab},
	"MAD": {Code: "MAD", Symbol: "د.م", Name: "الدرهم المغربي", NameEn: "Moroccan Dirham", Position: PositionAfter, Decimals: 2, Region: RegionArab},
	"TND": {Code: "TND", Symbol: "د.ت", Name: "الدينار التونسي", NameEn: "Tunisian Dinar", Position: PositionAfter, Decimals: 3, Region: RegionArab},
	"JOD": {Code: "JOD", Symbol: "د.أ", Name: "الدينار الأردني", NameEn: "Jordanian Dinar", Position: PositionAfter, Decimals: 3, Region: RegionArab},
	"KWD": {Code: "KWD", Symbol: "د.ك", Name: "الدينار الكويتي", NameEn: "Kuwaiti Dinar", Position: PositionAfter, Decimals: 3, Region: RegionArab},
	"BHD": {Code: "BHD", Symbol: "د.ب", Name: "الدينار البحريني", NameEn: "Bahraini Dinar", Position: PositionAfter, Decimals: 3, Region: RegionArab},
	"QAR": {Code: "QAR", Symbol: "ر.ق", Name: "الريال القطري", NameEn: "Qatari Riyal", Position: PositionAfter, Decimals: 2, Region: RegionArab},
	"OMR": {Code: "OMR", Symbol: "ر.ع", Name: "الريال العماني", NameEn: "Omani Rial", Position: PositionAfter, Decimals: 3, Region: RegionArab},
	"LBP": {Code: "LBP", Symbol: "ل.ل", Name: "الليرة اللبنانية", NameEn: "Lebanese Pound", Position: PositionAfter, Decimals: 2, Region: RegionArab},
	"SYP": {Code: "SYP", Symbol: "ل.س", Name: "الليرة السورية", NameEn: "Syrian Pound", Position: PositionAfter, Decimals: 2, Region: RegionArab},
	"IQD": {Code: "IQD", Symbol: "د.ع", Name: "الدينار العراقي", NameEn: "Iraqi Dinar", Position: PositionAfter, Decimals: 3, Region: RegionArab},

	"USD": {Code: "USD", Symbol: "$", Name: "الدولار الأمريكي", NameEn: "US Dollar", Position: PositionBefore, Decimals: 2, Region: RegionInternational},
	"EUR": {Code: "EUR", Symbol: "€", Name: "اليورو", NameEn: "Euro", Position: PositionBefore, Decimals: 2, Region: RegionInternational},
	"GBP": {Code: "GBP", Symbol: "£", Name: "الجنيه الإسترليني", NameEn: "British Pound", Position: PositionBefore, Decimals: 2, Region: RegionInternational},
	"JPY": {Code: "JPY", Symbol: "¥", Name: "الين الياباني", NameEn: "Japanese Yen", Position: PositionBefore, Decimals: 0, Region: RegionInternational},
	"CHF": {Code: "CHF", Symbol: "CHF", Name: "الفرنك السويسري", NameEn: "Swiss Franc", Position: PositionAfter, Decimals: 2, Region: RegionInternational},
	"CAD": {Code: "CAD", Symbol: "C$", Name: "الدولار الكندي", NameEn: "Canadian Dollar", Position: PositionBefore, Decimals: 2, Region: RegionInternational},
	"AUD": {Code: "AUD", Symbol: "A$", Name: "الدولار الأسترالي", NameEn: "Australian Dollar", Position: PositionBefore, Decimals: 2, Region: RegionInternational},
	"CNY": {Code: "CNY", Symbol: "¥", Name: "اليوان الصيني", NameEn: "Chinese Yuan", Position: PositionBefore, Decimals: 2, Region: RegionInternational},
	"INR": {Code: "INR", Symbol: "₹", Name: "الروبية الهندية", NameEn: "Indian Rupee", Position: PositionBefore, Decimals: 2, Region: RegionInternational},
	"TRY": {Code: "TRY", Symbol: "₺", Name: "الليرة التركية", NameEn: "Turkish Lira", Position: PositionAfter, Decimals: 2, Region: RegionInternational},
	"RUB": {Code: "RUB", Symbol: "₽", Name: "الروبل الروسي", NameEn: "Russian Ruble", Position: PositionAfter, Decimals: 2, Region: RegionInternational},
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Lookup returns the table entry for code.
func Lookup(code string) (Currency, bool) {
	c, ok := table[normalizeCode(code)]
	return c, ok
}

// Get returns the entry for code, or the default currency when unknown.
func Get(code string) Currency {
	if c, ok := Lookup(code); ok {
		return c
	}
	return table[DefaultCode]
}

// Format renders amount with the currency's fixed decimals and symbol
// placement: "$12.50" or "12500.00 دج".
func Format(amount decimal.Decimal, code string) string {
	c := Get(code)
	fixed := amount.StringFixed(c.Decimals)
	if c.Position == PositionBefore {
		return c.Symbol + fixed
	}
	return fixed + " " + c.Symbol
}

// Symbol returns the symbol for code, or the default code when unknown.
func Symbol(code string) string {
	if c, ok := Lookup(code); ok {
		return c.Symbol
	}
	return DefaultCode
}

// Name returns the English name for lang "en" and the Arabic name otherwise.
func Name(code, lang string) string {
	c := Get(code)
	if strings.EqualFold(lang, "en") {
		return c.NameEn
	}
	return c.Name
}

// Codes lists every supported code in alphabetical order.
func Codes() []string {
	codes := make([]string, 0, len(table))
	for code := range table {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// ByRegion groups currencies by region, each group sorted by code.
func ByRegion() map[Region][]Currency {
	groups := make(map[Region][]Currency)
	for _, code := range Codes() {
		c := table[code]
		groups[c.Region] = append(groups[c.Region], c)
	}
	return groups
}

// Rates maps a currency code to its value in units of a shared base
// currency (for example 1 USD = 134.5 DZD gives Rates{"USD": 1, "DZD": 134.5}).
type Rates map[string]decimal.Decimal

// Convert moves amount from one currency to another through rates. When the
// codes match, or either rate is missing or non-positive, the amount is
// returned unchanged. The result is rounded to the target's decimals.
func Convert(amount decimal.Decimal, from, to string, rates Rates) decimal.Decimal {
	from, to = normalizeCode(from), normalizeCode(to)
	if from == to {
		return amount
	}
	fromRate, okFrom := rates[from]
	toRate, okTo := rates[to]
	if !okFrom || !okTo || !fromRate.IsPositive() || !toRate.IsPositive() {
		return amount
	}
	return amount.Div(fromRate).Mul(toRate).Round(Get(to).Decimals)
}
