package payment

import (
	"strings"

	"educonnect/placement-service/internal/domain"
)

// DefaultCurrency is used when the country is unknown or unmapped.
const DefaultCurrency = "USD"

var countryCurrency = map[string]string{
	"CN": "CNY",
	"HK": "HKD",
	"GB": "GBP",
	"ID": "IDR",
	"AU": "AUD",
	"CA": "CAD",
	"US": "USD",
}

var euroZone = []string{
	"AT", "BE", "HR", "CY", "EE", "FI", "FR", "DE", "GR", "IE",
	"IT", "LV", "LT", "LU", "MT", "NL", "PT", "SK", "SI", "ES",
}

func init() {
	for _, c := range euroZone {
		countryCurrency[c] = "EUR"
	}
}

// DetectCurrency maps an ISO 3166-1 alpha-2 country code to the currency
// prices are quoted in.
func DetectCurrency(country string) string {
	if cur, ok := countryCurrency[strings.ToUpper(strings.TrimSpace(country))]; ok {
		return cur
	}
	return DefaultCurrency
}

// Plan is a purchasable entitlement.
type Plan struct {
	Code string      `json:"code"`
	Name string      `json:"name"`
	Role domain.Role `json:"role"`
	// MaxJobs is the active posting quota granted to schools.
	MaxJobs int `json:"max_jobs,omitempty"`
	// AmountIDR is what the gateway charges.
	AmountIDR int64 `json:"-"`
	// Prices are display prices in whole currency units.
	Prices map[string]int64 `json:"-"`
}

// Plan codes.
const (
	PlanTeacherFullAccess = "teacher_full_access"
	PlanSchoolStarter     = "school_starter"
	PlanSchoolGrowth      = "school_growth"
)

// Plans is the catalogue.
var Plans = map[string]Plan{
	PlanTeacherFullAccess: {
		Code:      PlanTeacherFullAccess,
		Name:      "Teacher Full Access",
		Role:      domain.RoleTeacher,
		AmountIDR: 790000,
		Prices: map[string]int64{
			"USD": 49, "CNY": 349, "HKD": 389, "GBP": 39, "EUR": 45, "IDR": 790000, "AUD": 75, "CAD": 67,
		},
	},
	PlanSchoolStarter: {
		Code:      PlanSchoolStarter,
		Name:      "School Starter",
		Role:      domain.RoleSchool,
		MaxJobs:   5,
		AmountIDR: 3200000,
		Prices: map[string]int64{
			"USD": 199, "CNY": 1399, "HKD": 1559, "GBP": 159, "EUR": 185, "IDR": 3200000, "AUD": 305, "CAD": 272,
		},
	},
	PlanSchoolGrowth: {
		Code:      PlanSchoolGrowth,
		Name:      "School Growth",
		Role:      domain.RoleSchool,
		MaxJobs:   20,
		AmountIDR: 7900000,
		Prices: map[string]int64{
			"USD": 490, "CNY": 3490, "HKD": 3830, "GBP": 389, "EUR": 455, "IDR": 7900000, "AUD": 750, "CAD": 670,
		},
	},
}

// Quote is a plan price in one currency.
type Quote struct {
	Plan     string `json:"plan"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
	Amount   int64  `json:"amount"`
	MaxJobs  int    `json:"max_jobs,omitempty"`
}

// QuotesFor returns the prices of every plan available to role in currency,
// falling back to USD for unpriced currencies.
func QuotesFor(role domain.Role, currency string) []Quote {
	var out []Quote
	for _, code := range []string{PlanTeacherFullAccess, PlanSchoolStarter, PlanSchoolGrowth} {
		p := Plans[code]
		if p.Role != role {
			continue
		}
		out = append(out, quote(p, currency))
	}
	return out
}

func quote(p Plan, currency string) Quote {
	cur := strings.ToUpper(currency)
	amount, ok := p.Prices[cur]
	if !ok {
		cur = DefaultCurrency
		amount = p.Prices[cur]
	}
	return Quote{Plan: p.Code, Name: p.Name, Currency: cur, Amount: amount, MaxJobs: p.MaxJobs}
}
