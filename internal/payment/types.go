package payment

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Currency is one of the supported payment currencies
type Currency string

const (
	TL  Currency = "TL"
	USD Currency = "USD"
	EUR Currency = "EUR"
)

// ReportingCurrency is the currency every report sums in
const ReportingCurrency = USD

// Currencies lists the supported currencies in display order
func Currencies() []Currency {
	return []Currency{TL, USD, EUR}
}

func (c Currency) Valid() bool {
	switch c {
	case TL, USD, EUR:
		return true
	}
	return false
}

// Method is the canonical payment method
type Method string

const (
	Cash         Method = "Cash"
	BankTransfer Method = "Bank Transfer"
	Check        Method = "Check"
)

// Methods lists every canonical method. Aggregations pre-initialize one entry per value.
func Methods() []Method {
	return []Method{Cash, BankTransfer, Check}
}

func (m Method) Valid() bool {
	switch m {
	case Cash, BankTransfer, Check:
		return true
	}
	return false
}

// Location is the collection channel derived from method and account
type Location string

const (
	LocationBankTransfer    Location = "BANK_TRANSFER"
	LocationCheck           Location = "CHECK"
	LocationMarketHall      Location = "MARKET_HALL"
	LocationJewelryDistrict Location = "JEWELRY_DISTRICT"
	LocationOffice          Location = "OFFICE"
	LocationUnclassified    Location = "UNCLASSIFIED"
)

// Locations lists every location, unclassified last
func Locations() []Location {
	return []Location{
		LocationMarketHall,
		LocationJewelryDistrict,
		LocationOffice,
		LocationBankTransfer,
		LocationCheck,
		LocationUnclassified,
	}
}

func (l Location) Valid() bool {
	for _, known := range Locations() {
		if l == known {
			return true
		}
	}
	return false
}

// Project is one of the two business units
type Project string

const (
	ProjectA Project = "A"
	ProjectB Project = "B"
)

func Projects() []Project {
	return []Project{ProjectA, ProjectB}
}

func (p Project) Valid() bool {
	return p == ProjectA || p == ProjectB
}

// TaxAnnotation is the optional tax adjustment applied after import
type TaxAnnotation struct {
	IncludesTax bool            `json:"includes_tax"`
	Amount      decimal.Decimal `json:"tax_amount"`
	Rate        decimal.Decimal `json:"tax_rate"`
	Note        string          `json:"tax_note,omitempty"`
}

// Record is a normalized payment
type Record struct {
	ID           string          `json:"id,omitempty"`
	BatchID      string          `json:"batch_id,omitempty"`
	CustomerName string          `json:"customer_name"`
	PaymentDate  time.Time       `json:"payment_date"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     Currency        `json:"currency"`
	Method       Method          `json:"payment_method"`
	Location     Location        `json:"location"`
	Project      Project         `json:"project"`
	AccountName  string          `json:"account_name"`
	AmountUSD    decimal.Decimal `json:"amount_usd"`
	ExchangeRate decimal.Decimal `json:"exchange_rate"`
	SourceRow    int             `json:"source_row,omitempty"`
	CreatedAt    time.Time       `json:"created_at,omitempty"`
	Tax          *TaxAnnotation  `json:"tax,omitempty"`
}

// Day returns the payment date truncated to a UTC calendar day
func (r Record) Day() time.Time {
	return Day(r.PaymentDate)
}

// Day truncates t to midnight UTC of its calendar date
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateKey formats a date the way daily totals are keyed
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func (r Record) String() string {
	return fmt.Sprintf("%s %s %s %s", DateKey(r.PaymentDate), r.CustomerName, r.Amount.StringFixed(2), r.Currency)
}
