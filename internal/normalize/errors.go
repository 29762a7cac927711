package normalize

import (
	"fmt"

	"github.com/datsun80zx/payrep/internal/parser"
)

// Row failure reasons
const (
	ReasonEmptyCustomer   = "empty customer name"
	ReasonInvalidDate     = "invalid date"
	ReasonDateOutOfRange  = "date out of range"
	ReasonNonPositive     = "amount must be positive"
	ReasonBadCurrency     = "unsupported currency"
	ReasonEmptyMethod     = "empty payment method"
	ReasonEmptyAccount    = "empty account name"
	ReasonUnknownProject  = "unknown project"
	ReasonMissingRate     = "no exchange rate"
	ReasonDuplicateInFile = "duplicate of an earlier row"
)

// RowError records why a single row was skipped
type RowError struct {
	Row    int          `json:"row"`
	Field  parser.Field `json:"field"`
	Value  string       `json:"value,omitempty"`
	Reason string       `json:"reason"`
}

func (e RowError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("row %d, column %s: %s", e.Row, e.Field, e.Reason)
	}
	return fmt.Sprintf("row %d, column %s: %s ('%s')", e.Row, e.Field, e.Reason, e.Value)
}
