package normalize

import (
	"testing"

	"github.com/datsun80zx/payrep/internal/parser"
)

func TestRowErrorMessage(t *testing.T) {
	tests := []struct {
		err  RowError
		want string
	}{
		{RowError{Row: 3, Field: parser.FieldCustomer, Reason: ReasonEmptyCustomer}, "row 3, column customer name: empty customer name"},
		{RowError{Row: 7, Field: parser.FieldCurrency, Value: "GBP", Reason: ReasonBadCurrency}, "row 7, column currency: unsupported currency ('GBP')"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}
