package classify

import (
	"testing"

	"github.com/datsun80zx/payrep/internal/payment"
)

func TestMethod(t *testing.T) {
	tests := []struct {
		in   string
		want payment.Method
	}{
		{"Nakit", payment.Cash},
		{"KASA", payment.Cash},
		{"Cash", payment.Cash},
		{"Banka Havalesi", payment.BankTransfer},
		{"Bank Transfer", payment.BankTransfer},
		{"Vadeli", payment.BankTransfer},
		{"ÇEK", payment.Check},
		{"Check", payment.Check},
		{"Kredi Kartı", payment.Cash},
		{"", payment.Cash},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Method(tt.in); got != tt.want {
				t.Errorf("Method(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLocation(t *testing.T) {
	tests := []struct {
		name    string
		method  payment.Method
		account string
		want    payment.Location
	}{
		{"transfer ignores account", payment.BankTransfer, "Office-3", payment.LocationBankTransfer},
		{"check ignores account", payment.Check, "ÇARŞI KASA", payment.LocationCheck},
		{"market hall turkish", payment.Cash, "ÇARŞI KASA", payment.LocationMarketHall},
		{"market hall ascii", payment.Cash, "carsi", payment.LocationMarketHall},
		{"jewelry district", payment.Cash, "Kuyumcukent Şube", payment.LocationJewelryDistrict},
		{"office english", payment.Cash, "Office-3", payment.LocationOffice},
		{"office turkish capitals", payment.Cash, "MERKEZ OFİS", payment.LocationOffice},
		{"first rule wins", payment.Cash, "Çarşı Office", payment.LocationMarketHall},
		{"unmatched", payment.Cash, "Depo", payment.LocationUnclassified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Location(tt.method, tt.account); got != tt.want {
				t.Errorf("Location(%q, %q) = %q, want %q", tt.method, tt.account, got, tt.want)
			}
		})
	}
}

func TestLocationIsIdempotent(t *testing.T) {
	rec := payment.Record{Method: payment.Cash, AccountName: "Office-3"}
	first := Record(rec)
	second := Record(first)
	if first.Location != second.Location || first.Location != payment.LocationOffice {
		t.Errorf("reclassification drifted: %q then %q", first.Location, second.Location)
	}
}

func TestProject(t *testing.T) {
	tests := []struct {
		in     string
		want   payment.Project
		wantOK bool
	}{
		{"A", payment.ProjectA, true},
		{"MKM", payment.ProjectA, true},
		{"MODEL KUYUM MERKEZİ", payment.ProjectA, true},
		{"b", payment.ProjectB, true},
		{"Model Sanayi Merkezi 3. Etap", payment.ProjectB, true},
		{"Project B", payment.ProjectB, true},
		{"", "", false},
		{"Unknown Tower", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := Project(tt.in)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Project(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
