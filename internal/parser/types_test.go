package parser

import (
	"errors"
	"testing"
)

func TestSchemaResolve(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    map[Field]string
		missing Field
	}{
		{
			name:    "exact turkish headers",
			headers: []string{"Müşteri Adı Soyadı", "Tarih", "Tahsilat Şekli", "Hesap Adı", "Ödenen Tutar", "Ödenen Döviz", "Proje Adı"},
			want:    map[Field]string{FieldCustomer: "Müşteri Adı Soyadı", FieldProject: "Proje Adı"},
		},
		{
			name:    "case and whitespace drift",
			headers: []string{" customer name ", "DATE", "payment method", "Account", "amount", "currency", "PROJECT"},
			want:    map[Field]string{FieldCustomer: " customer name ", FieldDate: "DATE", FieldProject: "PROJECT"},
		},
		{
			name:    "project by substring",
			headers: []string{"Customer", "Date", "Method", "Account", "Amount", "Currency", "Projesi"},
			want:    map[Field]string{FieldProject: "Projesi"},
		},
		{
			name:    "amount header with totals suffix",
			headers: []string{"Customer", "Date", "Method", "Account", "Ödenen Tutar(Σ:12.000)", "Currency", "Project"},
			want:    map[Field]string{FieldAmount: "Ödenen Tutar(Σ:12.000)"},
		},
		{
			name:    "missing currency",
			headers: []string{"Customer", "Date", "Method", "Account", "Amount", "Project"},
			missing: FieldCurrency,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols, err := DefaultSchema.Resolve(tt.headers)
			if tt.missing != "" {
				var ffe *FileFormatError
				if !errors.As(err, &ffe) {
					t.Fatalf("expected FileFormatError, got %v", err)
				}
				if ffe.Field != tt.missing {
					t.Errorf("missing field = %q, want %q", ffe.Field, tt.missing)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			for field, header := range tt.want {
				if cols[field] != header {
					t.Errorf("%s resolved to %q, want %q", field, cols[field], header)
				}
			}
		})
	}
}

func TestColumnsGetTrims(t *testing.T) {
	cols := Columns{FieldCustomer: "Customer"}
	row := RawRow{"Customer": "  Ali Veli "}
	if got := cols.Get(row, FieldCustomer); got != "Ali Veli" {
		t.Errorf("Get() = %q", got)
	}
	if got := cols.Get(row, FieldDate); got != "" {
		t.Errorf("unresolved field should be empty, got %q", got)
	}
}

func TestSchemaMissing(t *testing.T) {
	got := DefaultSchema.Missing([]string{"Customer", "Date", "Method", "Amount"})
	want := []Field{FieldAccount, FieldCurrency, FieldProject}
	if len(got) != len(want) {
		t.Fatalf("Missing() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Missing()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
