package metrics

import (
	"github.com/shopspring/decimal"

	"github.com/datsun80zx/payrep/internal/payment"
)

// MethodTotal holds the three independent views of one payment method.
// TL and USD are sums of original amounts in that currency; TotalUSD is the
// converted sum over every currency.
type MethodTotal struct {
	TL       decimal.Decimal `json:"tl"`
	USD      decimal.Decimal `json:"usd"`
	TotalUSD decimal.Decimal `json:"total_usd"`
}

func (m MethodTotal) add(r payment.Record) MethodTotal {
	switch r.Currency {
	case payment.TL:
		m.TL = m.TL.Add(r.Amount)
	case payment.USD:
		m.USD = m.USD.Add(r.Amount)
	}
	m.TotalUSD = m.TotalUSD.Add(r.AmountUSD)
	return m
}

func (m MethodTotal) Plus(o MethodTotal) MethodTotal {
	return MethodTotal{
		TL:       m.TL.Add(o.TL),
		USD:      m.USD.Add(o.USD),
		TotalUSD: m.TotalUSD.Add(o.TotalUSD),
	}
}

func (m MethodTotal) Equal(o MethodTotal) bool {
	return m.TL.Equal(o.TL) && m.USD.Equal(o.USD) && m.TotalUSD.Equal(o.TotalUSD)
}

// MethodTotals always carries an entry for every canonical method
type MethodTotals map[payment.Method]MethodTotal

func NewMethodTotals() MethodTotals {
	m := make(MethodTotals, len(payment.Methods()))
	for _, method := range payment.Methods() {
		m[method] = MethodTotal{TL: decimal.Zero, USD: decimal.Zero, TotalUSD: decimal.Zero}
	}
	return m
}

func (m MethodTotals) Add(r payment.Record) {
	m[r.Method] = m[r.Method].add(r)
}

// Merge adds other into m key by key
func (m MethodTotals) Merge(other MethodTotals) {
	for method, t := range other {
		m[method] = m[method].Plus(t)
	}
}

// SumUSD is the converted total over all methods
func (m MethodTotals) SumUSD() decimal.Decimal {
	sum := decimal.Zero
	for _, t := range m {
		sum = sum.Add(t.TotalUSD)
	}
	return sum
}

func (m MethodTotals) Equal(o MethodTotals) bool {
	if len(m) != len(o) {
		return false
	}
	for k, v := range m {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// ProjectSummary is the converted total per project
type ProjectSummary struct {
	A decimal.Decimal `json:"a"`
	B decimal.Decimal `json:"b"`
}

func NewProjectSummary() ProjectSummary {
	return ProjectSummary{A: decimal.Zero, B: decimal.Zero}
}

func (p ProjectSummary) add(project payment.Project, usd decimal.Decimal) ProjectSummary {
	switch project {
	case payment.ProjectA:
		p.A = p.A.Add(usd)
	case payment.ProjectB:
		p.B = p.B.Add(usd)
	}
	return p
}

func (p ProjectSummary) Plus(o ProjectSummary) ProjectSummary {
	return ProjectSummary{A: p.A.Add(o.A), B: p.B.Add(o.B)}
}

func (p ProjectSummary) Total() decimal.Decimal {
	return p.A.Add(p.B)
}

func (p ProjectSummary) Get(project payment.Project) decimal.Decimal {
	if project == payment.ProjectB {
		return p.B
	}
	return p.A
}

func (p ProjectSummary) Equal(o ProjectSummary) bool {
	return p.A.Equal(o.A) && p.B.Equal(o.B)
}

// LocationTotal is one row of the project x location cross table
type LocationTotal struct {
	A     decimal.Decimal `json:"a"`
	B     decimal.Decimal `json:"b"`
	Total decimal.Decimal `json:"total"`
}

func (l LocationTotal) add(project payment.Project, usd decimal.Decimal) LocationTotal {
	switch project {
	case payment.ProjectA:
		l.A = l.A.Add(usd)
	case payment.ProjectB:
		l.B = l.B.Add(usd)
	}
	l.Total = l.Total.Add(usd)
	return l
}

func (l LocationTotal) Plus(o LocationTotal) LocationTotal {
	return LocationTotal{A: l.A.Add(o.A), B: l.B.Add(o.B), Total: l.Total.Add(o.Total)}
}

func (l LocationTotal) Equal(o LocationTotal) bool {
	return l.A.Equal(o.A) && l.B.Equal(o.B) && l.Total.Equal(o.Total)
}

// LocationSummary always carries an entry for every location
type LocationSummary map[payment.Location]LocationTotal

func NewLocationSummary() LocationSummary {
	s := make(LocationSummary, len(payment.Locations()))
	for _, loc := range payment.Locations() {
		s[loc] = LocationTotal{A: decimal.Zero, B: decimal.Zero, Total: decimal.Zero}
	}
	return s
}

func (s LocationSummary) Add(r payment.Record) {
	s[r.Location] = s[r.Location].add(r.Project, r.AmountUSD)
}

func (s LocationSummary) Merge(other LocationSummary) {
	for loc, t := range other {
		s[loc] = s[loc].Plus(t)
	}
}

func (s LocationSummary) SumTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, t := range s {
		sum = sum.Add(t.Total)
	}
	return sum
}

func (s LocationSummary) Equal(o LocationSummary) bool {
	if len(s) != len(o) {
		return false
	}
	for k, v := range s {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// ProjectMethods repeats the method breakdown scoped to each project
type ProjectMethods map[payment.Project]MethodTotals

func NewProjectMethods() ProjectMethods {
	pm := make(ProjectMethods, len(payment.Projects()))
	for _, p := range payment.Projects() {
		pm[p] = NewMethodTotals()
	}
	return pm
}

func (pm ProjectMethods) Add(r payment.Record) {
	totals, ok := pm[r.Project]
	if !ok {
		totals = NewMethodTotals()
		pm[r.Project] = totals
	}
	totals.Add(r)
}

func (pm ProjectMethods) Merge(other ProjectMethods) {
	for p, totals := range other {
		mine, ok := pm[p]
		if !ok {
			mine = NewMethodTotals()
			pm[p] = mine
		}
		mine.Merge(totals)
	}
}

func (pm ProjectMethods) Equal(o ProjectMethods) bool {
	if len(pm) != len(o) {
		return false
	}
	for k, v := range pm {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Amounts is a string-keyed sum table (customers, days)
type Amounts map[string]decimal.Decimal

func (a Amounts) Add(key string, d decimal.Decimal) {
	a[key] = a[key].Add(d)
}

func (a Amounts) Merge(other Amounts) {
	for k, v := range other {
		a.Add(k, v)
	}
}

func (a Amounts) Sum() decimal.Decimal {
	sum := decimal.Zero
	for _, v := range a {
		sum = sum.Add(v)
	}
	return sum
}

func (a Amounts) Equal(o Amounts) bool {
	if len(a) != len(o) {
		return false
	}
	for k, v := range a {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}
