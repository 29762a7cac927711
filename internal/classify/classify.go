// Package classify derives the canonical method, location and project of a payment
// from the free text columns of an upload. Every function is pure.
package classify

import (
	"github.com/datsun80zx/payrep/internal/payment"
	"github.com/datsun80zx/payrep/internal/textfold"
)

type methodRule struct {
	tokens []string
	method payment.Method
}

// methodRules are evaluated in order; unknown text is treated as cash
var methodRules = []methodRule{
	{tokens: []string{"çek", "check", "cheque"}, method: payment.Check},
	{tokens: []string{"havale", "transfer", "eft", "vadeli", "banka"}, method: payment.BankTransfer},
	{tokens: []string{"nakit", "kasa", "cash"}, method: payment.Cash},
}

// Method maps free method text to a canonical method
func Method(text string) payment.Method {
	for _, rule := range methodRules {
		if textfold.ContainsAny(text, rule.tokens...) {
			return rule.method
		}
	}
	return payment.Cash
}

type locationRule struct {
	name     string
	method   payment.Method
	tokens   []string
	location payment.Location
}

// LocationRules is the ordered rule table. A rule with a method matches on method alone;
// the remaining rules match account name tokens. The first match wins.
var LocationRules = []locationRule{
	{name: "bank transfer", method: payment.BankTransfer, location: payment.LocationBankTransfer},
	{name: "check", method: payment.Check, location: payment.LocationCheck},
	{name: "market hall", tokens: []string{"çarşı", "carsi", "market"}, location: payment.LocationMarketHall},
	{name: "jewelry district", tokens: []string{"kuyumcukent", "jewelry"}, location: payment.LocationJewelryDistrict},
	{name: "office", tokens: []string{"ofis", "office"}, location: payment.LocationOffice},
}

// Location derives the collection channel. Unmatched accounts are UNCLASSIFIED.
func Location(method payment.Method, account string) payment.Location {
	for _, rule := range LocationRules {
		if rule.method != "" {
			if rule.method == method {
				return rule.location
			}
			continue
		}
		if textfold.ContainsAny(account, rule.tokens...) {
			return rule.location
		}
	}
	return payment.LocationUnclassified
}

var projectAliases = map[string]payment.Project{
	"a":              payment.ProjectA,
	"project a":      payment.ProjectA,
	"projecta":       payment.ProjectA,
	"proje a":        payment.ProjectA,
	"mkm":            payment.ProjectA,
	"model kuyum":    payment.ProjectA,
	"kuyum merkezi":  payment.ProjectA,
	"b":              payment.ProjectB,
	"project b":      payment.ProjectB,
	"projectb":       payment.ProjectB,
	"proje b":        payment.ProjectB,
	"msm":            payment.ProjectB,
	"model sanayi":   payment.ProjectB,
	"sanayi merkezi": payment.ProjectB,
	"3. etap":        payment.ProjectB,
}

var projectTokens = []struct {
	tokens  []string
	project payment.Project
}{
	{tokens: []string{"model kuyum", "kuyum merkezi", "mkm"}, project: payment.ProjectA},
	{tokens: []string{"model sanayi", "sanayi merkezi", "msm", "3. etap"}, project: payment.ProjectB},
}

// Project resolves the project column. The second result is false for unknown text.
func Project(text string) (payment.Project, bool) {
	folded := textfold.Fold(text)
	if folded == "" {
		return "", false
	}
	if p, ok := projectAliases[folded]; ok {
		return p, true
	}
	for _, pt := range projectTokens {
		if textfold.ContainsAny(folded, pt.tokens...) {
			return pt.project, true
		}
	}
	return "", false
}

// Record recomputes the derived location of a stored record
func Record(rec payment.Record) payment.Record {
	rec.Location = Location(rec.Method, rec.AccountName)
	return rec
}
