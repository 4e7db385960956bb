package incidents

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Category is one of the analyst-defined groups an incident is filed under.
type Category string

const (
	PropertyTheft      Category = "Property Theft & Larceny"
	Burglary           Category = "Burglary"
	VehicleCrimes      Category = "Vehicle-Related Crimes"
	PhysicalViolence   Category = "Physical Violence & Assault"
	Robbery            Category = "Robbery"
	SexualViolence     Category = "Sexual & Violent Crimes"
	DrugPublicOrder    Category = "Drug & Public Order"
	FinancialCrimes    Category = "Financial Crimes"
	AdminInvestigative Category = "Administrative & Investigative"
	PropertyDamage     Category = "Property Damage"
)

var categoryOrder = []Category{
	PropertyTheft,
	Burglary,
	VehicleCrimes,
	PhysicalViolence,
	Robbery,
	SexualViolence,
	DrugPublicOrder,
	FinancialCrimes,
	AdminInvestigative,
	PropertyDamage,
}

// Raw category strings as published by SFPD. Spellings are upstream's,
// including the "?" and British "Offence" variants.
var rawToCategory = map[string]Category{
	"Larceny Theft":   PropertyTheft,
	"Stolen Property": PropertyTheft,

	"Burglary": Burglary,

	"Motor Vehicle Theft":  VehicleCrimes,
	"Motor Vehicle Theft?": VehicleCrimes,

	"Assault":              PhysicalViolence,
	"Weapons Offense":      PhysicalViolence,
	"Weapons Carrying Etc": PhysicalViolence,
	"Offences Against The Family And Children": PhysicalViolence,
	"Homicide":        PhysicalViolence,
	"Weapons Offence": PhysicalViolence,

	"Robbery": Robbery,

	"Sex Offense": SexualViolence,
	"Rape":        SexualViolence,
	"Human Trafficking (A), Commercial Sex Acts":   SexualViolence,
	"Human Trafficking, Commercial Sex Acts":       SexualViolence,
	"Human Trafficking (B), Involuntary Servitude": SexualViolence,

	"Drug Offense":             DrugPublicOrder,
	"Disorderly Conduct":       DrugPublicOrder,
	"Traffic Violation Arrest": DrugPublicOrder,
	"Prostitution":             DrugPublicOrder,
	"Drug Violation":           DrugPublicOrder,
	"Liquor Laws":              DrugPublicOrder,
	"Civil Sidewalks":          DrugPublicOrder,
	"Gambling":                 DrugPublicOrder,

	"Fraud":                      FinancialCrimes,
	"Forgery And Counterfeiting": FinancialCrimes,
	"Embezzlement":               FinancialCrimes,

	"Other Miscellaneous":         AdminInvestigative,
	"Non-Criminal":                AdminInvestigative,
	"Warrant":                     AdminInvestigative,
	"Lost Property":               AdminInvestigative,
	"Missing Person":              AdminInvestigative,
	"Suspicious Occ":              AdminInvestigative,
	"Miscellaneous Investigation": AdminInvestigative,
	"Courtesy Report":             AdminInvestigative,
	"Fire Report":                 AdminInvestigative,
	"Traffic Collision":           AdminInvestigative,
	"Vehicle Impounded":           AdminInvestigative,
	"Suicide":                     AdminInvestigative,
	"Vehicle Misplaced":           AdminInvestigative,
	"Suspicious":                  AdminInvestigative,

	"Malicious Mischief": PropertyDamage,
	"Arson":              PropertyDamage,
	"Vandalism":          PropertyDamage,
}

var excludedRaw = map[string]struct{}{
	"Other":             {},
	"Other Offenses":    {},
	"Case Closure":      {},
	"Recovered Vehicle": {},
}

// ErrUnexpectedCategory marks a raw category that is neither mapped nor
// excluded. Imports stop on it so the table can be updated first.
var ErrUnexpectedCategory = errors.New("unexpected incident category")

// UnexpectedCategoryError carries the offending value and, when known, the
// CSV line it came from.
type UnexpectedCategoryError struct {
	Raw  string
	Line int
}

func (e *UnexpectedCategoryError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s not in main groups or excluded list: %q", e.Line, ErrUnexpectedCategory, e.Raw)
	}
	return fmt.Sprintf("%s not in main groups or excluded list: %q", ErrUnexpectedCategory, e.Raw)
}

func (e *UnexpectedCategoryError) Unwrap() error { return ErrUnexpectedCategory }

// Classify maps a raw incident category to its custom group.
//
// ok is false when the input is blank or one of the excluded categories; such
// rows are dropped. Anything else that is not in the mapping is an error.
// Matching is exact and case-sensitive after trimming surrounding whitespace.
func Classify(raw string) (cat Category, ok bool, err error) {
	c := strings.TrimSpace(raw)
	if c == "" {
		return "", false, nil
	}
	if cat, found := rawToCategory[c]; found {
		return cat, true, nil
	}
	if _, found := excludedRaw[c]; found {
		return "", false, nil
	}
	return "", false, &UnexpectedCategoryError{Raw: raw}
}

// Categories returns the custom groups in display order.
func Categories() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

func MappedRawCategories() []string {
	out := make([]string, 0, len(rawToCategory))
	for k := range rawToCategory {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func ExcludedRawCategories() []string {
	out := make([]string, 0, len(excludedRaw))
	for k := range excludedRaw {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// RawCategoriesFor lists the raw strings that map onto cat, sorted.
func RawCategoriesFor(cat Category) []string {
	var out []string
	for k, v := range rawToCategory {
		if v == cat {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
