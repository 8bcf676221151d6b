// Package catalog holds the fixed category table. It is not user-editable.
package catalog

import "strings"

// Fallback is accepted as a subcategory of every category.
const Fallback = "Others"

const (
	Inflow        = "Inflow"
	Expenses      = "Expenses"
	Investment    = "Investment"
	Insurance     = "Insurance"
	Asset         = "Asset"
	Liabilities   = "Liabilities"
	Miscellaneous = "Miscellaneous"
)

// Category is one row of the lookup table.
type Category struct {
	Name          string   `json:"name"`
	Subcategories []string `json:"subcategories"`
}

var table = []Category{
	{Name: Inflow, Subcategories: []string{"Salary", "Rental Income", "Interest", Fallback}},
	{Name: Expenses, Subcategories: []string{"Home Expenses", Fallback}},
	{Name: Investment, Subcategories: []string{"PPF", "FD", "MF", "Post Office", "NPS", Fallback}},
	{Name: Insurance, Subcategories: []string{"LIC", "Health Insurance", Fallback}},
	{Name: Asset, Subcategories: []string{"Real Estate", "Gold", Fallback}},
	{Name: Liabilities, Subcategories: []string{"Car", "Bike", Fallback}},
	{Name: Miscellaneous, Subcategories: []string{Fallback}},
}

// All returns a copy of the table in display order.
func All() []Category {
	out := make([]Category, len(table))
	for i, c := range table {
		subs := make([]string, len(c.Subcategories))
		copy(subs, c.Subcategories)
		out[i] = Category{Name: c.Name, Subcategories: subs}
	}
	return out
}

// Lookup finds a category by exact name.
func Lookup(name string) (Category, bool) {
	for _, c := range table {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

// Valid reports whether subcategory is permitted for category.
func Valid(category, subcategory string) bool {
	c, ok := Lookup(category)
	if !ok {
		return false
	}
	if subcategory == Fallback {
		return true
	}
	for _, s := range c.Subcategories {
		if s == subcategory {
			return true
		}
	}
	return false
}

// Names lists the category names, e.g. for flag help text.
func Names() string {
	names := make([]string, len(table))
	for i, c := range table {
		names[i] = c.Name
	}
	return strings.Join(names, ", ")
}
