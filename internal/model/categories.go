package model

var expenseCategories = []string{
	"Fuel",
	"Food",
	"Movie",
	"Shopping",
	"Medical",
	"Loan",
	"Transport",
	"Utilities",
	"Entertainment",
	"Education",
	"Rent",
	"Other",
}

var incomeCategories = []string{
	"Salary",
	"Business",
	"Investment",
	"Freelance",
	"Gift",
	"Other",
}

// Categories returns the fixed category set for a transaction type. Transfers
// have none.
func Categories(t TransactionType) []string {
	var src []string
	switch t {
	case TypeExpense:
		src = expenseCategories
	case TypeIncome:
		src = incomeCategories
	default:
		return nil
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// IsCategory reports whether category belongs to the set for t. Matching is
// exact.
func IsCategory(t TransactionType, category string) bool {
	var set []string
	switch t {
	case TypeExpense:
		set = expenseCategories
	case TypeIncome:
		set = incomeCategories
	}
	for _, c := range set {
		if c == category {
			return true
		}
	}
	return false
}
