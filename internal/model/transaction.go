package model

import "time"

// UnknownCategory is assigned to transactions that could not be resolved
// or that the user explicitly skipped.
const UnknownCategory = "UNKNOWN"

// Transaction represents one normalized bank row in flight through a
// categorization run. Rows carry no persistent identity beyond the run
// except their external ID.
type Transaction struct {
	Date        time.Time
	ID          string
	Description string
	Currency    string
	Amount      float64
}

// CategorySource indicates which path decided a transaction's category.
type CategorySource string

// Category source constants.
const (
	SourceCache       CategorySource = "CACHE"
	SourceExactMatch  CategorySource = "EXACT"
	SourceFuzzyMatch  CategorySource = "FUZZY"
	SourceUser        CategorySource = "USER"
	SourceContextRule CategorySource = "RULE"
	SourceNone        CategorySource = ""
)

// CategorizedTransaction is a transaction after a categorization run,
// augmented with the cleaned merchant token and the resolved identity.
type CategorizedTransaction struct {
	Transaction
	MerchantClean string
	Entity        string // canonical name, empty when unresolved
	Category      string
	Source        CategorySource
	State         ResolutionState
	Confidence    float64
}
