package model

// ResolutionState tracks a transaction through the resolution sub-flow.
//
//	Tokenized -> {ExactResolved | FuzzySuggested} -> AwaitingUserInput -> {Resolved | Skipped}
//
// ExactResolved is also reachable directly as a terminal state.
// AwaitingUserInput is the only suspension point and must survive a
// process boundary, so every state is a plain serializable string.
type ResolutionState string

// Resolution state constants.
const (
	StateTokenized         ResolutionState = "TOKENIZED"
	StateExactResolved     ResolutionState = "EXACT_RESOLVED"
	StateFuzzySuggested    ResolutionState = "FUZZY_SUGGESTED"
	StateAwaitingUserInput ResolutionState = "AWAITING_USER_INPUT"
	StateResolved          ResolutionState = "RESOLVED"
	StateSkipped           ResolutionState = "SKIPPED"
)

// Terminal reports whether the state permits no further transitions.
func (s ResolutionState) Terminal() bool {
	return s == StateResolved || s == StateSkipped || s == StateExactResolved
}

// OutcomeKind discriminates the result of a resolver lookup.
type OutcomeKind string

// Outcome kinds.
const (
	OutcomeExact     OutcomeKind = "EXACT"
	OutcomeSuggested OutcomeKind = "SUGGESTED"
	OutcomeUnknown   OutcomeKind = "UNKNOWN"
)

// ResolutionOutcome is the result of resolving a cleaned token against
// the phonebook.
type ResolutionOutcome struct {
	Entity *Entity
	Kind   OutcomeKind
	Score  float64
}

// PendingResolution describes one row suspended in AwaitingUserInput,
// carrying everything the resolution collaborator needs to present it.
type PendingResolution struct {
	TransactionID     string  `json:"transaction_id"`
	RawDescription    string  `json:"raw_description"`
	CleanedToken      string  `json:"cleaned_token"`
	SuggestedEntity   string  `json:"suggested_entity,omitempty"`
	SuggestedCategory string  `json:"suggested_category,omitempty"`
	SuggestedScore    float64 `json:"suggested_score,omitempty"`
}

// DecisionAction enumerates the choices a resolution collaborator can return.
type DecisionAction string

// Decision actions.
const (
	DecisionAccept DecisionAction = "ACCEPT"
	DecisionNew    DecisionAction = "NEW"
	DecisionSkip   DecisionAction = "SKIP"
)

// Decision is the collaborator's answer for one pending resolution.
type Decision struct {
	Action        DecisionAction `json:"action"`
	CanonicalName string         `json:"canonical_name,omitempty"`
	Category      string         `json:"category,omitempty"`
}
