package schema

import "fmt"

// PatternKind classifies the access-control shape detected for a table.
type PatternKind string

const (
	// PatternUserSpecific restricts rows to the owner identified by a column.
	PatternUserSpecific PatternKind = "user_specific"
	// PatternPublicRead allows anonymous SELECT with writes restricted to
	// authenticated users.
	PatternPublicRead PatternKind = "public_read"
	// PatternAdminOnly restricts all access to administrative roles.
	PatternAdminOnly PatternKind = "admin_only"
	// PatternCustom requires a manually supplied USING condition.
	PatternCustom PatternKind = "custom"
)

// ParsePatternKind converts a user-supplied pattern name into a PatternKind.
func ParsePatternKind(s string) (PatternKind, error) {
	switch PatternKind(s) {
	case PatternUserSpecific, PatternPublicRead, PatternAdminOnly, PatternCustom:
		return PatternKind(s), nil
	}
	return "", fmt.Errorf("unknown access pattern %q (valid: user_specific, public_read, admin_only, custom)", s)
}

// PatternDecision is the outcome of access-pattern detection for one table.
// It is computed once per table per invocation and never mutated.
type PatternDecision struct {
	Kind        PatternKind
	OwnerColumn string // set only for PatternUserSpecific
	Reason      string
}

// TriggerType identifies the category of a suggested trigger.
type TriggerType string

const (
	TriggerTimestamp  TriggerType = "timestamp"
	TriggerAudit      TriggerType = "audit"
	TriggerValidation TriggerType = "validation"
	TriggerSecurity   TriggerType = "security"
	TriggerSoftDelete TriggerType = "soft_delete"
)

// TriggerSuggestion is one recommended trigger for a table. A table may
// receive any number of suggestions; the rules are independent.
type TriggerSuggestion struct {
	Name        string
	Type        TriggerType
	Description string
	Reason      string
}

// IndexType is the PostgreSQL access method for a recommended index.
type IndexType string

const (
	IndexBTree IndexType = "btree"
	IndexGIN   IndexType = "gin"
	IndexGiST  IndexType = "gist"
	IndexHash  IndexType = "hash"
)

// Impact grades how much an index recommendation is expected to matter.
type Impact string

const (
	ImpactLow      Impact = "Low"
	ImpactMedium   Impact = "Medium"
	ImpactHigh     Impact = "High"
	ImpactCritical Impact = "Critical"
)

var impactRank = map[Impact]int{
	ImpactLow:      1,
	ImpactMedium:   2,
	ImpactHigh:     3,
	ImpactCritical: 4,
}

// AtLeast reports whether i is at or above the given threshold.
// Unknown impact values rank below Low.
func (i Impact) AtLeast(min Impact) bool {
	return impactRank[i] >= impactRank[min]
}

// IndexRecommendation is one recommended index, either from column heuristics
// or from live query-statistics analysis.
type IndexRecommendation struct {
	IndexName        string
	Columns          []string
	IndexType        IndexType
	Unique           bool
	PartialCondition string
	Reason           string
	Impact           Impact
}

// FunctionKind selects the template family for generated SQL functions.
type FunctionKind string

const (
	FunctionAuth    FunctionKind = "auth"
	FunctionCRUD    FunctionKind = "crud"
	FunctionUtility FunctionKind = "utility"
	FunctionCustom  FunctionKind = "custom"
)

// ParseFunctionKind converts a user-supplied function type into a FunctionKind.
func ParseFunctionKind(s string) (FunctionKind, error) {
	switch FunctionKind(s) {
	case FunctionAuth, FunctionCRUD, FunctionUtility, FunctionCustom:
		return FunctionKind(s), nil
	}
	return "", fmt.Errorf("unknown function type %q (valid: auth, crud, utility, custom)", s)
}
