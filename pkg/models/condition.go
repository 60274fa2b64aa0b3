package models

// ClauseKind distinguishes the three condition clause families.
type ClauseKind string

const (
	ClauseKindVariable ClauseKind = "variable"
	ClauseKindTag      ClauseKind = "tag"
	ClauseKindAI       ClauseKind = "ai"
)

// Comparison operators for variable clauses. All string comparisons are
// case/diacritic-normalized before matching.
const (
	OpEquals      = "equals"
	OpNotEquals   = "not_equals"
	OpContains    = "contains"
	OpNotContains = "not_contains"
	OpStartsWith  = "starts_with"
	OpEndsWith    = "ends_with"
	OpGreaterThan = "greater_than"
	OpLessThan    = "less_than"
	OpExists      = "exists"
	OpNotExists   = "not_exists"
	OpHas         = "has"
	OpNotHas      = "not_has"
)

// ConditionClause is one clause of a condition node. Variable clauses
// compare a session variable against a value; tag clauses test contact tag
// membership; AI clauses ask the judgment service to answer a
// natural-language criterion against the conversation context.
type ConditionClause struct {
	Kind     ClauseKind `json:"kind"`
	Variable string     `json:"variable,omitempty"`
	Operator string     `json:"operator,omitempty"`
	Value    string     `json:"value,omitempty"`
	Tag      string     `json:"tag,omitempty"`

	// AI clause fields.
	Criterion     string `json:"criterion,omitempty"`
	KnowledgeBase string `json:"knowledge_base,omitempty"`
}

// Combinator joins a condition node's clauses.
type Combinator string

const (
	CombinatorAnd Combinator = "and"
	CombinatorOr  Combinator = "or"
)

// RandomizerSplit is one weighted branch of a randomizer node. Weights are
// normalized over their own sum, they need not add up to 100.
type RandomizerSplit struct {
	Label  string  `json:"label"`
	Weight float64 `json:"weight"`
}
