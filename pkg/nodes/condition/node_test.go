package condition

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jornadaflow/jornada/pkg/models"
	"github.com/jornadaflow/jornada/pkg/testutil"
)

func variableClause(variable, operator, value string) map[string]any {
	return map[string]any{
		"kind":     "variable",
		"variable": variable,
		"operator": operator,
		"value":    value,
	}
}

func executeCondition(t *testing.T, cfg map[string]any, ts *testutil.TestScope) string {
	t.Helper()

	node, err := NewConditionNode("c1", cfg)
	require.NoError(t, err)

	outcome, err := node.Execute(context.Background(), ts.Scope)
	require.NoError(t, err)
	require.Equal(t, models.OutcomeAdvance, outcome.Kind)

	return outcome.NextLabel
}

func TestConditionNode_VariableOperators(t *testing.T) {
	tests := []struct {
		name     string
		operator string
		value    string
		stored   any
		want     string
	}{
		{"equals ignores case and accents", "equals", "sao paulo", "São Paulo", models.EdgeLabelYes},
		{"equals mismatch", "equals", "rio", "São Paulo", models.EdgeLabelNo},
		{"not_equals", "not_equals", "rio", "São Paulo", models.EdgeLabelYes},
		{"contains", "contains", "paulo", "São Paulo", models.EdgeLabelYes},
		{"not_contains", "not_contains", "rio", "São Paulo", models.EdgeLabelYes},
		{"starts_with", "starts_with", "são", "Sao Paulo", models.EdgeLabelYes},
		{"ends_with", "ends_with", "paulo", "São Paulo", models.EdgeLabelYes},
		{"greater_than", "greater_than", "10", "42", models.EdgeLabelYes},
		{"greater_than non numeric", "greater_than", "10", "abc", models.EdgeLabelNo},
		{"less_than", "less_than", "100", 42, models.EdgeLabelYes},
		{"exists", "exists", "", "anything", models.EdgeLabelYes},
		{"exists empty value", "exists", "", "", models.EdgeLabelNo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := testutil.CreateTestScope(testutil.WithSession(
				testutil.CreateTestSession(testutil.WithVariables(map[string]any{"city": tt.stored})),
			))

			got := executeCondition(t, map[string]any{
				"clauses": []any{variableClause("city", tt.operator, tt.value)},
			}, ts)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConditionNode_MissingVariable(t *testing.T) {
	ts := testutil.CreateTestScope()

	got := executeCondition(t, map[string]any{
		"clauses": []any{variableClause("city", "not_exists", "")},
	}, ts)
	assert.Equal(t, models.EdgeLabelYes, got)
}

func TestConditionNode_TagClauses(t *testing.T) {
	ts := testutil.CreateTestScope(testutil.WithContact(
		testutil.CreateTestContact(testutil.WithTags("vip")),
	))

	got := executeCondition(t, map[string]any{
		"clauses": []any{map[string]any{"kind": "tag", "tag": "vip", "operator": "has"}},
	}, ts)
	assert.Equal(t, models.EdgeLabelYes, got)

	got = executeCondition(t, map[string]any{
		"clauses": []any{map[string]any{"kind": "tag", "tag": "vip", "operator": "not_has"}},
	}, ts)
	assert.Equal(t, models.EdgeLabelNo, got)
}

func TestConditionNode_Combinators(t *testing.T) {
	ts := testutil.CreateTestScope(testutil.WithSession(
		testutil.CreateTestSession(testutil.WithVariables(map[string]any{"a": "1", "b": "2"})),
	))

	andCfg := map[string]any{
		"combinator": "and",
		"clauses": []any{
			variableClause("a", "equals", "1"),
			variableClause("b", "equals", "wrong"),
		},
	}
	assert.Equal(t, models.EdgeLabelNo, executeCondition(t, andCfg, ts))

	orCfg := map[string]any{
		"combinator": "or",
		"clauses": []any{
			variableClause("a", "equals", "1"),
			variableClause("b", "equals", "wrong"),
		},
	}
	assert.Equal(t, models.EdgeLabelYes, executeCondition(t, orCfg, ts))
}

func TestConditionNode_AIClause(t *testing.T) {
	ts := testutil.CreateTestScope()
	ts.Judge.JudgeAnswer = true

	got := executeCondition(t, map[string]any{
		"clauses": []any{map[string]any{"kind": "ai", "criterion": "the contact wants to buy"}},
	}, ts)
	assert.Equal(t, models.EdgeLabelYes, got)
	require.Len(t, ts.Judge.JudgedCriteria, 1)
	assert.Equal(t, "the contact wants to buy", ts.Judge.JudgedCriteria[0])
}

func TestConditionNode_AIClauseErrorIsFalse(t *testing.T) {
	ts := testutil.CreateTestScope()
	ts.Judge.JudgeAnswer = true
	ts.Judge.JudgeErr = testutil.ErrFake

	got := executeCondition(t, map[string]any{
		"clauses": []any{map[string]any{"kind": "ai", "criterion": "anything"}},
	}, ts)
	assert.Equal(t, models.EdgeLabelNo, got)
}

func TestNewConditionNode_Validation(t *testing.T) {
	_, err := NewConditionNode("c1", map[string]any{})
	assert.Error(t, err)

	_, err = NewConditionNode("c1", map[string]any{
		"clauses": []any{map[string]any{"kind": "variable"}},
	})
	assert.Error(t, err)

	_, err = NewConditionNode("c1", map[string]any{
		"clauses":    []any{variableClause("a", "equals", "1")},
		"combinator": "xor",
	})
	assert.Error(t, err)
}

func TestRandomizerNode_WeightedDraw(t *testing.T) {
	node, err := NewRandomizerNode("r1", map[string]any{
		"splits": []any{
			map[string]any{"label": "a", "weight": 30},
			map[string]any{"label": "b", "weight": 70},
		},
	})
	require.NoError(t, err)

	node.draw = func() float64 { return 0.0 }
	assert.Equal(t, "a", node.pick())

	node.draw = func() float64 { return 0.29 }
	assert.Equal(t, "a", node.pick())

	node.draw = func() float64 { return 0.3 }
	assert.Equal(t, "b", node.pick())

	node.draw = func() float64 { return 0.999 }
	assert.Equal(t, "b", node.pick())
}

func TestRandomizerNode_ZeroWeightsFallBackToFirst(t *testing.T) {
	node, err := NewRandomizerNode("r1", map[string]any{
		"splits": []any{
			map[string]any{"label": "a", "weight": 0},
			map[string]any{"label": "b", "weight": 0},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "a", node.pick())
}

func TestNewRandomizerNode_Validation(t *testing.T) {
	_, err := NewRandomizerNode("r1", map[string]any{})
	assert.Error(t, err)

	_, err = NewRandomizerNode("r1", map[string]any{
		"splits": []any{map[string]any{"label": "a", "weight": -1}},
	})
	assert.Error(t, err)
}
