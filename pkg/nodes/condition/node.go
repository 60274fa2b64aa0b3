// Package condition provides the branching node handlers: condition
// evaluates clauses against session variables, contact tags and the AI
// judgment service; randomizer picks a branch by weighted draw.
package condition

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/jornadaflow/jornada/pkg/models"
	nodeconfig "github.com/jornadaflow/jornada/pkg/nodes/config"
	"github.com/jornadaflow/jornada/pkg/protocol"
	"github.com/jornadaflow/jornada/pkg/template"
)

const judgeHistoryLimit = 10

// ConditionNode evaluates its clauses and advances along the yes or no
// edge. Every clause is evaluated before combining so an AI clause error
// cannot short-circuit into a different branch.
type ConditionNode struct {
	id         string
	clauses    []models.ConditionClause
	combinator models.Combinator
}

// NewConditionNode creates a condition node handler.
func NewConditionNode(id string, cfg map[string]any) (*ConditionNode, error) {
	rawClauses := nodeconfig.Maps(cfg, "clauses")
	if len(rawClauses) == 0 {
		return nil, fmt.Errorf("%w 'clauses'", nodeconfig.ErrMissing)
	}

	clauses := make([]models.ConditionClause, 0, len(rawClauses))

	for i, raw := range rawClauses {
		clause, err := parseClause(raw)
		if err != nil {
			return nil, fmt.Errorf("clause %d: %w", i, err)
		}

		clauses = append(clauses, clause)
	}

	combinator := models.Combinator(nodeconfig.StringOr(cfg, "combinator", string(models.CombinatorAnd)))
	if combinator != models.CombinatorAnd && combinator != models.CombinatorOr {
		return nil, fmt.Errorf("unknown combinator %q", combinator)
	}

	return &ConditionNode{id: id, clauses: clauses, combinator: combinator}, nil
}

func parseClause(raw map[string]any) (models.ConditionClause, error) {
	clause := models.ConditionClause{
		Kind:          models.ClauseKind(nodeconfig.StringOr(raw, "kind", string(models.ClauseKindVariable))),
		Variable:      nodeconfig.StringOr(raw, "variable", ""),
		Operator:      nodeconfig.StringOr(raw, "operator", models.OpEquals),
		Value:         nodeconfig.StringOr(raw, "value", ""),
		Tag:           nodeconfig.StringOr(raw, "tag", ""),
		Criterion:     nodeconfig.StringOr(raw, "criterion", ""),
		KnowledgeBase: nodeconfig.StringOr(raw, "knowledge_base", ""),
	}

	switch clause.Kind {
	case models.ClauseKindVariable:
		if clause.Variable == "" {
			return clause, fmt.Errorf("%w 'variable'", nodeconfig.ErrMissing)
		}
	case models.ClauseKindTag:
		if clause.Tag == "" {
			return clause, fmt.Errorf("%w 'tag'", nodeconfig.ErrMissing)
		}
	case models.ClauseKindAI:
		if clause.Criterion == "" {
			return clause, fmt.Errorf("%w 'criterion'", nodeconfig.ErrMissing)
		}
	default:
		return clause, fmt.Errorf("unknown clause kind %q", clause.Kind)
	}

	return clause, nil
}

func (n *ConditionNode) ID() string            { return n.id }
func (n *ConditionNode) Kind() models.NodeKind { return models.NodeKindCondition }

func (n *ConditionNode) Execute(ctx context.Context, scope *protocol.ExecutionScope) (models.Outcome, error) {
	results := make([]bool, len(n.clauses))
	for i, clause := range n.clauses {
		results[i] = n.evaluate(ctx, scope, clause)
	}

	verdict := results[0]

	for _, r := range results[1:] {
		if n.combinator == models.CombinatorOr {
			verdict = verdict || r
		} else {
			verdict = verdict && r
		}
	}

	if verdict {
		return models.Advance(models.EdgeLabelYes), nil
	}

	return models.Advance(models.EdgeLabelNo), nil
}

func (n *ConditionNode) evaluate(ctx context.Context, scope *protocol.ExecutionScope, clause models.ConditionClause) bool {
	switch clause.Kind {
	case models.ClauseKindVariable:
		value, exists := scope.Session.Variables[clause.Variable]

		return evaluateVariable(clause, template.Stringify(value), exists)
	case models.ClauseKindTag:
		return evaluateTag(clause, scope.Contact)
	case models.ClauseKindAI:
		return n.evaluateAI(ctx, scope, clause)
	}

	return false
}

func evaluateVariable(clause models.ConditionClause, value string, exists bool) bool {
	switch clause.Operator {
	case models.OpExists:
		return exists && value != ""
	case models.OpNotExists:
		return !exists || value == ""
	case models.OpEquals:
		return template.NormalizedEqual(value, clause.Value)
	case models.OpNotEquals:
		return !template.NormalizedEqual(value, clause.Value)
	case models.OpContains:
		return template.NormalizedContains(value, clause.Value)
	case models.OpNotContains:
		return !template.NormalizedContains(value, clause.Value)
	case models.OpStartsWith:
		return strings.HasPrefix(template.Normalize(value), template.Normalize(clause.Value))
	case models.OpEndsWith:
		return strings.HasSuffix(template.Normalize(value), template.Normalize(clause.Value))
	case models.OpGreaterThan:
		a, b, ok := parseNumbers(value, clause.Value)

		return ok && a > b
	case models.OpLessThan:
		a, b, ok := parseNumbers(value, clause.Value)

		return ok && a < b
	}

	return false
}

func evaluateTag(clause models.ConditionClause, contact *models.Contact) bool {
	switch clause.Operator {
	case models.OpNotHas, models.OpNotExists:
		return contact == nil || !contact.HasTag(clause.Tag)
	default:
		return contact != nil && contact.HasTag(clause.Tag)
	}
}

// evaluateAI asks the judgment service. Any transport or parsing failure
// evaluates to false rather than failing the whole invocation.
func (n *ConditionNode) evaluateAI(ctx context.Context, scope *protocol.ExecutionScope, clause models.ConditionClause) bool {
	history, err := scope.Messages.Recent(ctx, scope.Session.ID, judgeHistoryLimit)
	if err != nil {
		scope.Logger.Warn("condition history unavailable", "node_id", n.id, "error", err)

		history = nil
	}

	jc := models.JudgeContext{
		History:       history,
		KnowledgeBase: clause.KnowledgeBase,
	}
	if scope.Contact != nil {
		jc.Tags = scope.Contact.Tags
	}

	answer, err := scope.Judge.Judge(ctx, scope.RenderString(clause.Criterion), jc)
	if err != nil {
		scope.Logger.Warn("condition judge degraded", "node_id", n.id, "error", err)

		return false
	}

	return answer
}

func parseNumbers(a, b string) (float64, float64, bool) {
	fa, errA := strconv.ParseFloat(strings.TrimSpace(a), 64)
	fb, errB := strconv.ParseFloat(strings.TrimSpace(b), 64)

	return fa, fb, errA == nil && errB == nil
}

// RandomizerNode advances along one of its weighted edges. Weights are
// normalized over their own sum.
type RandomizerNode struct {
	id     string
	splits []models.RandomizerSplit

	// draw returns a value in [0, 1). Replaceable in tests.
	draw func() float64
}

// NewRandomizerNode creates a randomizer node handler.
func NewRandomizerNode(id string, cfg map[string]any) (*RandomizerNode, error) {
	rawSplits := nodeconfig.Maps(cfg, "splits")
	if len(rawSplits) == 0 {
		return nil, fmt.Errorf("%w 'splits'", nodeconfig.ErrMissing)
	}

	splits := make([]models.RandomizerSplit, 0, len(rawSplits))

	for i, raw := range rawSplits {
		label, err := nodeconfig.String(raw, "label")
		if err != nil {
			return nil, fmt.Errorf("split %d: %w", i, err)
		}

		weight := nodeconfig.FloatOr(raw, "weight", 0)
		if weight < 0 {
			return nil, fmt.Errorf("split %d: negative weight", i)
		}

		splits = append(splits, models.RandomizerSplit{Label: label, Weight: weight})
	}

	return &RandomizerNode{id: id, splits: splits, draw: rand.Float64}, nil
}

func (n *RandomizerNode) ID() string            { return n.id }
func (n *RandomizerNode) Kind() models.NodeKind { return models.NodeKindRandomizer }

func (n *RandomizerNode) Execute(_ context.Context, _ *protocol.ExecutionScope) (models.Outcome, error) {
	return models.Advance(n.pick()), nil
}

func (n *RandomizerNode) pick() string {
	var total float64
	for _, split := range n.splits {
		total += split.Weight
	}

	if total <= 0 {
		return n.splits[0].Label
	}

	target := n.draw() * total

	for _, split := range n.splits {
		if target < split.Weight {
			return split.Label
		}

		target -= split.Weight
	}

	return n.splits[len(n.splits)-1].Label
}
