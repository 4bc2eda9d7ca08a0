package criteria

import (
	"fmt"
	"strings"

	"flowconnect-backend/internal/domain"
)

// fragment is one compiled SQL predicate with its bind args.
type fragment struct {
	sql  string
	args []interface{}
}

// Compile translates a criteria tree into a WHERE expression over the
// contacts table. Returns ok=false when every condition dropped, in which
// case the query is unfiltered. dialect is the GORM dialector name
// ("postgres" or "sqlite"); it only affects array-column SQL.
func Compile(c *Criteria, dialect string) (string, []interface{}, bool) {
	if c == nil || len(c.Groups) == 0 {
		return "", nil, false
	}

	var groups []fragment
	for _, g := range c.Groups {
		if f, ok := compileGroup(g, dialect); ok {
			groups = append(groups, f)
		}
	}
	if len(groups) == 0 {
		return "", nil, false
	}

	combined := combine(groups, operatorSQL(c.GroupOperator))
	return combined.sql, combined.args, true
}

func compileGroup(g Group, dialect string) (fragment, bool) {
	var conds []fragment
	for _, cond := range g.Conditions {
		if f, ok := compileCondition(cond, dialect); ok {
			conds = append(conds, f)
		}
	}
	if len(conds) == 0 {
		return fragment{}, false
	}
	return combine(conds, operatorSQL(g.LogicalOperator)), true
}

func operatorSQL(op string) string {
	if strings.EqualFold(op, OpOr) {
		return " OR "
	}
	return " AND "
}

func combine(frags []fragment, sep string) fragment {
	if len(frags) == 1 {
		return frags[0]
	}
	parts := make([]string, 0, len(frags))
	var args []interface{}
	for _, f := range frags {
		parts = append(parts, "("+f.sql+")")
		args = append(args, f.args...)
	}
	return fragment{sql: strings.Join(parts, sep), args: args}
}

func compileCondition(cond Condition, dialect string) (fragment, bool) {
	col, ok := lookupColumn(cond.EntityType, cond.Field)
	if !ok {
		return fragment{}, false
	}
	table := entityTable[cond.EntityType]
	pred, ok := buildPredicate(table+"."+col.Name, col, cond.Operator, cond.Value, dialect)
	if !ok {
		return fragment{}, false
	}
	if cond.EntityType == domain.EntityContact {
		return pred, true
	}
	return linkSubquery(cond.EntityType, table, pred), true
}

// linkSubquery wraps an entity predicate into `contacts.id IN (...)` walking
// the polymorphic link graph. The linked entity may sit on either side of a
// LinkRelation row, so both directions are joined.
func linkSubquery(entityType, table string, pred fragment) fragment {
	sub := fmt.Sprintf(
		"contacts.id IN (SELECT CASE WHEN lr.source_entity_type = 'contact' THEN lr.source_entity_id ELSE lr.target_entity_id END"+
			" FROM link_relations lr JOIN %s e ON ((lr.source_entity_type = '%s' AND lr.source_entity_id = e.id) OR (lr.target_entity_type = '%s' AND lr.target_entity_id = e.id))"+
			" WHERE ((lr.source_entity_type = 'contact' AND lr.target_entity_type = '%s') OR (lr.source_entity_type = '%s' AND lr.target_entity_type = 'contact'))"+
			" AND %s)",
		table, entityType, entityType, entityType, entityType,
		strings.ReplaceAll(pred.sql, table+".", "e."),
	)
	return fragment{sql: sub, args: pred.args}
}

func buildPredicate(colExpr string, col Column, op string, value interface{}, dialect string) (fragment, bool) {
	switch op {
	case OpIsNull:
		return fragment{sql: colExpr + " IS NULL"}, true
	case OpIsNotNull:
		return fragment{sql: colExpr + " IS NOT NULL"}, true
	}

	if col.Kind == KindArray {
		return arrayPredicate(colExpr, col, op, value, dialect)
	}

	switch op {
	case OpIn, OpNotIn:
		list, ok := coerceList(col, value)
		if !ok {
			return fragment{}, false
		}
		return inPredicate(colExpr, col, op, list), true
	}

	coerced, ok := coerceScalar(col, value)
	if !ok {
		return fragment{}, false
	}
	if coerced == nil {
		// Empty string on a date column collapses to NULL semantics.
		if col.Kind == KindDate {
			switch op {
			case OpEquals:
				return fragment{sql: colExpr + " IS NULL"}, true
			case OpNotEquals:
				return fragment{sql: colExpr + " IS NOT NULL"}, true
			}
		}
		return fragment{}, false
	}

	switch op {
	case OpEquals:
		if col.Kind == KindString {
			return fragment{sql: "lower(" + colExpr + ") = lower(?)", args: []interface{}{coerced}}, true
		}
		return fragment{sql: colExpr + " = ?", args: []interface{}{coerced}}, true
	case OpNotEquals:
		if col.Kind == KindString {
			return fragment{sql: "lower(" + colExpr + ") <> lower(?)", args: []interface{}{coerced}}, true
		}
		return fragment{sql: colExpr + " <> ?", args: []interface{}{coerced}}, true
	case OpContains, OpNotContains:
		if col.Kind != KindString {
			return fragment{}, false
		}
		like := "lower(" + colExpr + ") LIKE '%' || lower(?) || '%'"
		if op == OpNotContains {
			like = "NOT (" + like + ")"
		}
		return fragment{sql: like, args: []interface{}{coerced}}, true
	case OpGreaterThan, OpLessThan, OpGe, OpLe:
		if !ordered(col.Kind) {
			return fragment{}, false
		}
		return fragment{sql: colExpr + " " + comparator(op) + " ?", args: []interface{}{coerced}}, true
	}
	return fragment{}, false
}

func ordered(kind ColKind) bool {
	switch kind {
	case KindInt, KindFloat, KindDate, KindEnum:
		return true
	}
	return false
}

func comparator(op string) string {
	switch op {
	case OpGreaterThan:
		return ">"
	case OpLessThan:
		return "<"
	case OpGe:
		return ">="
	case OpLe:
		return "<="
	}
	return "="
}

func inPredicate(colExpr string, col Column, op string, list []interface{}) fragment {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(list)), ",")
	expr := colExpr
	args := list
	if col.Kind == KindString {
		// Case-insensitive membership: lower both sides.
		expr = "lower(" + colExpr + ")"
		lowered := make([]interface{}, len(list))
		for i, v := range list {
			lowered[i] = strings.ToLower(fmt.Sprintf("%v", v))
		}
		args = lowered
	}
	sql := expr + " IN (" + placeholders + ")"
	if op == OpNotIn {
		sql = expr + " NOT IN (" + placeholders + ")"
	}
	return fragment{sql: sql, args: args}
}

// arrayPredicate compiles predicates on JSON-array columns. EQUALS behaves as
// membership ("contains") and CONTAINS as "any", matching how the criteria
// were evaluated against array columns historically.
func arrayPredicate(colExpr string, col Column, op string, value interface{}, dialect string) (fragment, bool) {
	if s, isStr := value.(string); isStr && strings.TrimSpace(s) == "" {
		return fragment{}, false
	}

	switch op {
	case OpEquals, OpContains:
		coerced, ok := coerceScalar(col, value)
		if !ok || coerced == nil {
			return fragment{}, false
		}
		return fragment{sql: arrayHasSQL(colExpr, dialect), args: []interface{}{coerced}}, true
	case OpNotEquals, OpNotContains:
		coerced, ok := coerceScalar(col, value)
		if !ok || coerced == nil {
			return fragment{}, false
		}
		return fragment{sql: "NOT (" + arrayHasSQL(colExpr, dialect) + ")", args: []interface{}{coerced}}, true
	case OpIn, OpNotIn:
		list, ok := coerceList(col, value)
		if !ok {
			return fragment{}, false
		}
		frags := make([]fragment, 0, len(list))
		for _, v := range list {
			frags = append(frags, fragment{sql: arrayHasSQL(colExpr, dialect), args: []interface{}{v}})
		}
		combined := combine(frags, " OR ")
		if op == OpNotIn {
			combined.sql = "NOT (" + combined.sql + ")"
		}
		return combined, true
	}
	return fragment{}, false
}

func arrayHasSQL(colExpr, dialect string) string {
	if dialect == "postgres" {
		return "EXISTS (SELECT 1 FROM jsonb_array_elements_text(" + colExpr + ") AS je(value) WHERE lower(je.value) = lower(?))"
	}
	return "EXISTS (SELECT 1 FROM json_each(" + colExpr + ") AS je WHERE lower(je.value) = lower(?))"
}
