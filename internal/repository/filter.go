package repository

import (
	"fmt"
	"strings"

	"github.com/aryan0dhankhar/outreach/internal/domain"
)

// whereBuilder accumulates ANDed predicates with positional arguments
type whereBuilder struct {
	clauses []string
	args    []any
}

func (b *whereBuilder) add(clause string, args ...any) {
	placeholders := make([]any, len(args))
	for i, a := range args {
		b.args = append(b.args, a)
		placeholders[i] = fmt.Sprintf("$%d", len(b.args))
	}
	b.clauses = append(b.clauses, fmt.Sprintf(clause, placeholders...))
}

func (b *whereBuilder) sql() string {
	if len(b.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.clauses, " AND ")
}

// contractorWhere translates a filter into a WHERE clause and its arguments
func contractorWhere(f domain.ContractorFilter) (string, []any) {
	b := &whereBuilder{}
	if f.DenyAll {
		b.add("FALSE")
		return b.sql(), b.args
	}
	if f.Status != "" {
		b.add("status = %s", string(f.Status))
	}
	if f.City != "" {
		b.add("city = %s", f.City)
	}
	if f.State != "" {
		b.add("state = %s", f.State)
	}
	if f.AssignedToID != "" {
		b.add("assigned_to_id = %s", f.AssignedToID)
	}
	if f.Query != "" {
		pattern := "%" + escapeLike(f.Query) + "%"
		b.add(`(name ILIKE %s ESCAPE '\' OR keywords ILIKE %s ESCAPE '\')`, pattern, pattern)
	}
	return b.sql(), b.args
}

// escapeLike neutralizes LIKE wildcards in user input
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
