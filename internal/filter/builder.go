// Package filter compiles a DataRequest into parameterized SQL.
package filter

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rebeliceyang/lazygrid/internal/models"
)

// ErrInvalidIdentifier is returned for table or column names that are not plain identifiers
var ErrInvalidIdentifier = errors.New("invalid identifier")

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Dialect captures the SQL differences between supported databases
type Dialect struct {
	Name string

	placeholder func(n int) string
	// distinct is the null-safe inequality operator
	distinct string
	// match renders a pattern match of column against a placeholder
	match   func(column, placeholder string) string
	pattern func(op models.FilterOperator, s string) string
}

// Postgres uses $n placeholders and LIKE patterns
var Postgres = Dialect{
	Name:        "postgres",
	placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	distinct:    "IS DISTINCT FROM",
	match: func(column, placeholder string) string {
		return fmt.Sprintf(`%s LIKE %s ESCAPE '\'`, column, placeholder)
	},
	pattern: func(op models.FilterOperator, s string) string {
		return wrapPattern(op, likeEscaper.Replace(s), "%")
	},
}

// SQLite uses ? placeholders and case-sensitive GLOB patterns
var SQLite = Dialect{
	Name:        "sqlite",
	placeholder: func(int) string { return "?" },
	distinct:    "IS NOT",
	match: func(column, placeholder string) string {
		return fmt.Sprintf("%s GLOB %s", column, placeholder)
	},
	pattern: func(op models.FilterOperator, s string) string {
		return wrapPattern(op, globEscaper.Replace(s), "*")
	},
}

var (
	likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	globEscaper = strings.NewReplacer(`[`, `[[]`, `*`, `[*]`, `?`, `[?]`)
)

func wrapPattern(op models.FilterOperator, escaped, wildcard string) string {
	switch op {
	case models.OpStartsWith:
		return escaped + wildcard
	case models.OpEndsWith:
		return wildcard + escaped
	default:
		return wildcard + escaped + wildcard
	}
}

// Builder generates SQL clauses from data requests
type Builder struct {
	dialect Dialect
}

// NewBuilder creates a new filter builder
func NewBuilder(dialect Dialect) *Builder {
	return &Builder{dialect: dialect}
}

// Statement is SQL text plus its arguments
type Statement struct {
	SQL  string
	Args []interface{}
}

// BuildSelect generates the page query and the count query for table
func (b *Builder) BuildSelect(table string, req models.DataRequest) (page Statement, count Statement, err error) {
	from, err := quoteTable(table)
	if err != nil {
		return page, count, err
	}

	where, args, err := b.BuildWhere(req)
	if err != nil {
		return page, count, err
	}
	orderBy, err := b.BuildOrderBy(req.Sorting)
	if err != nil {
		return page, count, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT * FROM ")
	sb.WriteString(from)
	if where != "" {
		sb.WriteString(" " + where)
	}
	if orderBy != "" {
		sb.WriteString(" " + orderBy)
	}
	if req.PageSize != nil {
		fmt.Fprintf(&sb, " LIMIT %d OFFSET %d", *req.PageSize, req.Offset())
	}

	countSQL := "SELECT COUNT(*) FROM " + from
	if where != "" {
		countSQL += " " + where
	}

	return Statement{SQL: sb.String(), Args: args}, Statement{SQL: countSQL, Args: args}, nil
}

// BuildWhere generates a WHERE clause; groups are ANDed, filters inside a
// group ORed. A group whose only filters are empty In lists matches nothing.
func (b *Builder) BuildWhere(req models.DataRequest) (string, []interface{}, error) {
	if len(req.Filters) == 0 {
		return "", nil, nil
	}

	var groups []string
	var args []interface{}
	for _, group := range req.Filters {
		clause, groupArgs, err := b.buildGroup(group, len(args)+1)
		if err != nil {
			return "", nil, err
		}
		groups = append(groups, "("+clause+")")
		args = append(args, groupArgs...)
	}

	return "WHERE " + strings.Join(groups, " AND "), args, nil
}

// buildGroup builds one or-group
func (b *Builder) buildGroup(group models.FilterGroup, paramIndex int) (string, []interface{}, error) {
	var clauses []string
	var args []interface{}
	currentParam := paramIndex

	for _, cond := range group.Filters {
		clause, condArgs, err := b.buildCondition(cond, currentParam)
		if err != nil {
			return "", nil, err
		}
		if clause == "" {
			continue
		}
		clauses = append(clauses, clause)
		args = append(args, condArgs...)
		currentParam += len(condArgs)
	}

	if len(clauses) == 0 {
		return "1 = 0", nil, nil
	}
	return strings.Join(clauses, " OR "), args, nil
}

// buildCondition builds a single filter condition
func (b *Builder) buildCondition(cond models.FilterValue, paramIndex int) (string, []interface{}, error) {
	op, err := models.OperatorOrDefault(cond.Operator)
	if err != nil {
		return "", nil, err
	}
	column, err := quoteIdentifier(cond.Field)
	if err != nil {
		return "", nil, err
	}
	ph := b.dialect.placeholder(paramIndex)

	switch op {
	case models.OpEquals:
		if cond.Value == nil {
			return fmt.Sprintf("%s IS NULL", column), nil, nil
		}
		return fmt.Sprintf("%s = %s", column, ph), []interface{}{cond.Value}, nil
	case models.OpNotEquals:
		if cond.Value == nil {
			return fmt.Sprintf("%s IS NOT NULL", column), nil, nil
		}
		return fmt.Sprintf("%s %s %s", column, b.dialect.distinct, ph), []interface{}{cond.Value}, nil
	case models.OpGreaterThan:
		return fmt.Sprintf("%s > %s", column, ph), []interface{}{cond.Value}, nil
	case models.OpGreaterOrEqual:
		return fmt.Sprintf("%s >= %s", column, ph), []interface{}{cond.Value}, nil
	case models.OpLowerThan:
		return fmt.Sprintf("%s < %s", column, ph), []interface{}{cond.Value}, nil
	case models.OpLowerOrEqual:
		return fmt.Sprintf("%s <= %s", column, ph), []interface{}{cond.Value}, nil
	case models.OpIn:
		if cond.Value == nil {
			return "", nil, nil
		}
		candidates, ok := models.ValueList(cond.Value)
		if !ok {
			return "", nil, fmt.Errorf("%w: in expects a list for field %q", models.ErrInvalidFilterValue, cond.Field)
		}
		if len(candidates) == 0 {
			return "", nil, nil
		}
		placeholders := make([]string, len(candidates))
		for i := range candidates {
			placeholders[i] = b.dialect.placeholder(paramIndex + i)
		}
		return fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", ")), candidates, nil
	case models.OpContains, models.OpStartsWith, models.OpEndsWith:
		s, ok := cond.Value.(string)
		if !ok {
			return "", nil, fmt.Errorf("%w: %s expects a string for field %q", models.ErrInvalidFilterValue, op, cond.Field)
		}
		return b.dialect.match(column, ph), []interface{}{b.dialect.pattern(op, s)}, nil
	default:
		return "", nil, fmt.Errorf("unsupported operator: %s", op)
	}
}

// BuildOrderBy generates an ORDER BY clause
func (b *Builder) BuildOrderBy(sorting []models.SortField) (string, error) {
	if len(sorting) == 0 {
		return "", nil
	}
	parts := make([]string, len(sorting))
	for i, key := range sorting {
		column, err := quoteIdentifier(key.Field)
		if err != nil {
			return "", err
		}
		dir, err := models.ParseSortDirection(string(key.Direction))
		if err != nil {
			return "", err
		}
		parts[i] = column + " " + strings.ToUpper(string(dir))
	}
	return "ORDER BY " + strings.Join(parts, ", "), nil
}

func quoteIdentifier(name string) (string, error) {
	if !identifierPattern.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	return `"` + name + `"`, nil
}

// quoteTable accepts "table" or "schema.table"
func quoteTable(name string) (string, error) {
	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	for i, part := range parts {
		quoted, err := quoteIdentifier(part)
		if err != nil {
			return "", err
		}
		parts[i] = quoted
	}
	return strings.Join(parts, "."), nil
}
