package odata

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rebeliceyang/lazygrid/internal/models"
)

// ErrInvalidQuery is returned when a query string cannot be mapped onto a DataRequest
var ErrInvalidQuery = errors.New("invalid odata query")

// Query is a parsed collection query
type Query struct {
	Request models.DataRequest
	// Count is set when the client asked for the total row count
	Count bool
}

// ParseQuery maps decoded query parameters onto a DataRequest. $filter must
// be an and of or-groups of simple predicates, which is what BuildURL emits.
func ParseQuery(d Dialect, values url.Values) (Query, error) {
	var q Query

	if raw := values.Get("$filter"); raw != "" {
		groups, err := ParseFilter(raw)
		if err != nil {
			return q, err
		}
		q.Request.Filters = groups
	}

	if raw := values.Get("$orderby"); raw != "" {
		sorting, err := parseOrderBy(raw)
		if err != nil {
			return q, err
		}
		q.Request.Sorting = sorting
	}

	top, err := intParam(values, "$top")
	if err != nil {
		return q, err
	}
	skip, err := intParam(values, "$skip")
	if err != nil {
		return q, err
	}
	switch {
	case top != nil:
		if *top <= 0 {
			return q, fmt.Errorf("%w: $top must be positive", ErrInvalidQuery)
		}
		if skip != nil && *skip%*top != 0 {
			return q, fmt.Errorf("%w: $skip %d is not a multiple of $top %d", ErrInvalidQuery, *skip, *top)
		}
		q.Request.PageSize = top
		if skip != nil {
			q.Request.Page = *skip / *top
		}
	case skip != nil && *skip != 0:
		return q, fmt.Errorf("%w: $skip requires $top", ErrInvalidQuery)
	}

	q.Count = values.Get(d.countParam.name) == d.countParam.value
	return q, nil
}

func intParam(values url.Values, name string) (*int, error) {
	raw := values.Get(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%w: %s=%q", ErrInvalidQuery, name, raw)
	}
	return &n, nil
}

func parseOrderBy(raw string) ([]models.SortField, error) {
	var sorting []models.SortField
	for _, part := range strings.Split(raw, ",") {
		fields := strings.Fields(part)
		switch len(fields) {
		case 1:
			sorting = append(sorting, models.SortField{Field: fields[0], Direction: models.SortAsc})
		case 2:
			dir, err := models.ParseSortDirection(strings.ToLower(fields[1]))
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
			}
			sorting = append(sorting, models.SortField{Field: fields[0], Direction: dir})
		default:
			return nil, fmt.Errorf("%w: $orderby item %q", ErrInvalidQuery, strings.TrimSpace(part))
		}
	}
	return sorting, nil
}

// ParseFilter parses a $filter expression into filter groups
func ParseFilter(raw string) ([]models.FilterGroup, error) {
	tokens, err := lex(raw)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, fmt.Errorf("%w: unexpected %q", ErrInvalidQuery, p.peek().text)
	}
	return toGroups(expr)
}

// tokens

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokString
	tokNumber
	tokDate
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind  tokenKind
	text  string
	value interface{}
}

func lex(s string) ([]token, error) {
	var tokens []token
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '(':
			tokens = append(tokens, token{kind: tokLParen, text: "("})
			i++
		case c == ')':
			tokens = append(tokens, token{kind: tokRParen, text: ")"})
			i++
		case c == ',':
			tokens = append(tokens, token{kind: tokComma, text: ","})
			i++
		case c == '\'':
			text, next, err := lexString(s, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: tokString, text: text, value: text})
			i = next
		case isDigit(c) || (c == '-' && i+1 < len(s) && isDigit(s[i+1])):
			start := i
			i++
			for i < len(s) && isNumberChar(s[i]) {
				i++
			}
			tok, err := numberToken(s[start:i])
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
		case isIdentStart(c):
			start := i
			for i < len(s) && isIdentChar(s[i]) {
				i++
			}
			word := s[start:i]
			if strings.EqualFold(word, "datetime") && i < len(s) && s[i] == '\'' {
				text, next, err := lexString(s, i)
				if err != nil {
					return nil, err
				}
				t, ok := models.ParseTime(text)
				if !ok {
					return nil, fmt.Errorf("%w: bad DateTime literal %q", ErrInvalidQuery, text)
				}
				tokens = append(tokens, token{kind: tokDate, text: word + "'" + text + "'", value: t})
				i = next
				continue
			}
			tokens = append(tokens, token{kind: tokIdent, text: word})
		default:
			return nil, fmt.Errorf("%w: unexpected character %q at %d", ErrInvalidQuery, c, i)
		}
	}
	return tokens, nil
}

// lexString reads a quoted literal starting at s[start] == '\''
func lexString(s string, start int) (string, int, error) {
	var b strings.Builder
	for i := start + 1; i < len(s); i++ {
		if s[i] != '\'' {
			b.WriteByte(s[i])
			continue
		}
		if i+1 < len(s) && s[i+1] == '\'' {
			b.WriteByte('\'')
			i++
			continue
		}
		return b.String(), i + 1, nil
	}
	return "", 0, fmt.Errorf("%w: unterminated string literal", ErrInvalidQuery)
}

func numberToken(text string) (token, error) {
	if looksLikeDate(text) {
		stamp := text
		if strings.HasSuffix(stamp, "z") {
			if t, ok := models.ParseTime(strings.TrimSuffix(stamp, "z")); ok {
				return token{kind: tokDate, text: text, value: t}, nil
			}
		}
		if t, err := time.Parse(time.RFC3339Nano, stamp); err == nil {
			return token{kind: tokDate, text: text, value: t}, nil
		}
		if t, ok := models.ParseTime(stamp); ok {
			return token{kind: tokDate, text: text, value: t}, nil
		}
		return token{}, fmt.Errorf("%w: bad date literal %q", ErrInvalidQuery, text)
	}

	digits := strings.TrimRight(text, "mMdDfFlL")
	if n, err := strconv.ParseInt(digits, 10, 64); err == nil && digits == text {
		return token{kind: tokNumber, text: text, value: float64(n)}, nil
	}
	f, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return token{}, fmt.Errorf("%w: bad number %q", ErrInvalidQuery, text)
	}
	return token{kind: tokNumber, text: text, value: f}, nil
}

func looksLikeDate(text string) bool {
	return len(text) >= 10 && text[4] == '-' && text[7] == '-'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isNumberChar(c byte) bool {
	return isDigit(c) || c == '.' || c == '-' || c == '+' || c == ':' || c == 'T' || c == 'Z' || c == 'z' ||
		c == 'e' || c == 'E' || c == 'm' || c == 'M' || c == 'd' || c == 'D' || c == 'f' || c == 'F' || c == 'l' || c == 'L'
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || c == '@' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c) || c == '.' || c == '/'
}

// expression tree

type expr interface{}

type logicalExpr struct {
	op          string // "and" or "or"
	left, right expr
}

type notExpr struct {
	inner expr
}

// predicateExpr is a leaf that maps onto a single FilterValue
type predicateExpr struct {
	filter models.FilterValue
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) done() bool { return p.pos >= len(p.tokens) }

func (p *parser) peek() token {
	if p.done() {
		return token{kind: -1, text: "end of input"}
	}
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.peek()
	p.pos++
	return t
}

func (p *parser) isKeyword(word string) bool {
	t := p.peek()
	return t.kind == tokIdent && strings.EqualFold(t.text, word)
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	t := p.next()
	if t.kind != kind {
		return t, fmt.Errorf("%w: expected %s, got %q", ErrInvalidQuery, what, t.text)
	}
	return t, nil
}

func (p *parser) parseOr() (expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("or") {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = logicalExpr{op: "or", left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("and") {
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = logicalExpr{op: "and", left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (expr, error) {
	if p.isKeyword("not") {
		p.next()
		if _, err := p.expect(tokLParen, "("); err != nil {
			return nil, err
		}
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
		return notExpr{inner: inner}, nil
	}
	return p.parsePrimary()
}

var functions = map[string]models.FilterOperator{
	"contains":    models.OpContains,
	"substringof": models.OpContains,
	"startswith":  models.OpStartsWith,
	"endswith":    models.OpEndsWith,
}

var symbols = map[string]models.FilterOperator{
	"eq": models.OpEquals,
	"ne": models.OpNotEquals,
	"gt": models.OpGreaterThan,
	"ge": models.OpGreaterOrEqual,
	"lt": models.OpLowerThan,
	"le": models.OpLowerOrEqual,
}

func (p *parser) parsePrimary() (expr, error) {
	t := p.next()
	switch t.kind {
	case tokLParen:
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
		return inner, nil
	case tokIdent:
		name := strings.ToLower(t.text)
		if op, ok := functions[name]; ok && p.peek().kind == tokLParen {
			return p.parseCall(name, op)
		}
		symbol, err := p.expect(tokIdent, "comparison operator")
		if err != nil {
			return nil, err
		}
		op, ok := symbols[strings.ToLower(symbol.text)]
		if !ok {
			return nil, fmt.Errorf("%w: unknown operator %q", ErrInvalidQuery, symbol.text)
		}
		value, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		return predicateExpr{filter: models.FilterValue{Field: t.text, Operator: op, Value: value}}, nil
	}
	return nil, fmt.Errorf("%w: unexpected %q", ErrInvalidQuery, t.text)
}

// parseCall reads fn(field, literal), or substringof(literal, field)
func (p *parser) parseCall(name string, op models.FilterOperator) (expr, error) {
	p.next()

	var field string
	var value interface{}
	var err error

	if name == "substringof" {
		if value, err = p.parseLiteral(); err != nil {
			return nil, err
		}
		if _, err = p.expect(tokComma, ","); err != nil {
			return nil, err
		}
		f, err := p.expect(tokIdent, "field")
		if err != nil {
			return nil, err
		}
		field = f.text
	} else {
		f, err := p.expect(tokIdent, "field")
		if err != nil {
			return nil, err
		}
		field = f.text
		if _, err = p.expect(tokComma, ","); err != nil {
			return nil, err
		}
		if value, err = p.parseLiteral(); err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(tokRParen, ")"); err != nil {
		return nil, err
	}
	return predicateExpr{filter: models.FilterValue{Field: field, Operator: op, Value: value}}, nil
}

func (p *parser) parseLiteral() (interface{}, error) {
	t := p.next()
	switch t.kind {
	case tokString, tokNumber, tokDate:
		return t.value, nil
	case tokIdent:
		switch strings.ToLower(t.text) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		case "null":
			return nil, nil
		}
	}
	return nil, fmt.Errorf("%w: expected literal, got %q", ErrInvalidQuery, t.text)
}

// lowering onto the and-of-or model

func toGroups(e expr) ([]models.FilterGroup, error) {
	var groups []models.FilterGroup
	for _, conjunct := range flatten(e, "and") {
		var group models.FilterGroup
		for _, term := range flatten(conjunct, "or") {
			filter, err := toFilter(term)
			if err != nil {
				return nil, err
			}
			group.Filters = append(group.Filters, filter)
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func flatten(e expr, op string) []expr {
	if l, ok := e.(logicalExpr); ok && l.op == op {
		return append(flatten(l.left, op), flatten(l.right, op)...)
	}
	return []expr{e}
}

func toFilter(e expr) (models.FilterValue, error) {
	switch v := e.(type) {
	case predicateExpr:
		return v.filter, nil
	case notExpr:
		inner, ok := v.inner.(predicateExpr)
		if ok {
			switch inner.filter.Operator {
			case models.OpEquals:
				inner.filter.Operator = models.OpNotEquals
				return inner.filter, nil
			case models.OpNotEquals:
				inner.filter.Operator = models.OpEquals
				return inner.filter, nil
			}
		}
		return models.FilterValue{}, fmt.Errorf("%w: not() is only supported around eq", ErrInvalidQuery)
	case logicalExpr:
		return models.FilterValue{}, fmt.Errorf("%w: %s nested inside an or-group", ErrInvalidQuery, v.op)
	}
	return models.FilterValue{}, fmt.Errorf("%w: unsupported expression", ErrInvalidQuery)
}
