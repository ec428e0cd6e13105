package models

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrUnknownOperator is returned for filter operators outside the supported set
	ErrUnknownOperator = errors.New("unknown filter operator")
	// ErrUnknownSortDirection is returned for sort directions other than asc/desc
	ErrUnknownSortDirection = errors.New("unknown sort direction")
	// ErrInvalidFilterValue is returned when a filter value does not fit its operator
	ErrInvalidFilterValue = errors.New("invalid filter value")
	// ErrInvalidPaging is returned for a negative page or a non-positive page size
	ErrInvalidPaging = errors.New("invalid paging")
)

// FilterOperator represents a filter comparison operator
type FilterOperator string

const (
	OpEquals         FilterOperator = "eq"
	OpNotEquals      FilterOperator = "neq"
	OpGreaterThan    FilterOperator = "gt"
	OpGreaterOrEqual FilterOperator = "gte"
	OpLowerThan      FilterOperator = "lt"
	OpLowerOrEqual   FilterOperator = "lte"
	OpIn             FilterOperator = "in"
	OpContains       FilterOperator = "contains"
	OpStartsWith     FilterOperator = "startswith"
	OpEndsWith       FilterOperator = "endswith"
)

// DefaultOperator is used when a filter does not name an operator
const DefaultOperator = OpEquals

// Operators lists every supported operator
var Operators = []FilterOperator{
	OpEquals, OpNotEquals,
	OpGreaterThan, OpGreaterOrEqual,
	OpLowerThan, OpLowerOrEqual,
	OpIn, OpContains, OpStartsWith, OpEndsWith,
}

// Valid reports whether op is one of the supported operators
func (op FilterOperator) Valid() bool {
	for _, candidate := range Operators {
		if op == candidate {
			return true
		}
	}
	return false
}

// OperatorOrDefault resolves an empty operator to DefaultOperator and rejects
// anything outside the supported set.
func OperatorOrDefault(op FilterOperator) (FilterOperator, error) {
	if op == "" {
		return DefaultOperator, nil
	}
	if !op.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownOperator, string(op))
	}
	return op, nil
}

// FilterValue is a single field predicate. Value is a scalar for comparison
// operators, a list for In and a string for the text operators.
type FilterValue struct {
	Field    string         `json:"field" yaml:"field"`
	Operator FilterOperator `json:"operator" yaml:"operator"`
	Value    interface{}    `json:"value" yaml:"value"`
}

// FilterGroup matches a row when any of its filters matches
type FilterGroup struct {
	Filters []FilterValue `json:"filters" yaml:"filters"`
}

// SortDirection is the ordering direction of a sort key
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ParseSortDirection validates a sort direction
func ParseSortDirection(s string) (SortDirection, error) {
	switch SortDirection(s) {
	case SortAsc, SortDesc:
		return SortDirection(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSortDirection, s)
}

// SortField is one sort key
type SortField struct {
	Field     string        `json:"field" yaml:"field"`
	Direction SortDirection `json:"direction" yaml:"direction"`
}

// FieldInfo describes the declared type of a field
type FieldInfo struct {
	Field    string `json:"field" yaml:"field"`
	DataType string `json:"dataType,omitempty" yaml:"dataType,omitempty"`
}

// Var is an extra protocol-specific query parameter. A nil Value is omitted.
type Var struct {
	Name  string  `json:"name" yaml:"name"`
	Value *string `json:"value" yaml:"value"`
}

// Args carries protocol-specific extras
type Args struct {
	Vars []Var `json:"vars" yaml:"vars"`
}

// DataRequest asks a source for one page of rows.
//
// Filters are combined with AND, the filters inside a group with OR. An empty
// Filters slice matches every row. A nil PageSize means the request is unpaged.
type DataRequest struct {
	Page     int           `json:"page" yaml:"page"`
	PageSize *int          `json:"pageSize" yaml:"pageSize"`
	Sorting  []SortField   `json:"sorting" yaml:"sorting"`
	Filters  []FilterGroup `json:"filters" yaml:"filters"`
	Fields   []FieldInfo   `json:"fields" yaml:"fields"`
	Args     *Args         `json:"args,omitempty" yaml:"args,omitempty"`
}

// FieldInfo returns the declared info for a field, if any
func (r DataRequest) FieldInfo(field string) (FieldInfo, bool) {
	for _, info := range r.Fields {
		if info.Field == field {
			return info, true
		}
	}
	return FieldInfo{}, false
}

// Vars returns the caller-supplied extra parameters
func (r DataRequest) Vars() []Var {
	if r.Args == nil {
		return nil
	}
	return r.Args.Vars
}

// ValidatePaging rejects a negative page and a non-positive page size
func (r DataRequest) ValidatePaging() error {
	if r.Page < 0 {
		return fmt.Errorf("%w: page must not be negative, got %d", ErrInvalidPaging, r.Page)
	}
	if r.PageSize != nil && *r.PageSize <= 0 {
		return fmt.Errorf("%w: page size must be positive, got %d", ErrInvalidPaging, *r.PageSize)
	}
	return nil
}

// Offset returns the index of the first row of the requested page
func (r DataRequest) Offset() int {
	if r.PageSize == nil {
		return 0
	}
	return r.Page * *r.PageSize
}

// PageSize is a helper for building requests
func PageSize(n int) *int {
	return &n
}

// Row is a single raw record
type Row = map[string]interface{}

// DataPage is one page of rows plus the number of rows that matched the
// filters before paging.
type DataPage struct {
	Items []Row `json:"items"`
	Total int   `json:"total"`
}

// ValueList returns v as a list when it is a slice or array. Used for the
// candidate values of In filters.
func ValueList(v interface{}) ([]interface{}, bool) {
	switch list := v.(type) {
	case nil:
		return nil, false
	case []interface{}:
		return list, true
	case []string:
		out := make([]interface{}, len(list))
		for i, s := range list {
			out[i] = s
		}
		return out, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]interface{}, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
