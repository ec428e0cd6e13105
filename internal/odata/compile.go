package odata

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rebeliceyang/lazygrid/internal/models"
)

// ErrUnknownFilterOperator is returned for operators the compiler cannot express
var ErrUnknownFilterOperator = errors.New("unknown odata filter operator")

// URLSet holds the compiled URLs of a request. DataURL carries filter, sort
// and extra vars; PageURL adds paging and the count flag. Both are readable,
// not percent-encoded; EncodedDataURL and EncodedPageURL give the wire form.
type URLSet struct {
	DataURL string
	PageURL string

	base       string
	dataParams []param
	pageParams []param
}

var comparisons = map[models.FilterOperator]string{
	models.OpEquals:         "eq",
	models.OpGreaterThan:    "gt",
	models.OpGreaterOrEqual: "ge",
	models.OpLowerThan:      "lt",
	models.OpLowerOrEqual:   "le",
}

// BuildURL compiles req against baseURL. It does no I/O and the same input
// always yields the same URLs.
func BuildURL(d Dialect, baseURL string, req models.DataRequest) (URLSet, error) {
	filter, err := compileFilters(d, req)
	if err != nil {
		return URLSet{}, err
	}

	sort, err := compileSort(req.Sorting)
	if err != nil {
		return URLSet{}, err
	}

	var vars []param
	if filter != "" {
		vars = append(vars, param{name: "$filter", value: filter})
	}
	if sort != "" {
		vars = append(vars, param{name: "$orderby", value: sort})
	}
	for _, v := range req.Vars() {
		if v.Value == nil {
			continue
		}
		vars = append(vars, param{name: v.Name, value: *v.Value})
	}

	var pageVars []param
	if req.PageSize != nil {
		pageVars = append(pageVars,
			param{name: "$top", value: strconv.Itoa(*req.PageSize)},
			param{name: "$skip", value: strconv.Itoa(req.Offset())},
		)
	}
	pageVars = append(pageVars, d.countParam)

	query := joinParams(vars, param.String)
	dataURL := baseURL + "?" + query

	join := ""
	if query != "" {
		join = "&"
	}

	return URLSet{
		DataURL:    dataURL,
		PageURL:    dataURL + join + joinParams(pageVars, param.String),
		base:       baseURL,
		dataParams: vars,
		pageParams: pageVars,
	}, nil
}

// compileFilters joins group members with or and groups with and. Groups are
// parenthesized only when more than one remains.
func compileFilters(d Dialect, req models.DataRequest) (string, error) {
	var groups []string
	for _, group := range req.Filters {
		var clauses []string
		for _, filter := range group.Filters {
			clause, err := compileFilter(d, req, filter)
			if err != nil {
				return "", err
			}
			if clause != "" {
				clauses = append(clauses, clause)
			}
		}
		if len(clauses) > 0 {
			groups = append(groups, strings.Join(clauses, " or "))
		}
	}

	switch len(groups) {
	case 0:
		return "", nil
	case 1:
		return groups[0], nil
	}
	for i, group := range groups {
		groups[i] = "(" + group + ")"
	}
	return strings.Join(groups, " and "), nil
}

// compileFilter returns an empty clause for filters that drop out (an In
// without candidates).
func compileFilter(d Dialect, req models.DataRequest, filter models.FilterValue) (string, error) {
	op, err := models.OperatorOrDefault(filter.Operator)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownFilterOperator, string(filter.Operator))
	}

	var info *models.FieldInfo
	if fi, ok := req.FieldInfo(filter.Field); ok {
		info = &fi
	}
	literal := func(v interface{}) string {
		return d.Literal(info, v)
	}

	switch op {
	case models.OpNotEquals:
		return fmt.Sprintf("not(%s eq %s)", filter.Field, literal(filter.Value)), nil
	case models.OpContains:
		return d.contains(filter.Field, literal(filter.Value)), nil
	case models.OpStartsWith:
		return fmt.Sprintf("startswith(%s, %s)", filter.Field, literal(filter.Value)), nil
	case models.OpEndsWith:
		return fmt.Sprintf("endswith(%s, %s)", filter.Field, literal(filter.Value)), nil
	case models.OpIn:
		if filter.Value == nil {
			return "", nil
		}
		candidates, ok := models.ValueList(filter.Value)
		if !ok {
			return "", fmt.Errorf("%w: in expects a list for field %q", models.ErrInvalidFilterValue, filter.Field)
		}
		if len(candidates) == 0 {
			return "", nil
		}
		clauses := make([]string, len(candidates))
		for i, candidate := range candidates {
			clauses[i] = fmt.Sprintf("(%s eq %s)", filter.Field, literal(candidate))
		}
		joined := strings.Join(clauses, " or ")
		if len(candidates) > 1 {
			return "(" + joined + ")", nil
		}
		return joined, nil
	}

	if symbol, ok := comparisons[op]; ok {
		return fmt.Sprintf("%s %s %s", filter.Field, symbol, literal(filter.Value)), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFilterOperator, string(op))
}

func compileSort(sorting []models.SortField) (string, error) {
	if len(sorting) == 0 {
		return "", nil
	}
	parts := make([]string, len(sorting))
	for i, key := range sorting {
		dir, err := models.ParseSortDirection(string(key.Direction))
		if err != nil {
			return "", err
		}
		parts[i] = key.Field + " " + string(dir)
	}
	return strings.Join(parts, ", "), nil
}
