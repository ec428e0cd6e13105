// Package engine evaluates a DataRequest against rows held in memory.
package engine

import (
	"fmt"
	"slices"
	"strings"

	"github.com/rebeliceyang/lazygrid/internal/models"
)

// Run filters, sorts and pages rows. Neither rows nor req is modified.
func Run(rows []models.Row, req models.DataRequest) (models.DataPage, error) {
	if err := validate(req); err != nil {
		return models.DataPage{}, err
	}

	filtered, err := filterRows(rows, req.Filters)
	if err != nil {
		return models.DataPage{}, err
	}

	if len(req.Sorting) > 0 {
		slices.SortStableFunc(filtered, func(a, b models.Row) int {
			return compareRows(a, b, req.Sorting)
		})
	}

	return models.DataPage{
		Items: page(filtered, req),
		Total: len(filtered),
	}, nil
}

// validate rejects unknown operators and directions before any row is touched
func validate(req models.DataRequest) error {
	for _, group := range req.Filters {
		for _, filter := range group.Filters {
			if _, err := models.OperatorOrDefault(filter.Operator); err != nil {
				return err
			}
		}
	}
	for _, sort := range req.Sorting {
		if _, err := models.ParseSortDirection(string(sort.Direction)); err != nil {
			return err
		}
	}
	return req.ValidatePaging()
}

// filterRows returns a new slice holding the rows that match every group
func filterRows(rows []models.Row, groups []models.FilterGroup) ([]models.Row, error) {
	if len(groups) == 0 {
		return slices.Clone(rows), nil
	}

	result := make([]models.Row, 0, len(rows))
	for _, row := range rows {
		ok, err := matchesAll(row, groups)
		if err != nil {
			return nil, err
		}
		if ok {
			result = append(result, row)
		}
	}
	return result, nil
}

func matchesAll(row models.Row, groups []models.FilterGroup) (bool, error) {
	for _, group := range groups {
		ok, err := matchesAny(row, group.Filters)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func matchesAny(row models.Row, filters []models.FilterValue) (bool, error) {
	for _, filter := range filters {
		ok, err := Matches(row, filter)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Matches evaluates a single filter against a row
func Matches(row models.Row, filter models.FilterValue) (bool, error) {
	op, err := models.OperatorOrDefault(filter.Operator)
	if err != nil {
		return false, err
	}

	value := row[filter.Field]

	switch op {
	case models.OpEquals:
		return Equal(value, filter.Value), nil
	case models.OpNotEquals:
		return !Equal(value, filter.Value), nil
	case models.OpGreaterThan:
		cmp, ok := Ordered(value, filter.Value)
		return ok && cmp > 0, nil
	case models.OpGreaterOrEqual:
		cmp, ok := Ordered(value, filter.Value)
		return ok && cmp >= 0, nil
	case models.OpLowerThan:
		cmp, ok := Ordered(value, filter.Value)
		return ok && cmp < 0, nil
	case models.OpLowerOrEqual:
		cmp, ok := Ordered(value, filter.Value)
		return ok && cmp <= 0, nil
	case models.OpIn:
		if filter.Value == nil {
			return false, nil
		}
		candidates, ok := models.ValueList(filter.Value)
		if !ok {
			return false, fmt.Errorf("%w: %s expects a list for field %q", models.ErrInvalidFilterValue, op, filter.Field)
		}
		for _, candidate := range candidates {
			if Equal(value, candidate) {
				return true, nil
			}
		}
		return false, nil
	case models.OpContains, models.OpStartsWith, models.OpEndsWith:
		needle, ok := filter.Value.(string)
		if !ok {
			return false, fmt.Errorf("%w: %s expects a string for field %q", models.ErrInvalidFilterValue, op, filter.Field)
		}
		text, ok := value.(string)
		if !ok {
			return false, nil
		}
		switch op {
		case models.OpContains:
			return strings.Contains(text, needle), nil
		case models.OpStartsWith:
			return strings.HasPrefix(text, needle), nil
		default:
			return strings.HasSuffix(text, needle), nil
		}
	}

	return false, fmt.Errorf("%w: %q", models.ErrUnknownOperator, string(op))
}

// compareRows applies the sort keys in order; the first unequal key decides
func compareRows(a, b models.Row, sorting []models.SortField) int {
	for _, key := range sorting {
		cmp := Compare(a[key.Field], b[key.Field])
		if cmp == 0 {
			continue
		}
		if key.Direction == models.SortDesc {
			return -cmp
		}
		return cmp
	}
	return 0
}

func page(rows []models.Row, req models.DataRequest) []models.Row {
	if req.PageSize == nil {
		return rows
	}
	start := min(req.Offset(), len(rows))
	end := min(start+*req.PageSize, len(rows))
	return rows[start:end]
}
