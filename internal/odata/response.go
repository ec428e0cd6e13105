package odata

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/rebeliceyang/lazygrid/internal/models"
)

var (
	// ErrMalformedResponse is returned when a response has no usable value array
	ErrMalformedResponse = errors.New("malformed odata response")
	// ErrMalformedCount is returned when the count property is missing or not an integer
	ErrMalformedCount = errors.New("malformed odata count")
)

// MapData converts a decoded collection response into a page. When only the
// count is malformed the returned page still carries the items, so callers
// can choose to fall back to len(Items).
func MapData(d Dialect, raw map[string]interface{}) (models.DataPage, error) {
	items, err := mapItems(raw["value"])
	if err != nil {
		return models.DataPage{}, err
	}

	page := models.DataPage{Items: items}

	total, err := parseCount(raw[d.countKey])
	if err != nil {
		return page, fmt.Errorf("%w: %s: %v", ErrMalformedCount, d.countKey, err)
	}
	page.Total = total
	return page, nil
}

// DecodeResponse reads a JSON collection response and maps it
func DecodeResponse(d Dialect, r io.Reader) (models.DataPage, error) {
	var raw map[string]interface{}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return models.DataPage{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return MapData(d, raw)
}

// Encode renders a page as a collection response. V3 writes the count as a
// string, V4 as a number.
func Encode(d Dialect, page models.DataPage, withCount bool) map[string]interface{} {
	items := page.Items
	if items == nil {
		items = []models.Row{}
	}
	body := map[string]interface{}{"value": items}
	if withCount {
		if d.Version == Version3 {
			body[d.countKey] = strconv.Itoa(page.Total)
		} else {
			body[d.countKey] = page.Total
		}
	}
	return body
}

func mapItems(value interface{}) ([]models.Row, error) {
	list, ok := value.([]interface{})
	if !ok {
		if value == nil {
			return nil, fmt.Errorf("%w: missing value array", ErrMalformedResponse)
		}
		return nil, fmt.Errorf("%w: value is %T, not an array", ErrMalformedResponse, value)
	}

	items := make([]models.Row, len(list))
	for i, entry := range list {
		row, ok := entry.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: value[%d] is %T, not an object", ErrMalformedResponse, i, entry)
		}
		items[i] = row
	}
	return items, nil
}

// parseCount accepts integers, numbers with a fraction (truncated) and
// numeric strings.
func parseCount(value interface{}) (int, error) {
	switch v := value.(type) {
	case nil:
		return 0, errors.New("missing")
	case float64:
		return truncate(v)
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case json.Number:
		return parseCountString(v.String())
	case string:
		return parseCountString(v)
	}
	return 0, fmt.Errorf("unexpected type %T", value)
}

func parseCountString(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return truncate(f)
}

func truncate(f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number: %v", f)
	}
	return int(f), nil
}
