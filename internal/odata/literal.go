package odata

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/rebeliceyang/lazygrid/internal/models"
)

// Literal renders a filter value for this dialect. info is the declared type
// of the filtered field, if the request carries one.
func (d Dialect) Literal(info *models.FieldInfo, value interface{}) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case time.Time:
		return d.formatDate(v)
	case *time.Time:
		if v == nil {
			return "null"
		}
		return d.formatDate(*v)
	case bool:
		if v {
			return "true"
		}
		return "false"
	case string:
		if info != nil && isDateType(info.DataType) {
			if t, ok := models.ParseTime(v); ok {
				return d.formatDate(t)
			}
		}
		return quote(v)
	}

	if number, ok := formatNumber(value); ok {
		if info != nil && info.DataType == "decimal" {
			return number + "m"
		}
		return number
	}

	return quote(fmt.Sprint(value))
}

func isDateType(dataType string) bool {
	return dataType == "date" || dataType == "dateTime"
}

// quote wraps s in single quotes, doubling embedded quotes
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func formatNumber(value interface{}) (string, bool) {
	if n, ok := value.(json.Number); ok {
		return n.String(), true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32), true
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), true
	}
	return "", false
}
