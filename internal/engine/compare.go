package engine

import (
	"cmp"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/rebeliceyang/lazygrid/internal/models"
)

// kind orders values of different types: nil < bool < number < string < time < other
type kind int

const (
	kindNil kind = iota
	kindBool
	kindNumber
	kindString
	kindTime
	kindOther
)

// normalize maps v onto one of the comparable kinds. Numbers become int64,
// uint64 or float64 so that large integers keep their exact value.
func normalize(v interface{}) (kind, interface{}) {
	switch x := v.(type) {
	case nil:
		return kindNil, nil
	case bool:
		return kindBool, x
	case string:
		return kindString, x
	case time.Time:
		return kindTime, x
	case *time.Time:
		if x == nil {
			return kindNil, nil
		}
		return kindTime, *x
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return kindNumber, i
		}
		if f, err := x.Float64(); err == nil {
			return kindNumber, f
		}
		return kindString, x.String()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return kindNumber, rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return kindNumber, rv.Uint()
	case reflect.Float32, reflect.Float64:
		return kindNumber, rv.Float()
	case reflect.String:
		return kindString, rv.String()
	case reflect.Bool:
		return kindBool, rv.Bool()
	}
	return kindOther, v
}

// coerce lines up a time with a string holding a timestamp
func coerce(ka kind, a interface{}, kb kind, b interface{}) (kind, interface{}, kind, interface{}) {
	if ka == kindTime && kb == kindString {
		if t, ok := models.ParseTime(b.(string)); ok {
			return ka, a, kindTime, t
		}
	}
	if ka == kindString && kb == kindTime {
		if t, ok := models.ParseTime(a.(string)); ok {
			return kindTime, t, kb, b
		}
	}
	return ka, a, kb, b
}

// Equal reports strict equality: same kind and same value. Numbers of any Go
// numeric type are equal when their values are.
func Equal(a, b interface{}) bool {
	ka, na := normalize(a)
	kb, nb := normalize(b)
	ka, na, kb, nb = coerce(ka, na, kb, nb)
	if ka != kb {
		return false
	}
	switch ka {
	case kindNil:
		return true
	case kindTime:
		return na.(time.Time).Equal(nb.(time.Time))
	case kindNumber:
		return compareNumbers(na, nb) == 0
	case kindOther:
		return reflect.DeepEqual(na, nb)
	}
	return na == nb
}

// Ordered compares a and b when they share an ordered kind. ok is false for
// nil, mixed kinds and values without a natural order.
func Ordered(a, b interface{}) (cmp int, ok bool) {
	ka, na := normalize(a)
	kb, nb := normalize(b)
	ka, na, kb, nb = coerce(ka, na, kb, nb)
	if ka != kb || ka == kindNil || ka == kindOther {
		return 0, false
	}
	return compareSameKind(ka, na, nb), true
}

// Compare is a total order over row values used for sorting
func Compare(a, b interface{}) int {
	ka, na := normalize(a)
	kb, nb := normalize(b)
	ka, na, kb, nb = coerce(ka, na, kb, nb)
	if ka != kb {
		if ka < kb {
			return -1
		}
		return 1
	}
	return compareSameKind(ka, na, nb)
}

func compareSameKind(k kind, a, b interface{}) int {
	switch k {
	case kindNil:
		return 0
	case kindBool:
		x, y := a.(bool), b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		default:
			return 1
		}
	case kindNumber:
		return compareNumbers(a, b)
	case kindString:
		return strings.Compare(a.(string), b.(string))
	case kindTime:
		return a.(time.Time).Compare(b.(time.Time))
	default:
		return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
}

// compareNumbers orders normalized numbers exactly across int64, uint64 and
// float64
func compareNumbers(a, b interface{}) int {
	switch x := a.(type) {
	case int64:
		switch y := b.(type) {
		case int64:
			return cmp.Compare(x, y)
		case uint64:
			if x < 0 {
				return -1
			}
			return cmp.Compare(uint64(x), y)
		case float64:
			return compareIntFloat(x, y)
		}
	case uint64:
		switch y := b.(type) {
		case uint64:
			return cmp.Compare(x, y)
		case float64:
			return compareUintFloat(x, y)
		default:
			return -compareNumbers(b, a)
		}
	case float64:
		if y, ok := b.(float64); ok {
			return cmp.Compare(x, y)
		}
		return -compareNumbers(b, a)
	}
	return 0
}

func compareIntFloat(x int64, y float64) int {
	if math.IsNaN(y) {
		return 1
	}
	if y < math.MinInt64 {
		return 1
	}
	if y >= math.MaxInt64 {
		return -1
	}
	whole, frac := math.Modf(y)
	if c := cmp.Compare(x, int64(whole)); c != 0 {
		return c
	}
	return cmp.Compare(0, frac)
}

func compareUintFloat(x uint64, y float64) int {
	if math.IsNaN(y) || y < 0 {
		return 1
	}
	if y >= math.MaxUint64 {
		return -1
	}
	whole, frac := math.Modf(y)
	if c := cmp.Compare(x, uint64(whole)); c != 0 {
		return c
	}
	return cmp.Compare(0, frac)
}
