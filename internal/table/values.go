package table

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TimeLayout is how timestamps are shown in cells
const TimeLayout = "2006-01-02 15:04"

// Format renders a cell value. nil and nil pointers render empty.
func Format(v interface{}) string {
	v = deref(v)
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Local().Format(TimeLayout)
	case decimal.Decimal:
		return x.StringFixed(2)
	case decimal.NullDecimal:
		if !x.Valid {
			return ""
		}
		return x.Decimal.StringFixed(2)
	case bool:
		if x {
			return "yes"
		}
		return "no"
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

// Compare orders two cell values of the same column. Empty values sort first.
func Compare(a, b interface{}) int {
	a, b = deref(a), deref(b)
	if aNull, bNull := isNull(a), isNull(b); aNull || bNull {
		switch {
		case aNull && bNull:
			return 0
		case aNull:
			return -1
		default:
			return 1
		}
	}

	switch x := a.(type) {
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	case decimal.Decimal:
		if y, ok := b.(decimal.Decimal); ok {
			return x.Cmp(y)
		}
	case decimal.NullDecimal:
		if y, ok := b.(decimal.NullDecimal); ok {
			return x.Decimal.Cmp(y.Decimal)
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			default:
				return 1
			}
		}
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch {
	case isInt(va) && isInt(vb):
		return cmpOrdered(va.Int(), vb.Int())
	case isUint(va) && isUint(vb):
		return cmpOrdered(va.Uint(), vb.Uint())
	case isFloat(va) && isFloat(vb):
		return cmpOrdered(va.Float(), vb.Float())
	case va.Kind() == reflect.String && vb.Kind() == reflect.String:
		return strings.Compare(strings.ToLower(va.String()), strings.ToLower(vb.String()))
	}
	return strings.Compare(strings.ToLower(Format(a)), strings.ToLower(Format(b)))
}

func deref(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	return rv.Interface()
}

func isNull(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return true
	case decimal.NullDecimal:
		return !x.Valid
	case time.Time:
		return x.IsZero()
	}
	return false
}

func isInt(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUint(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func isFloat(v reflect.Value) bool {
	return v.Kind() == reflect.Float32 || v.Kind() == reflect.Float64
}

func cmpOrdered[N int64 | uint64 | float64](a, b N) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
