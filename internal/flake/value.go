package flake

import (
	"fmt"
	"time"
)

// CompareValues orders two object values the way spec §4.1 describes:
// numbers compare numerically within numeric types, strings lexically,
// dates by instant, and mixed datatypes compare by dt first, then value.
func CompareValues(o1 any, dt1 SID, o2 any, dt2 SID) int {
	if c := dt1.Compare(dt2); c != 0 {
		return c
	}
	if IsReference(dt1) {
		s1, ok1 := o1.(SID)
		s2, ok2 := o2.(SID)
		if ok1 && ok2 {
			return s1.Compare(s2)
		}
	}
	switch dt1 {
	case DtInteger, DtLong:
		return compareInt64(toInt64(o1), toInt64(o2))
	case DtDouble, DtDecimal:
		return compareFloat64(toFloat64(o1), toFloat64(o2))
	case DtDateTime, DtDate:
		return compareTime(toTime(o1), toTime(o2))
	case DtBoolean:
		b1, b2 := toBool(o1), toBool(o2)
		if b1 == b2 {
			return 0
		}
		if !b1 {
			return -1
		}
		return 1
	default:
		return compareString(fmt.Sprint(o1), fmt.Sprint(o2))
	}
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

func compareString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func toFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}

func toBool(v any) bool {
	b, _ := v.(bool)
	return b
}

// Normalize coerces a decoded-from-JSON literal (numbers arrive as
// float64, dates as strings) into the Go representation CompareValues
// expects for dt. Reference objects (dt == DtID) are not literals and are
// left untouched.
func Normalize(dt SID, o any) any {
	switch dt {
	case DtInteger, DtLong:
		return toInt64(o)
	case DtDouble, DtDecimal:
		return toFloat64(o)
	case DtBoolean:
		return toBool(o)
	case DtDateTime, DtDate:
		return toTime(o)
	default:
		return o
	}
}

func toTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err == nil {
			return parsed
		}
		parsed, err = time.Parse("2006-01-02", t)
		if err == nil {
			return parsed
		}
	}
	return time.Time{}
}
