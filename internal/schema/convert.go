package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FromStoreValue converts a scalar returned by the database driver into the
// native value for kind.
//
// Coercion is value-preserving or it fails: an integer that does not fit in
// int64, a fractional number read into an Integer field, and NaN or infinite
// floating-point values are all reported as ErrCodeValueConversion. SQL NULL
// becomes the kind's zero value.
func FromStoreValue(kind FieldKind, v any) (any, error) {
	if v == nil {
		return Zero(kind), nil
	}
	if b, ok := v.([]byte); ok {
		v = string(b)
	}

	switch kind {
	case Integer:
		return toInteger(v)
	case FloatingPoint:
		return toFloat(v)
	case Boolean:
		return toBool(v)
	case Text:
		return toText(v)
	default:
		return nil, &Error{
			Code:    ErrCodeUnsupportedKind,
			Message: "unsupported field kind " + kind.String(),
		}
	}
}

// Literal renders a native value as the text placed inside a quoted SQL
// literal. v must already be the kind's native type.
func Literal(kind FieldKind, v any) (string, error) {
	switch kind {
	case Integer:
		if n, ok := v.(int64); ok {
			return strconv.FormatInt(n, 10), nil
		}
	case Text:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case FloatingPoint:
		if f, ok := v.(float64); ok {
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return "", conversionError(kind, v, fmt.Errorf("non-finite values cannot be stored"))
			}
			return strconv.FormatFloat(f, 'g', -1, 64), nil
		}
	case Boolean:
		if b, ok := v.(bool); ok {
			return strconv.FormatBool(b), nil
		}
	default:
		return "", &Error{
			Code:    ErrCodeUnsupportedKind,
			Message: "unsupported field kind " + kind.String(),
		}
	}
	return "", conversionError(kind, v, fmt.Errorf("expected native %s value", kind))
}

func toInteger(v any) (any, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case uint, uint64, uint32, uint16, uint8:
		u := toUint64(n)
		if u > math.MaxInt64 {
			return nil, conversionError(Integer, v, strconv.ErrRange)
		}
		return int64(u), nil
	case float64:
		return integralFloat(n, v)
	case float32:
		return integralFloat(float64(n), v)
	case bool:
		if n {
			return int64(1), nil
		}
		return int64(0), nil
	case string:
		s := strings.TrimSpace(n)
		i, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			return i, nil
		}
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return nil, conversionError(Integer, v, strconv.ErrRange)
		}
		// "21.0" is what some engines hand back for an integral REAL.
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return nil, conversionError(Integer, v, err)
		}
		return integralFloat(f, v)
	}
	return nil, conversionError(Integer, v, nil)
}

func integralFloat(f float64, orig any) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil, conversionError(Integer, orig, fmt.Errorf("not an integral value"))
	}
	// float64(math.MaxInt64) rounds up to 2^63, which is itself out of range.
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return nil, conversionError(Integer, orig, strconv.ErrRange)
	}
	return int64(f), nil
}

func toFloat(v any) (any, error) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int64:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int16:
		f = float64(n)
	case int8:
		f = float64(n)
	case uint, uint64, uint32, uint16, uint8:
		f = float64(toUint64(n))
	case bool:
		if n {
			f = 1
		}
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil, conversionError(FloatingPoint, v, err)
		}
		f = parsed
	default:
		return nil, conversionError(FloatingPoint, v, nil)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, conversionError(FloatingPoint, v, fmt.Errorf("non-finite value"))
	}
	return f, nil
}

func toBool(v any) (any, error) {
	switch n := v.(type) {
	case bool:
		return n, nil
	case int64:
		return n != 0, nil
	case int:
		return n != 0, nil
	case int32:
		return n != 0, nil
	case int16:
		return n != 0, nil
	case int8:
		return n != 0, nil
	case uint, uint64, uint32, uint16, uint8:
		return toUint64(n) != 0, nil
	case float64:
		return n != 0, nil
	case float32:
		return n != 0, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(n))
		if err != nil {
			return nil, conversionError(Boolean, v, err)
		}
		return b, nil
	}
	return nil, conversionError(Boolean, v, nil)
}

func toText(v any) (any, error) {
	switch n := v.(type) {
	case string:
		return n, nil
	case bool:
		return strconv.FormatBool(n), nil
	case float64:
		return strconv.FormatFloat(n, 'g', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(n), 'g', -1, 32), nil
	case int64, int, int32, int16, int8:
		i, _ := toInteger(n)
		return strconv.FormatInt(i.(int64), 10), nil
	case uint, uint64, uint32, uint16, uint8:
		return strconv.FormatUint(toUint64(n), 10), nil
	}
	return nil, conversionError(Text, v, nil)
}

func toUint64(v any) uint64 {
	switch n := v.(type) {
	case uint:
		return uint64(n)
	case uint64:
		return n
	case uint32:
		return uint64(n)
	case uint16:
		return uint64(n)
	case uint8:
		return uint64(n)
	}
	return 0
}
