// Package result holds the uniform result abstraction: Value, Field, Row
// and the four Result variants (Row/Scalar/Stream/Update), plus the
// resource tracker every Result's disposer is built on.
//
// Value is a tagged struct rather than an interface hierarchy of
// subtypes (REDESIGN FLAGS, spec.md §9: "Inheritance hierarchy of Value
// subtypes... re-express as a tagged variant with dispatch on tag").
package result

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"time"
)

// JDBCType is the abstract type tag carried by each Field, modeled on
// java.sql.Types but flattened to a Go-friendly enum (REDESIGN FLAGS:
// "TypeMapping registry keyed by reflective class tokens... replace
// with a small enum of abstract type tags").
type JDBCType int

const (
	TypeNull JDBCType = iota
	TypeBoolean
	TypeTinyInt
	TypeSmallInt
	TypeInteger
	TypeBigInt
	TypeReal
	TypeFloat
	TypeDouble
	TypeDecimal
	TypeChar
	TypeVarchar
	TypeLongVarchar
	TypeBinary
	TypeVarbinary
	TypeLongVarbinary
	TypeDate
	TypeTime
	TypeTimestamp
	TypeTimestampWithTimezone
	TypeTimeWithTimezone
	TypeArray
	TypeStruct
	TypeJSON
	TypeOther
)

func (t JDBCType) String() string {
	names := [...]string{
		"NULL", "BOOLEAN", "TINYINT", "SMALLINT", "INTEGER", "BIGINT",
		"REAL", "FLOAT", "DOUBLE", "DECIMAL", "CHAR", "VARCHAR",
		"LONGVARCHAR", "BINARY", "VARBINARY", "LONGVARBINARY", "DATE",
		"TIME", "TIMESTAMP", "TIMESTAMP_WITH_TIMEZONE", "TIME_WITH_TIMEZONE",
		"ARRAY", "STRUCT", "JSON", "OTHER",
	}
	if int(t) < 0 || int(t) >= len(names) {
		return "OTHER"
	}
	return names[t]
}

// ValueKind discriminates the tagged Value union.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindBool
	KindIntegral
	KindFloat
	KindDecimal
	KindString
	KindBinary
	KindDate
	KindTime
	KindTimestamp
	KindJSON
)

// RoundingMode controls scale truncation for AsBigDecimal and time/date
// scaling, per spec.md §4.4 ("configured rounding mode (default DOWN)").
type RoundingMode int

const (
	RoundDown RoundingMode = iota
	RoundHalfUp
	RoundCeiling
	RoundFloor
)

// Value is the tagged variant covering every column value that can flow
// through the pipeline.
type Value struct {
	Kind ValueKind

	boolV  bool
	intV   int64
	width  int  // 1,2,4,8 bytes for KindIntegral; 0 otherwise
	signed bool // KindIntegral signedness

	floatV  float64
	isFloat32 bool

	decV   *big.Rat
	scale  int
	prec   int

	strV string
	binV []byte

	timeV time.Time
	zoned bool // KindTimestamp/KindTime carries a zone offset

	jsonV []byte
}

func NullValue() Value                    { return Value{Kind: KindNull} }
func BoolValue(b bool) Value              { return Value{Kind: KindBool, boolV: b} }
func StringValue(s string) Value          { return Value{Kind: KindString, strV: s} }
func BinaryValue(b []byte) Value          { return Value{Kind: KindBinary, binV: b} }
func JSONValue(raw []byte) Value          { return Value{Kind: KindJSON, jsonV: raw} }

// IntegralValue builds a signed/unsigned integer of the given byte
// width (1, 2, 4 or 8), mirroring java.sql's TINYINT..BIGINT ladder.
func IntegralValue(v int64, width int, signed bool) Value {
	return Value{Kind: KindIntegral, intV: v, width: width, signed: signed}
}

func FloatValue(v float64, isFloat32 bool) Value {
	return Value{Kind: KindFloat, floatV: v, isFloat32: isFloat32}
}

func DecimalValue(r *big.Rat, precision, scale int) Value {
	return Value{Kind: KindDecimal, decV: r, prec: precision, scale: scale}
}

func DateValue(t time.Time) Value { return Value{Kind: KindDate, timeV: t} }

func TimeValue(t time.Time, scale int) Value {
	return Value{Kind: KindTime, timeV: t, scale: scale}
}

func TimestampValue(t time.Time, scale int, zoned bool) Value {
	return Value{Kind: KindTimestamp, timeV: t, scale: scale, zoned: zoned}
}

func (v Value) IsNull() bool { return v.Kind == KindNull }

func (v Value) AsBool() (bool, bool) {
	switch v.Kind {
	case KindBool:
		return v.boolV, true
	case KindIntegral:
		return v.intV != 0, true
	case KindString:
		b, err := strconv.ParseBool(v.strV)
		return b, err == nil
	default:
		return false, false
	}
}

// widen returns the value as an int64 for every integral-like kind.
func (v Value) widen() (int64, bool) {
	switch v.Kind {
	case KindIntegral:
		return v.intV, true
	case KindBool:
		if v.boolV {
			return 1, true
		}
		return 0, true
	case KindFloat:
		return int64(v.floatV), true
	case KindDecimal:
		if v.decV == nil {
			return 0, false
		}
		f, _ := v.decV.Float64()
		return int64(f), true
	case KindString:
		n, err := strconv.ParseInt(v.strV, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func (v Value) AsByte() (int8, bool) {
	n, ok := v.widen()
	return int8(n), ok
}

func (v Value) AsShort() (int16, bool) {
	n, ok := v.widen()
	return int16(n), ok
}

func (v Value) AsInt() (int32, bool) {
	n, ok := v.widen()
	return int32(n), ok
}

func (v Value) AsLong() (int64, bool) {
	return v.widen()
}

func (v Value) AsBigInt() (*big.Int, bool) {
	switch v.Kind {
	case KindDecimal:
		if v.decV == nil || !v.decV.IsInt() {
			return nil, false
		}
		return new(big.Int).Set(v.decV.Num()), true
	default:
		n, ok := v.widen()
		if !ok {
			return nil, false
		}
		return big.NewInt(n), true
	}
}

func (v Value) AsFloat() (float32, bool) {
	d, ok := v.AsDouble()
	return float32(d), ok
}

func (v Value) AsDouble() (float64, bool) {
	switch v.Kind {
	case KindFloat:
		return v.floatV, true
	case KindDecimal:
		if v.decV == nil {
			return 0, false
		}
		f, _ := v.decV.Float64()
		return f, true
	case KindString:
		f, err := strconv.ParseFloat(v.strV, 64)
		return f, err == nil
	default:
		n, ok := v.widen()
		return float64(n), ok
	}
}

// AsBigDecimal converts to a big.Rat rounded/truncated to scale digits
// after the decimal point using mode (default RoundDown per spec.md
// §4.4).
func (v Value) AsBigDecimal(scale int, mode RoundingMode) (*big.Rat, bool) {
	var r *big.Rat
	switch v.Kind {
	case KindDecimal:
		if v.decV == nil {
			return nil, false
		}
		r = new(big.Rat).Set(v.decV)
	case KindFloat:
		r = new(big.Rat).SetFloat64(v.floatV)
		if r == nil {
			return nil, false
		}
	case KindString:
		rr, ok := new(big.Rat).SetString(v.strV)
		if !ok {
			return nil, false
		}
		r = rr
	default:
		n, ok := v.widen()
		if !ok {
			return nil, false
		}
		r = new(big.Rat).SetInt64(n)
	}
	return applyScale(r, scale, mode), true
}

func applyScale(r *big.Rat, scale int, mode RoundingMode) *big.Rat {
	if scale < 0 {
		return r
	}
	factor := new(big.Rat).SetInt(pow10(scale))
	scaled := new(big.Rat).Mul(r, factor)
	num := new(big.Int)
	switch mode {
	case RoundHalfUp:
		half := big.NewRat(1, 2)
		if scaled.Sign() >= 0 {
			scaled.Add(scaled, half)
		} else {
			scaled.Sub(scaled, half)
		}
		num = new(big.Int).Quo(scaled.Num(), scaled.Denom())
	case RoundCeiling:
		num = new(big.Int).Quo(scaled.Num(), scaled.Denom())
		if !scaled.IsInt() && scaled.Sign() > 0 {
			num.Add(num, big.NewInt(1))
		}
	case RoundFloor:
		num = new(big.Int).Quo(scaled.Num(), scaled.Denom())
		if !scaled.IsInt() && scaled.Sign() < 0 {
			num.Sub(num, big.NewInt(1))
		}
	default: // RoundDown: truncate toward zero
		num = new(big.Int).Quo(scaled.Num(), scaled.Denom())
	}
	return new(big.Rat).SetFrac(num, pow10(scale))
}

func pow10(n int) *big.Int {
	if n <= 0 {
		return big.NewInt(1)
	}
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

func (v Value) AsString() (string, bool) {
	switch v.Kind {
	case KindNull:
		return "", false
	case KindString:
		return v.strV, true
	case KindBool:
		return strconv.FormatBool(v.boolV), true
	case KindIntegral:
		return strconv.FormatInt(v.intV, 10), true
	case KindFloat:
		if v.isFloat32 {
			return strconv.FormatFloat(v.floatV, 'g', -1, 32), true
		}
		return strconv.FormatFloat(v.floatV, 'g', -1, 64), true
	case KindDecimal:
		if v.decV == nil {
			return "", false
		}
		return v.decV.FloatString(v.scale), true
	case KindBinary:
		return string(v.binV), true
	case KindDate:
		return v.timeV.Format("2006-01-02"), true
	case KindTime:
		return formatTime(v.timeV, v.scale), true
	case KindTimestamp:
		return formatTimestamp(v.timeV, v.scale, v.zoned), true
	case KindJSON:
		return string(v.jsonV), true
	default:
		return "", false
	}
}

func formatTime(t time.Time, scale int) string {
	layout := "15:04:05"
	if scale > 0 {
		layout += "." + repeatDigitPattern(scale)
	}
	return t.Format(layout)
}

func formatTimestamp(t time.Time, scale int, zoned bool) string {
	layout := "2006-01-02T15:04:05"
	if scale > 0 {
		layout += "." + repeatDigitPattern(scale)
	}
	if zoned {
		layout += "Z07:00"
	}
	return t.Format(layout)
}

func repeatDigitPattern(n int) string {
	if n > 9 {
		n = 9
	}
	digits := "000000000"
	return digits[:n]
}

func (v Value) AsBinary() ([]byte, bool) {
	switch v.Kind {
	case KindBinary:
		return v.binV, true
	case KindString:
		return []byte(v.strV), true
	default:
		return nil, false
	}
}

func (v Value) AsDate() (time.Time, bool) {
	switch v.Kind {
	case KindDate, KindTimestamp:
		return v.timeV, true
	default:
		return time.Time{}, false
	}
}

func (v Value) AsTime() (time.Time, bool) {
	switch v.Kind {
	case KindTime, KindTimestamp:
		return v.timeV, true
	default:
		return time.Time{}, false
	}
}

func (v Value) AsInstant() (time.Time, bool) {
	switch v.Kind {
	case KindTimestamp, KindDate, KindTime:
		return v.timeV, true
	default:
		return time.Time{}, false
	}
}

func (v Value) AsJSON() ([]byte, bool) {
	switch v.Kind {
	case KindJSON:
		return v.jsonV, true
	case KindString:
		return []byte(v.strV), true
	case KindNull:
		return []byte("null"), true
	default:
		s, ok := v.AsString()
		if !ok {
			return nil, false
		}
		b, err := json.Marshal(s)
		return b, err == nil
	}
}

func (v Value) String() string {
	s, ok := v.AsString()
	if !ok {
		return fmt.Sprintf("<%s>", v.Kind)
	}
	return s
}
