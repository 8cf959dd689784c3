package config

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// tagName keys struct fields in parameter files
const tagName = "param"

// Decode assigns entries to the tagged fields of the struct pointed to by v.
// Fields without a tag are matched by name. Keys with no matching field are
// returned, in file order, for the caller to report.
func Decode(entries []Entry, v any) (unknown []string, err error) {
	val := reflect.ValueOf(v)
	if val.Kind() != reflect.Ptr || val.IsNil() || val.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("target must be a non-nil pointer to struct")
	}
	val = val.Elem()
	fields := fieldIndex(val.Type())

	for _, e := range entries {
		idx, ok := fields[e.Key]
		if !ok {
			unknown = append(unknown, e.Key)
			continue
		}
		if err := decodeScalar(e.Value, val.Field(idx)); err != nil {
			return unknown, fmt.Errorf("line %d: %s: %w", e.Line, e.Key, err)
		}
	}
	return unknown, nil
}

func fieldIndex(typ reflect.Type) map[string]int {
	fields := make(map[string]int, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if !f.IsExported() {
			continue
		}
		key := f.Name
		if tag := f.Tag.Get(tagName); tag != "" {
			parts := strings.Split(tag, ",")
			if parts[0] == "-" {
				continue
			}
			key = parts[0]
		}
		fields[key] = i
	}
	return fields
}

func decodeScalar(s string, val reflect.Value) error {
	switch val.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(leadingNumber(s, false), 10, val.Type().Bits())
		if err != nil {
			return fmt.Errorf("cannot convert %q to int: %w", s, err)
		}
		val.SetInt(n)

	case reflect.Float32, reflect.Float64:
		num := leadingNumber(s, true)
		if num == "" {
			// inf and nan spellings
			num = s
		}
		f, err := strconv.ParseFloat(num, val.Type().Bits())
		if err != nil {
			return fmt.Errorf("cannot convert %q to float: %w", s, err)
		}
		val.SetFloat(f)

	case reflect.String:
		val.SetString(s)

	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("cannot convert %q to bool: %w", s, err)
		}
		val.SetBool(b)

	default:
		return fmt.Errorf("unsupported field kind %s", val.Kind())
	}
	return nil
}

// leadingNumber returns the numeric prefix of s, so "500 # cars" reads as 500.
// Integers take an optional sign and decimal digits; floats add a fraction and
// an exponent. An empty result means s does not start with a number.
func leadingNumber(s string, float bool) string {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	start := i
	i = skipDigits(s, i)
	digits := i > start
	if float {
		if i < len(s) && s[i] == '.' {
			j := skipDigits(s, i+1)
			digits = digits || j > i+1
			i = j
		}
		if digits && i < len(s) && (s[i] == 'e' || s[i] == 'E') {
			j := i + 1
			if j < len(s) && (s[j] == '+' || s[j] == '-') {
				j++
			}
			if k := skipDigits(s, j); k > j {
				i = k
			}
		}
	}
	if !digits {
		return ""
	}
	return s[:i]
}

func skipDigits(s string, i int) int {
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return i
}
