// Package sizeof estimates the in-memory footprint of cache values for
// capacity accounting. The estimates are deliberately coarse; they exist to
// rank and bound entries, not to measure allocator behavior.
package sizeof

import (
	"reflect"
	"unicode/utf16"
)

// Fixed costs, in bytes.
const (
	boolCost      = 1
	numericCost   = 8
	containerCost = 24 // per slice/array/map/struct, before elements
	unknownCost   = 100
)

// Fraction of the configured maximum that a single entry may occupy.
const maxSingleEntryFraction = 0.10

/*
Estimate returns the approximate footprint of v in bytes.

It is a pure function: no side effects, same input same output.

Costs:
  - nil            → 0
  - bool           → 1
  - any numeric    → 8
  - string         → 2 bytes per UTF-16 code unit
  - slice/array    → 24 + sum of elements
  - map            → 24 + sum of keys and values
  - struct/pointer → 24 + sum of exported fields / pointee
  - anything else  → 100
*/
func Estimate(v any) int64 {
	if v == nil {
		return 0
	}

	switch x := v.(type) {
	case bool:
		return boolCost
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, uintptr,
		float32, float64:
		return numericCost
	case string:
		return stringCost(x)
	case []byte:
		return containerCost + int64(len(x))
	}

	return estimateReflect(reflect.ValueOf(v))
}

func stringCost(s string) int64 {
	// 2 bytes per UTF-16 code unit; runes above the BMP count twice.
	return 2 * int64(len(utf16.Encode([]rune(s))))
}

func estimateReflect(rv reflect.Value) int64 {
	switch rv.Kind() {
	case reflect.Bool:
		return boolCost
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return numericCost
	case reflect.String:
		return stringCost(rv.String())
	case reflect.Slice, reflect.Array:
		size := int64(containerCost)
		for i := 0; i < rv.Len(); i++ {
			size += estimateReflect(rv.Index(i))
		}
		return size
	case reflect.Map:
		size := int64(containerCost)
		iter := rv.MapRange()
		for iter.Next() {
			size += estimateReflect(iter.Key())
			size += estimateReflect(iter.Value())
		}
		return size
	case reflect.Struct:
		size := int64(containerCost)
		for i := 0; i < rv.NumField(); i++ {
			if !rv.Type().Field(i).IsExported() {
				continue
			}
			size += estimateReflect(rv.Field(i))
		}
		return size
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return 0
		}
		return containerCost + estimateReflect(rv.Elem())
	default:
		return unknownCost
	}
}

/*
IsReasonableSize reports whether an entry of the given size may be stored in
a cache capped at maxSizeMB megabytes.

It fails when:
  - size is zero or negative (estimation went wrong)
  - size exceeds the configured maximum outright
  - size exceeds 10% of the maximum: one entry must not monopolize the cache
*/
func IsReasonableSize(sizeBytes int64, maxSizeMB int) bool {
	if sizeBytes <= 0 {
		return false
	}
	maxBytes := int64(maxSizeMB) * 1024 * 1024
	if sizeBytes > maxBytes {
		return false
	}
	return float64(sizeBytes) <= float64(maxBytes)*maxSingleEntryFraction
}
