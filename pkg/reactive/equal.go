package reactive

import (
	"reflect"
)

// Identical reports whether a and b are the same value under strict
// identity: == for comparable values, reference identity for slices, maps,
// channels and pointers. Functions are never identical unless both are nil,
// and values of non-comparable struct or array types always compare as
// changed.
func Identical[T any](a, b T) bool {
	switch av := any(a).(type) {
	case int:
		bv, ok := any(b).(int)
		return ok && av == bv
	case int64:
		bv, ok := any(b).(int64)
		return ok && av == bv
	case float64:
		bv, ok := any(b).(float64)
		return ok && av == bv
	case string:
		bv, ok := any(b).(string)
		return ok && av == bv
	case bool:
		bv, ok := any(b).(bool)
		return ok && av == bv
	}

	va := reflect.ValueOf(&a).Elem()
	vb := reflect.ValueOf(&b).Elem()
	if va.Kind() == reflect.Interface {
		va, vb = va.Elem(), vb.Elem()
		if !va.IsValid() || !vb.IsValid() {
			return va.IsValid() == vb.IsValid()
		}
		if va.Type() != vb.Type() {
			return false
		}
	}

	switch va.Kind() {
	case reflect.Slice:
		return va.Len() == vb.Len() && va.UnsafePointer() == vb.UnsafePointer()
	case reflect.Map, reflect.Chan, reflect.Pointer, reflect.UnsafePointer:
		return va.UnsafePointer() == vb.UnsafePointer()
	case reflect.Func:
		return va.IsNil() && vb.IsNil()
	}
	if va.Comparable() && vb.Comparable() {
		return va.Equal(vb)
	}
	return false
}

// DeepEqual is a structural equality for use with WithEquals.
func DeepEqual[T any](a, b T) bool {
	return reflect.DeepEqual(a, b)
}
