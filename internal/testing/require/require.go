// Package require provides a minimal, dependency-free subset of the
// testify/require API used throughout this module's test suites.
package require

import (
	"errors"
	"fmt"
	"reflect"
)

// TestingT is satisfied by *testing.T and by any stand-in used in this
// package's own tests.
type TestingT interface {
	Fatal(args ...interface{})
}

func fail(t TestingT, msg, _ string, formatWithArgs ...interface{}) {
	if len(formatWithArgs) == 0 {
		t.Fatal(msg)
		return
	}
	format, ok := formatWithArgs[0].(string)
	if ok && len(formatWithArgs) > 1 {
		t.Fatal(msg + ": " + fmt.Sprintf(format, formatWithArgs[1:]...))
		return
	}
	var parts []interface{}
	for _, a := range formatWithArgs {
		parts = append(parts, a)
	}
	t.Fatal(msg + ": " + trimArgs(parts...))
}

func trimArgs(args ...interface{}) string {
	s := fmt.Sprintln(args...)
	if len(s) > 0 && s[len(s)-1] == '\n' {
		s = s[:len(s)-1]
	}
	return s
}

// CapturePanic runs fn and converts a panic, if any, into an error.
func CapturePanic(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = fmt.Errorf("%v", r)
			}
		}
	}()
	fn()
	return
}

// Equal fails unless expected and actual are deeply equal.
func Equal(t TestingT, expected, actual interface{}, formatWithArgs ...interface{}) {
	if !objectsAreEqual(expected, actual) {
		fail(t, fmt.Sprintf("expected %#v, actual %#v", expected, actual), "", formatWithArgs...)
	}
}

// NotEqual fails if expected and actual are deeply equal.
func NotEqual(t TestingT, expected, actual interface{}, formatWithArgs ...interface{}) {
	if objectsAreEqual(expected, actual) {
		fail(t, fmt.Sprintf("expected values to differ, both are %#v", actual), "", formatWithArgs...)
	}
}

// True fails unless value is true.
func True(t TestingT, value bool, formatWithArgs ...interface{}) {
	if !value {
		fail(t, "expected true", "", formatWithArgs...)
	}
}

// False fails unless value is false.
func False(t TestingT, value bool, formatWithArgs ...interface{}) {
	if value {
		fail(t, "expected false", "", formatWithArgs...)
	}
}

// Nil fails unless object is nil.
func Nil(t TestingT, object interface{}, formatWithArgs ...interface{}) {
	if !isNil(object) {
		fail(t, fmt.Sprintf("expected nil, actual %#v", object), "", formatWithArgs...)
	}
}

// NotNil fails if object is nil.
func NotNil(t TestingT, object interface{}, formatWithArgs ...interface{}) {
	if isNil(object) {
		fail(t, "expected non-nil value", "", formatWithArgs...)
	}
}

// Zero fails unless value is the zero value for its type.
func Zero(t TestingT, value interface{}, formatWithArgs ...interface{}) {
	if !isNil(value) && !reflect.DeepEqual(value, reflect.Zero(reflect.TypeOf(value)).Interface()) {
		fail(t, fmt.Sprintf("expected zero value, actual %#v", value), "", formatWithArgs...)
	}
}

// NoError fails unless err is nil.
func NoError(t TestingT, err error, formatWithArgs ...interface{}) {
	if err != nil {
		fail(t, fmt.Sprintf("unexpected error: %v", err), "", formatWithArgs...)
	}
}

// Error fails unless err is non-nil.
func Error(t TestingT, err error, formatWithArgs ...interface{}) {
	if err == nil {
		fail(t, "expected an error", "", formatWithArgs...)
	}
}

// EqualError fails unless err is non-nil and its message equals msg.
func EqualError(t TestingT, err error, msg string, formatWithArgs ...interface{}) {
	if err == nil {
		fail(t, fmt.Sprintf("expected error %q, got none", msg), "", formatWithArgs...)
		return
	}
	if err.Error() != msg {
		fail(t, fmt.Sprintf("expected error %q, actual %q", msg, err.Error()), "", formatWithArgs...)
	}
}

// ErrorIs fails unless errors.Is(err, target).
func ErrorIs(t TestingT, err, target error, formatWithArgs ...interface{}) {
	if !errors.Is(err, target) {
		fail(t, fmt.Sprintf("expected error chain to contain %v, actual %v", target, err), "", formatWithArgs...)
	}
}

// Contains fails unless s contains substr (strings) or elem is present in a
// slice/array/map (anything else).
func Contains(t TestingT, s, elem interface{}, formatWithArgs ...interface{}) {
	if str, ok := s.(string); ok {
		sub, ok2 := elem.(string)
		if ok2 && contains(str, sub) {
			return
		}
		fail(t, fmt.Sprintf("expected %q to contain %v", str, elem), "", formatWithArgs...)
		return
	}
	v := reflect.ValueOf(s)
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if objectsAreEqual(v.Index(i).Interface(), elem) {
				return
			}
		}
	case reflect.Map:
		for _, k := range v.MapKeys() {
			if objectsAreEqual(v.MapIndex(k).Interface(), elem) {
				return
			}
		}
	}
	fail(t, fmt.Sprintf("expected %#v to contain %#v", s, elem), "", formatWithArgs...)
}

func contains(s, substr string) bool {
	return len(substr) == 0 || (len(s) >= len(substr) && indexOf(s, substr) >= 0)
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}

func objectsAreEqual(expected, actual interface{}) bool {
	if expected == nil || actual == nil {
		return expected == actual
	}
	if exp, ok := expected.([]byte); ok {
		act, ok := actual.([]byte)
		if !ok {
			return false
		}
		return reflect.DeepEqual(exp, act)
	}
	return reflect.DeepEqual(expected, actual)
}

func isNil(object interface{}) bool {
	if object == nil {
		return true
	}
	v := reflect.ValueOf(object)
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice:
		return v.IsNil()
	default:
		return false
	}
}
