package tempo

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ErrTargetUnavailable reports a caller target that resolves to nothing yet,
// such as a Ref whose object has not been created. The bridge treats it as a
// reason to retry on the next frame, never as a fault.
var ErrTargetUnavailable = errors.New("tempo: target unavailable")

// Target is a record of named numeric fields that an Animation mutates in
// place.
type Target interface {
	Get(name string) (float64, bool)
	Set(name string, v float64)
}

// Resolver is implemented by holders whose target may not exist yet.
type Resolver interface {
	Resolve() (Target, bool)
}

// Fields is the simplest object-shaped Target: a map of property name to
// value. Set adds missing keys.
type Fields map[string]float64

// Get returns the named value.
func (f Fields) Get(name string) (float64, bool) {
	v, ok := f[name]
	return v, ok
}

// Set writes the named value.
func (f Fields) Set(name string, v float64) {
	f[name] = v
}

// Ref holds a value that is filled in after the first render, typically a
// pointer to an object owned by the renderer. A Ref whose Current is the zero
// value (or a nil pointer) does not resolve.
type Ref[T any] struct {
	Current T
}

// Resolve converts Current to a Target.
func (r *Ref[T]) Resolve() (Target, bool) {
	if r == nil {
		return nil, false
	}
	return AsTarget(any(r.Current))
}

// AsTarget normalizes v to a Target. It accepts Targets, Resolvers,
// map[string]float64 values and pointers to structs. Nil values of any of
// those kinds report false.
func AsTarget(v any) (Target, bool) {
	if isNil(v) {
		return nil, false
	}
	switch t := v.(type) {
	case Resolver:
		return t.Resolve()
	case Target:
		return t, true
	case map[string]float64:
		return Fields(t), true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.Elem().Kind() == reflect.Struct {
		return Reflect(v), true
	}
	return nil, false
}

// ComposeTargets builds the ordered target list of one animation: the mirror
// first when present, then the caller targets. callers may be nil, a single
// target (anything AsTarget accepts), a []Target or a []any. Any caller entry
// that does not resolve fails the whole composition with ErrTargetUnavailable.
//
// The result depends only on the identities of mirror and callers; callers
// that rebuild their slice on every render defeat memoization upstream.
func ComposeTargets(mirror Target, callers any) ([]Target, error) {
	list := make([]Target, 0, 4)
	if !isNil(mirror) {
		list = append(list, mirror)
	}
	switch c := callers.(type) {
	case nil:
	case []Target:
		for i, v := range c {
			t, ok := AsTarget(v)
			if !ok {
				return nil, fmt.Errorf("target %d: %w", i, ErrTargetUnavailable)
			}
			list = append(list, t)
		}
	case []any:
		for i, v := range c {
			t, ok := AsTarget(v)
			if !ok {
				return nil, fmt.Errorf("target %d: %w", i, ErrTargetUnavailable)
			}
			list = append(list, t)
		}
	default:
		t, ok := AsTarget(c)
		if !ok {
			return nil, fmt.Errorf("target %T: %w", callers, ErrTargetUnavailable)
		}
		list = append(list, t)
	}
	return list, nil
}

// structTarget animates the exported numeric fields of a struct through a
// pointer. Property names match field names case-insensitively.
type structTarget struct {
	v     reflect.Value
	index map[string]int
}

// Reflect wraps a pointer to a struct as a Target. It panics if ptr is not a
// non-nil struct pointer.
func Reflect(ptr any) Target {
	rv := reflect.ValueOf(ptr)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		panic(fmt.Sprintf("tempo: Reflect needs a non-nil struct pointer, got %T", ptr))
	}
	elem := rv.Elem()
	return &structTarget{v: elem, index: fieldIndex(elem.Type())}
}

func (s *structTarget) Get(name string) (float64, bool) {
	i, ok := s.index[strings.ToLower(name)]
	if !ok {
		return 0, false
	}
	return numberOf(s.v.Field(i))
}

func (s *structTarget) Set(name string, v float64) {
	i, ok := s.index[strings.ToLower(name)]
	if !ok {
		return
	}
	setNumber(s.v.Field(i), v)
}

// scalarTarget animates a single boxed number. Every property name refers to
// the same value.
type scalarTarget struct {
	v reflect.Value
}

func (s scalarTarget) Get(string) (float64, bool) { return numberOf(s.v) }
func (s scalarTarget) Set(_ string, v float64)    { setNumber(s.v, v) }

var fieldIndexCache = map[reflect.Type]map[string]int{}

func fieldIndex(t reflect.Type) map[string]int {
	if idx, ok := fieldIndexCache[t]; ok {
		return idx
	}
	idx := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || !isNumberKind(f.Type.Kind()) {
			continue
		}
		idx[strings.ToLower(f.Name)] = i
	}
	fieldIndexCache[t] = idx
	return idx
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Float32, reflect.Float64,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func numberOf(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	}
	return 0, false
}

// setNumber stores f into v. Integer fields truncate toward zero.
func setNumber(v reflect.Value, f float64) {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		v.SetFloat(f)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v.SetInt(int64(f))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if f < 0 {
			f = 0
		}
		v.SetUint(uint64(f))
	}
}

// isNil reports whether v is a nil interface or holds a nil pointer, map,
// slice, func or chan.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// same reports whether a and b are the same value for memoization and
// propagation purposes: identity for reference kinds, == for comparable
// values. Non-comparable values are never the same.
func same(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Map, reflect.Pointer, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}
	if va.Comparable() && vb.Comparable() {
		return a == b
	}
	return false
}
