package component

import (
	"fmt"
	"reflect"
	"strings"
)

// BaseFuncs returns the helper functions available inside component source
// templates. The blocks package installs the same set (plus its own
// additions) so authors can move markup between the two engines without
// rewriting helper calls.
func BaseFuncs() map[string]any {
	return map[string]any{
		"add":    add,
		"sub":    sub,
		"mult":   mult,
		"div":    div,
		"mod":    mod,
		"inc":    inc,
		"dec":    dec,
		"isSet":  isSet,
		"repeat": repeat,
		"list":   list,
		"dict":   dict,
		"join":   join,
		"upper":  strings.ToUpper,
		"lower":  strings.ToLower,
	}
}

// add returns a + b.
func add(a, b int) int {
	return a + b
}

// sub returns a - b.
func sub(a, b int) int {
	return a - b
}

// mult returns a * b.
func mult(a, b int) int {
	return a * b
}

// div returns a / b (integer division). Returns 0 if b is 0.
func div(a, b int) int {
	if b == 0 {
		return 0
	}
	return a / b
}

// mod returns a % b. Returns 0 if b is 0.
func mod(a, b int) int {
	if b == 0 {
		return 0
	}
	return a % b
}

// inc returns i + 1.
func inc(i int) int {
	return i + 1
}

// dec returns i - 1.
func dec(i int) int {
	return i - 1
}

// isSet returns true if a value is not its zero value.
func isSet(val any) bool {
	v := reflect.ValueOf(val)
	if !v.IsValid() {
		return false
	}
	return !v.IsZero()
}

// repeat returns a slice of integers from 0 to count-1.
func repeat(count int) []int {
	if count < 0 {
		return []int{}
	}
	s := make([]int, count)
	for i := 0; i < count; i++ {
		s[i] = i
	}
	return s
}

// list returns a slice containing all the arguments passed to it.
func list(args ...any) []any {
	return args
}

// dict builds a map from alternating key/value arguments.
func dict(pairs ...any) (map[string]any, error) {
	return Pairs(pairs)
}

// join concatenates the string form of every element with the separator.
func join(sep string, items []any) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = fmt.Sprint(item)
	}
	return strings.Join(parts, sep)
}
