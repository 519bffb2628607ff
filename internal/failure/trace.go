package failure

import (
	"encoding/json"
	"fmt"
	"go/token"
	"reflect"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/datatypes"
)

// NoErrorObject is stored as the trace when nothing was supplied.
const NoErrorObject = "No error object provided"

// ErrorTrace is the structured trace stored for error values.
type ErrorTrace struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Stack   string `json:"stack"`
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// NormalizeTrace converts v into the JSON stored in FailureLog.Trace:
//
//   - error: {"name","message","stack"}
//   - non-empty string: the string itself
//   - nil, typed nil, empty string: NoErrorObject
//   - anything else: its indented JSON text, or its type and the marshal
//     error when it cannot be encoded (cyclic values, channels, funcs)
//
// The result is never empty.
func NormalizeTrace(v any) datatypes.JSON {
	if isNil(v) {
		return jsonString(NoErrorObject)
	}
	switch x := v.(type) {
	case error:
		b, err := json.Marshal(TraceOf(x))
		if err != nil {
			return jsonString(x.Error())
		}
		return datatypes.JSON(b)
	case string:
		if x == "" {
			return jsonString(NoErrorObject)
		}
		return jsonString(x)
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil || len(b) == 0 {
		return jsonString(unencodable(v, err))
	}
	return jsonString(string(b))
}

// Describe renders a panic or rejection value as one line of text. Unlike
// the fmt verbs it never walks into the value, so cyclic values are safe.
func Describe(v any) string {
	if isNil(v) {
		return "<nil>"
	}
	switch x := v.(type) {
	case string:
		return x
	case error:
		return x.Error()
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.String:
		return fmt.Sprint(v)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return unencodable(v, err)
	}
	return string(b)
}

func unencodable(v any, err error) string {
	if err == nil {
		return fmt.Sprintf("%T", v)
	}
	return fmt.Sprintf("%T: %v", v, err)
}

// TraceOf builds the structured trace for err. The stack is taken from the
// outermost error in the chain that recorded one.
func TraceOf(err error) ErrorTrace {
	return ErrorTrace{
		Name:    errorName(err),
		Message: err.Error(),
		Stack:   StackOf(err),
	}
}

// StackOf renders the first stack found in err's chain, or "" if none.
func StackOf(err error) string {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if st, ok := e.(stackTracer); ok && len(st.StackTrace()) > 0 {
			return strings.TrimPrefix(fmt.Sprintf("%+v", st.StackTrace()), "\n")
		}
	}
	return ""
}

func errorName(err error) string {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if n, ok := e.(interface{ Name() string }); ok {
			return n.Name()
		}
	}
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if token.IsExported(t.Name()) {
		return t.Name()
	}
	return "Error"
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func jsonString(s string) datatypes.JSON {
	b, _ := json.Marshal(s)
	return datatypes.JSON(b)
}
