package repo

import (
	"bytes"
	"errors"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tbourn/go-failurelog-api/internal/domain"
)

// violationMessages maps "<Struct>.<Field>.<tag>" to the client-facing text.
var violationMessages = map[string]string{
	"FailureLog.Message.required": "Error message is required",
	"FailureLog.Message.max":      "Message cannot exceed 1000 characters",
	"FailureLog.Origin.required":  "Origin is required",
	"FailureLog.Origin.oneof":     "Origin must be either FE, BE, or OTHER",
	"FailureLog.Trace.required":   "Stack trace is required",
	"FailureLog.Path.required":    "Path is required",
	"FailureLog.Type.required":    "Error type is required",
	"FailureLog.Type.oneof":       "Type must be critical, normal, warning, or info",

	"Product.Name.required":        "Product name is required",
	"Product.Name.max":             "Product name cannot exceed 200 characters",
	"Product.Category.required":    "Product category is required",
	"Product.Category.max":         "Category cannot exceed 100 characters",
	"Product.Price.required":       "Product price is required",
	"Product.Price.min":            "Price cannot be negative",
	"Product.Description.required": "Product description is required",
	"Product.Description.max":      "Description cannot exceed 2000 characters",
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		v.RegisterStructValidation(failureLogStructLevel, domain.FailureLog{})
		v.RegisterStructValidation(productStructLevel, domain.Product{})
		validate = v
	})
	return validate
}

func failureLogStructLevel(sl validator.StructLevel) {
	fl := sl.Current().Interface().(domain.FailureLog)
	t := bytes.TrimSpace(fl.Trace)
	if len(t) == 0 || bytes.Equal(t, []byte("null")) || bytes.Equal(t, []byte(`""`)) {
		sl.ReportError(fl.Trace, "trace", "Trace", "required", "")
	}
}

func productStructLevel(sl validator.StructLevel) {
	p := sl.Current().Interface().(domain.Product)
	switch {
	case !p.Price.Valid:
		sl.ReportError(p.Price, "price", "Price", "required", "")
	case p.Price.Decimal.IsNegative():
		sl.ReportError(p.Price, "price", "Price", "min", "0")
	}
}

// validateModel runs schema validation and returns a KindValidation
// StoreError listing every violation in field declaration order.
func validateModel(op string, model any) error {
	err := getValidator().Struct(model)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return &StoreError{Kind: KindOther, Op: op, Err: err}
	}

	typ := reflect.Indirect(reflect.ValueOf(model)).Type()
	type ranked struct {
		pos int
		v   FieldViolation
	}
	out := make([]ranked, 0, len(ves))
	for _, fe := range ves {
		ns := fe.StructNamespace()
		if i := strings.IndexByte(ns, '.'); i >= 0 {
			ns = ns[i+1:]
		}
		key := typ.Name() + "." + ns + "." + fe.Tag()
		msg, ok := violationMessages[key]
		if !ok {
			msg = fe.Field() + " is invalid"
		}
		pos := len(out) + typ.NumField()
		if sf, ok := typ.FieldByName(fe.StructField()); ok {
			pos = sf.Index[0]
		}
		out = append(out, ranked{pos: pos, v: FieldViolation{Field: fe.Field(), Message: msg}})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].pos < out[j].pos })

	fields := make([]FieldViolation, len(out))
	for i, r := range out {
		fields[i] = r.v
	}
	return &StoreError{Kind: KindValidation, Op: op, Fields: fields, Err: err}
}
