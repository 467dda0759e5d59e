// Package bind decodes and validates JSON request bodies
package bind

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	perr "shelfscan/internal/platform/errors"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// DefaultMaxBytes caps a body when no MaxBytes option is given
const DefaultMaxBytes = 1 << 20

type options struct {
	maxBytes     int64
	allowUnknown bool
	allowEmpty   bool
}

// Option tunes ParseJSON
type Option func(*options)

// MaxBytes caps the body; n <= 0 disables the cap
func MaxBytes(n int64) Option { return func(o *options) { o.maxBytes = n } }

// AllowUnknown accepts fields T does not declare
func AllowUnknown() Option { return func(o *options) { o.allowUnknown = true } }

// AllowEmpty returns the zero T for an empty body instead of an error
func AllowEmpty() Option { return func(o *options) { o.allowEmpty = true } }

// ParseJSON decodes exactly one JSON value into T and validates struct tags
// body problems carry ErrorCodeJSON, tag failures ErrorCodeValidation with the json field name
func ParseJSON[T any](r *http.Request, opts ...Option) (T, error) {
	var out T
	o := options{maxBytes: DefaultMaxBytes}
	for _, opt := range opts {
		opt(&o)
	}

	body, err := readBody(r, o.maxBytes)
	if err != nil {
		return out, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		if o.allowEmpty || bodyless(r.Method) {
			return out, nil
		}
		return out, perr.JSONErrf("empty body")
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	if !o.allowUnknown {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(&out); err != nil {
		return out, perr.JSONErrf("invalid JSON: %v", err)
	}
	if dec.More() {
		var zero T
		return zero, perr.JSONErrf("unexpected trailing data")
	}

	if err := Validate(out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func bodyless(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodDelete, http.MethodOptions:
		return true
	}
	return false
}

func readBody(r *http.Request, limit int64) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	defer r.Body.Close()

	src := io.Reader(r.Body)
	if limit > 0 {
		src = io.LimitReader(r.Body, limit+1)
	}
	body, err := io.ReadAll(src)
	if err != nil {
		return nil, perr.JSONErrf("read body: %v", err)
	}
	if limit > 0 && int64(len(body)) > limit {
		return nil, perr.JSONErrf("body exceeds %d bytes", limit)
	}
	return body, nil
}

// Validate runs struct tag validation on v; non struct values pass
func Validate(v any) error {
	rv := reflect.Indirect(reflect.ValueOf(v))
	if rv.Kind() != reflect.Struct {
		return nil
	}
	vd := validation()
	err := vd.v.Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return perr.Wrap(err, perr.ErrorCodeValidation, "validation error")
	}
	fe := verrs[0]
	return perr.WithField(perr.New(perr.ErrorCodeValidation, fe.Translate(vd.trans)), fe.Field())
}

type validatorSet struct {
	v     *validator.Validate
	trans ut.Translator
}

// messages override the stock english text for these tags
var messages = map[string]string{
	"min":       "{0} must be at least {1}",
	"max":       "{0} must be at most {1}",
	"symbology": "{0} must be a symbology name like ean13",
}

var validation = sync.OnceValue(func() validatorSet {
	loc := en.New()
	trans, _ := ut.New(loc, loc).GetTranslator("en")

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	_ = v.RegisterValidation("symbology", symbology)
	_ = en_translations.RegisterDefaultTranslations(v, trans)

	for tag, text := range messages {
		_ = v.RegisterTranslation(tag, trans,
			func(t ut.Translator) error { return t.Add(tag, text, true) },
			func(t ut.Translator, fe validator.FieldError) string {
				msg, _ := t.T(fe.Tag(), fe.Field(), fe.Param())
				return msg
			},
		)
	}
	return validatorSet{v: v, trans: trans}
})

// jsonName reports fields by their wire name
func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}

// symbology accepts loose kind names such as "ean13" or "org.gs1.UPC-A"
// mapping onto a known kind happens downstream
func symbology(fl validator.FieldLevel) bool {
	return strings.IndexFunc(fl.Field().String(), func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return false
		case strings.ContainsRune("-_. ", r):
			return false
		}
		return true
	}) < 0
}
