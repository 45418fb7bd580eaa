package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/jarvis/internal/apperr"
)

// Bind turns an untyped parameter bag into the spec's typed request.
//
// Every required parameter must be present and non-blank; the first missing
// one is reported by name. Parameters are then decoded into the request, which
// comes pre-populated with its defaults, and finally value rules are checked.
func Bind(spec Spec, params map[string]any) (Request, error) {
	for _, name := range spec.Required() {
		if missing(params[name]) {
			return nil, apperr.New(apperr.KindMissingParameter, "missing required parameter %q for %s", name, spec.ID)
		}
	}

	req := spec.New()
	if len(params) > 0 {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInvalidParameter, err, "invalid parameters for %s", spec.ID)
		}
		if err := json.Unmarshal(data, req); err != nil {
			return nil, invalidParam(spec.ID, err)
		}
	}

	if v, ok := req.(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, apperr.New(apperr.KindInvalidParameter, "invalid parameters for %s: %s", spec.ID, validationText(err))
		}
	}
	return req, nil
}

func missing(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	}
	return false
}

func invalidParam(action string, err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return apperr.New(apperr.KindInvalidParameter, "parameter %q for %s must be %s", typeErr.Field, action, typeErr.Type.String())
	}
	return apperr.Wrap(apperr.KindInvalidParameter, err, "invalid parameters for %s", action)
}

func validationText(err error) string {
	var errs validation.Errors
	if errors.As(err, &errs) {
		parts := make([]string, 0, len(errs))
		for field, fe := range errs {
			parts = append(parts, fmt.Sprintf("%s: %v", field, fe))
		}
		sort.Strings(parts)
		return strings.Join(parts, "; ")
	}
	return err.Error()
}

// Flag is a boolean that also accepts "true"/"false"/"si"/"no" strings and
// numbers, since interpreters are not strict about JSON types.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = Flag(b)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = n != 0
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("flag: unsupported value %s", data)
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "si", "sí", "y":
		*f = true
	case "false", "0", "no", "n", "":
		*f = false
	default:
		return fmt.Errorf("flag: unsupported value %q", s)
	}
	return nil
}

// Number is a float that also accepts numeric strings.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*n = Number(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("number: unsupported value %s", data)
	}
	if strings.TrimSpace(s) == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("number: %w", err)
	}
	*n = Number(f)
	return nil
}

// List is a string list that also accepts a single comma or whitespace
// separated string.
type List []string

func (l *List) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var items []any
	if err := json.Unmarshal(data, &items); err == nil {
		out := make([]string, 0, len(items))
		for _, it := range items {
			switch v := it.(type) {
			case string:
				if v = strings.TrimSpace(v); v != "" {
					out = append(out, v)
				}
			case nil:
			default:
				out = append(out, fmt.Sprint(v))
			}
		}
		*l = out
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("list: unsupported value %s", data)
	}
	*l = strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n'
	})
	return nil
}
