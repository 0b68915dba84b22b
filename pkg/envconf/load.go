// Package envconf fills configuration structs from the process environment.
//
// Fields are described with `env`, `envDefault` and `envSeparator` tags.
// Nested structs are walked without a tag. Types implementing
// encoding.TextUnmarshaler are parsed through it. After parsing, a target
// implementing Validator is validated, and so is every nested struct that does.
package envconf

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/caarlos0/env/v11"
)

var ErrInvalidDestination = errors.New("destination must be a non-nil pointer to a struct")

type Validator interface {
	Validate() error
}

func Load(dst any) error {
	if dst == nil {
		return ErrInvalidDestination
	}

	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return ErrInvalidDestination
	}

	err := env.Parse(dst)
	if err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	return validate(v)
}

// validate runs Validate on nested structs first, then on v itself.
func validate(v reflect.Value) error {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return nil
	}

	t := v.Type()
	for i := range v.NumField() {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		fv := v.Field(i)
		if fv.Kind() != reflect.Struct && (fv.Kind() != reflect.Pointer || fv.Type().Elem().Kind() != reflect.Struct) {
			continue
		}

		err := validate(fv)
		if err != nil {
			return fmt.Errorf("validate %q: %w", sf.Name, err)
		}
	}

	if !v.CanAddr() {
		return nil
	}

	val, ok := v.Addr().Interface().(Validator)
	if !ok {
		return nil
	}

	return val.Validate()
}
