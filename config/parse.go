package config

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/docker/go-units"
)

// Struct tag options:
//
//	required  the variable must be set
//	size      the value is a human readable size (5MiB, 512kb), parsed into an int64 number of bytes
const (
	tagKey         = "env"
	optionRequired = "required"
	optionSize     = "size"
)

// ErrNotStructPtr is returned when Parse gets something else than a pointer to a struct.
var ErrNotStructPtr = errors.New("must be a pointer to a struct")

// ParseError collects every invalid field of a Parse call.
type ParseError []error

func (e ParseError) Error() string {
	var b strings.Builder
	b.WriteString("invalid configuration:")
	for _, err := range e {
		b.WriteString("\n- ")
		b.WriteString(err.Error())
	}
	return b.String()
}

func (e *ParseError) append(err error) {
	if err != nil {
		*e = append(*e, err)
	}
}

// Parse fills the tagged fields of conf from envRepo. Fields whose variable is unset keep their value,
// so defaults are set on conf before calling Parse.
func Parse(conf interface{}, envRepo env.Repository) error {
	v := reflect.ValueOf(conf)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return ErrNotStructPtr
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return ErrNotStructPtr
	}

	var parseErr ParseError
	parseStruct(v, envRepo, &parseErr)
	if len(parseErr) > 0 {
		return parseErr
	}
	return nil
}

func parseStruct(v reflect.Value, envRepo env.Repository, parseErr *ParseError) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		value := v.Field(i)

		tag, ok := field.Tag.Lookup(tagKey)
		if !ok {
			if value.Kind() == reflect.Struct {
				parseStruct(value, envRepo, parseErr)
			}
			continue
		}

		key, options := parseTag(tag)
		raw := envRepo.Get(key)
		if raw == "" {
			if options[optionRequired] {
				parseErr.append(fmt.Errorf("%s: required variable is not set", key))
			}
			continue
		}

		parseErr.append(setField(value, key, raw, options))
	}
}

func parseTag(tag string) (string, map[string]bool) {
	parts := strings.Split(tag, ",")
	options := map[string]bool{}
	for _, option := range parts[1:] {
		options[strings.TrimSpace(option)] = true
	}
	return strings.TrimSpace(parts[0]), options
}

func setField(value reflect.Value, key, raw string, options map[string]bool) error {
	switch value.Kind() {
	case reflect.String:
		value.SetString(raw)
	case reflect.Bool:
		b, err := parseBool(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		value.SetBool(b)
	case reflect.Int, reflect.Int64:
		if options[optionSize] {
			size, err := units.RAMInBytes(raw)
			if err != nil {
				return fmt.Errorf("%s: invalid size %q: %w", key, raw, err)
			}
			value.SetInt(size)
			return nil
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: invalid number %q", key, raw)
		}
		value.SetInt(n)
	case reflect.Uint:
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: invalid number %q", key, raw)
		}
		value.SetUint(n)
	default:
		return fmt.Errorf("%s: unsupported field type %s", key, value.Type())
	}
	return nil
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid boolean %q", raw)
	}
	return b, nil
}
