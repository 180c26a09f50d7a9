package auth

import (
	"reflect"
	"strings"

	"trailmark.org/internal/acl"
)

// SchemaOption pairs a privilege with the input fields that privilege may
// write. Options are declared broadest first.
type SchemaOption struct {
	Privilege acl.Privilege
	Fields    []string
}

// VerifyInputSchemaByRole enforces field-level write access on a partial
// update. Only fields actually set by the caller count: update structs use
// pointer fields, so a nil field was never supplied. The update passes if
// any held privilege's whitelist covers every set field; otherwise it is
// denied with the action reason.
func (c *Controller) VerifyInputSchemaByRole(input any, options []SchemaOption) error {
	set := setFields(input)
	for _, option := range options {
		if !acl.Holds(c.privileges, option.Privilege) {
			continue
		}
		if coveredBy(set, option.Fields) {
			return nil
		}
	}
	return newPermissionError(MessageInsufficientPermissionsAction)
}

func coveredBy(fields, allowed []string) bool {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, f := range allowed {
		allowedSet[f] = struct{}{}
	}
	for _, f := range fields {
		if _, ok := allowedSet[f]; !ok {
			return false
		}
	}
	return true
}

// setFields returns the json names of the input's non-nil pointer, slice
// and map fields.
func setFields(input any) []string {
	v := reflect.ValueOf(input)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}
	t := v.Type()
	fields := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		fv := v.Field(i)
		if fv.Kind() != reflect.Pointer && fv.Kind() != reflect.Slice && fv.Kind() != reflect.Map {
			continue
		}
		if fv.IsNil() {
			continue
		}
		name := sf.Name
		if tag, ok := sf.Tag.Lookup("json"); ok {
			if comma := strings.Index(tag, ","); comma >= 0 {
				tag = tag[:comma]
			}
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}
		fields = append(fields, name)
	}
	return fields
}
