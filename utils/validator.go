package utils

import (
	"errors"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Minimal internal validator. Supports:
// - required
// - nameok (letters, numbers, space, hyphen, apostrophe, 1-50 chars)
// - pwdmin (min length 6)
// - invite (6 letters or digits, any case)
// - max=N (at most N characters)
// - eqfield=OtherField (field equals another field)

var (
	reNameOK = regexp.MustCompile(`^[\p{L}\p{N} \-']{1,50}$`)
	reInvite = regexp.MustCompile(`^[A-Za-z0-9]{6}$`)
)

// ValidateStruct inspects struct tags `validate:"..."` and returns the first error encountered.
func ValidateStruct(s interface{}) error {
	v := reflect.ValueOf(s)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return errors.New("ValidateStruct expects a struct or pointer to struct")
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("validate")
		if tag == "" {
			continue
		}
		fv := v.Field(i)
		var sval string
		if fv.IsValid() && fv.Kind() == reflect.String {
			sval = strings.TrimSpace(fv.String())
		}
		name := jsonName(field)
		for _, p := range strings.Split(tag, ",") {
			p = strings.TrimSpace(p)
			switch {
			case p == "required":
				if sval == "" {
					return errors.New(name + " is required")
				}
			case p == "nameok":
				if sval != "" && !reNameOK.MatchString(sval) {
					return errors.New(name + " contains invalid characters")
				}
			case p == "pwdmin":
				if utf8.RuneCountInString(fv.String()) < 6 {
					return errors.New(name + " must be at least 6 characters")
				}
			case p == "invite":
				if sval != "" && !reInvite.MatchString(sval) {
					return errors.New(name + " must be 6 letters or digits")
				}
			case strings.HasPrefix(p, "max="):
				n, err := strconv.Atoi(strings.TrimPrefix(p, "max="))
				if err == nil && utf8.RuneCountInString(sval) > n {
					return errors.New(name + " is too long")
				}
			case strings.HasPrefix(p, "eqfield="):
				other := strings.TrimPrefix(p, "eqfield=")
				of := v.FieldByName(other)
				if of.IsValid() && of.Kind() == reflect.String && fv.String() != of.String() {
					return errors.New(name + " must equal " + other)
				}
			}
		}
	}
	return nil
}

func jsonName(f reflect.StructField) string {
	if tag := f.Tag.Get("json"); tag != "" {
		if n, _, _ := strings.Cut(tag, ","); n != "" && n != "-" {
			return n
		}
	}
	return f.Name
}
