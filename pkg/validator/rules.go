package validator

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// Custom validation tags
const (
	TagReadPref       = "readpref"      // MongoDB read preference mode
	TagMongoProtocol  = "mongoproto"    // mongodb or mongodb+srv
	TagCollectionName = "collname"      // MongoDB collection name
	TagNoWhitespace   = "nowhitespace"  // No whitespace characters
	TagHostList       = "mongohostlist" // Comma-separated host[:port] seed list
)

// ReadPreferenceModes lists the accepted read preference modes.
var ReadPreferenceModes = []string{
	"primary",
	"primaryPreferred",
	"secondary",
	"secondaryPreferred",
	"nearest",
}

// registerCustomRules registers all custom validation rules.
func (v *Validator) registerCustomRules() {
	_ = v.validate.RegisterValidation(TagReadPref, validateReadPref)
	_ = v.validate.RegisterValidation(TagMongoProtocol, validateMongoProtocol)
	_ = v.validate.RegisterValidation(TagCollectionName, validateCollectionName)
	_ = v.validate.RegisterValidation(TagNoWhitespace, validateNoWhitespace)
	_ = v.validate.RegisterValidation(TagHostList, validateHostList)
}

// IsReadPreference reports whether mode is an accepted read preference mode.
func IsReadPreference(mode string) bool {
	for _, m := range ReadPreferenceModes {
		if m == mode {
			return true
		}
	}
	return false
}

func validateReadPref(fl validator.FieldLevel) bool {
	return IsReadPreference(fl.Field().String())
}

func validateMongoProtocol(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "mongodb", "mongodb+srv":
		return true
	default:
		return false
	}
}

// IsCollectionName reports whether name is usable as a collection name:
// non-empty, no '$' or NUL, and outside the reserved "system." namespace.
func IsCollectionName(name string) bool {
	if name == "" {
		return false
	}
	if strings.ContainsAny(name, "$\x00") {
		return false
	}
	return !strings.HasPrefix(name, "system.")
}

// validateCollectionName leaves empty values to 'required'.
func validateCollectionName(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return IsCollectionName(value)
}

func validateNoWhitespace(fl validator.FieldLevel) bool {
	return !strings.ContainsAny(fl.Field().String(), " \t\r\n")
}

// validateHostList accepts "a", "a:1", "a:1,b:2"; ports are checked by the
// URI parser, this only rejects empty tokens and whitespace.
func validateHostList(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	for _, token := range strings.Split(value, ",") {
		if token == "" || strings.ContainsAny(token, " \t/@?") {
			return false
		}
	}
	return true
}
