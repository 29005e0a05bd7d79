package validator

import (
	"fmt"
	"strings"
)

// FieldError describes one failed rule.
type FieldError struct {
	Field   string      `json:"field"`
	Tag     string      `json:"tag"`
	Value   interface{} `json:"value,omitempty"`
	Param   string      `json:"param,omitempty"`
	Message string      `json:"message"`
}

// ValidationErrors is the error returned by Check. Messages are translated
// into the language the validation ran with.
type ValidationErrors struct {
	Errors []FieldError `json:"errors"`
}

func (v *ValidationErrors) Error() string {
	if !v.HasErrors() {
		return ""
	}

	msgs := make([]string, len(v.Errors))
	for i, fe := range v.Errors {
		msgs[i] = fe.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// HasErrors reports whether at least one rule failed.
func (v *ValidationErrors) HasErrors() bool {
	return v != nil && len(v.Errors) > 0
}

// Count returns the number of failed rules.
func (v *ValidationErrors) Count() int {
	if v == nil {
		return 0
	}
	return len(v.Errors)
}

// First returns the first message, or "".
func (v *ValidationErrors) First() string {
	if !v.HasErrors() {
		return ""
	}
	return v.Errors[0].Message
}

// FirstField returns the field of the first failure, or "".
func (v *ValidationErrors) FirstField() string {
	if !v.HasErrors() {
		return ""
	}
	return v.Errors[0].Field
}

// ForField returns the messages reported for field.
func (v *ValidationErrors) ForField(field string) []string {
	if v == nil {
		return nil
	}

	var msgs []string
	for _, fe := range v.Errors {
		if fe.Field == field {
			msgs = append(msgs, fe.Message)
		}
	}
	return msgs
}

// Fields returns the failed field names in report order without duplicates.
func (v *ValidationErrors) Fields() []string {
	if v == nil {
		return nil
	}

	seen := make(map[string]bool, len(v.Errors))
	var fields []string
	for _, fe := range v.Errors {
		if !seen[fe.Field] {
			seen[fe.Field] = true
			fields = append(fields, fe.Field)
		}
	}
	return fields
}

// Add records a failure.
func (v *ValidationErrors) Add(field, tag, message string) {
	v.Errors = append(v.Errors, FieldError{Field: field, Tag: tag, Message: message})
}

// Format prints one line per failure with %+v.
func (v *ValidationErrors) Format(f fmt.State, verb rune) {
	switch {
	case verb == 'v' && f.Flag('+'):
		fmt.Fprintf(f, "%d validation error(s)", v.Count())
		for _, fe := range v.Errors {
			fmt.Fprintf(f, "\n  %s[%s", fe.Field, fe.Tag)
			if fe.Param != "" {
				fmt.Fprintf(f, "=%s", fe.Param)
			}
			fmt.Fprintf(f, "]: %s", fe.Message)
		}
	case verb == 'q':
		fmt.Fprintf(f, "%q", v.Error())
	default:
		fmt.Fprint(f, v.Error())
	}
}
