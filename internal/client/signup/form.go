// Package signup implements the interactive signup client: form state, the
// keystroke evaluator, the uniqueness-aware validator, the HTTP API client
// and a terminal prompt driving them.
package signup

import (
	"strings"

	"github.com/atinyakov/signupform/internal/rules"
)

// Field identifies one input of the signup form by its form key.
type Field string

// Signup form fields in display order.
const (
	FirstName Field = rules.FirstName
	LastName  Field = rules.LastName
	IDNumber  Field = rules.IDNumber
	Password  Field = rules.Password
)

// Fields lists the form fields in display order.
var Fields = []Field{FirstName, LastName, IDNumber, Password}

// Form is the client-side state of one signup form.
type Form struct {
	FirstName string
	LastName  string
	IDNumber  string
	Password  string
}

// Value returns the current value of f.
func (f Form) Value(field Field) string {
	switch field {
	case FirstName:
		return f.FirstName
	case LastName:
		return f.LastName
	case IDNumber:
		return f.IDNumber
	case Password:
		return f.Password
	}
	return ""
}

// With returns a copy of f with field set to value.
func (f Form) With(field Field, value string) Form {
	switch field {
	case FirstName:
		f.FirstName = value
	case LastName:
		f.LastName = value
	case IDNumber:
		f.IDNumber = value
	case Password:
		f.Password = value
	}
	return f
}

// Check is the synchronous part of one validation cycle.
type Check struct {
	// Form is the input form after normalization of the trigger field.
	Form Form
	// Trigger is the field whose key release started the cycle.
	Trigger Field
	// Valid holds the rule verdict of every field.
	Valid map[Field]bool
	// Filled reports that every field is non-empty after trimming.
	Filled bool
	// PasswordValid reports that the password satisfies its rule.
	PasswordValid bool
	// IDLengthValid reports that the id number satisfies its length rule.
	// Only then is a uniqueness lookup worth issuing.
	IDLengthValid bool
	// Message is the text for the trigger field's error slot. Empty clears it.
	Message string
}

// LocallyValid reports whether the cycle can enable submit pending the
// uniqueness lookup.
func (c Check) LocallyValid() bool {
	return c.Filled && c.PasswordValid && c.IDLengthValid
}

// Evaluate runs the local part of a validation cycle for a key release in
// trigger. A trigger field holding only whitespace is blanked in the returned
// form. Password and id number rule messages are reported only when that
// field is the trigger; the other fields' verdicts are still computed.
func Evaluate(set *rules.Set, form Form, trigger Field) Check {
	c := Check{Trigger: trigger, Valid: make(map[Field]bool, len(Fields))}

	if strings.TrimSpace(form.Value(trigger)) == "" {
		form = form.With(trigger, "")
		c.Message = label(set, trigger) + " should not be empty."
	}
	c.Form = form

	c.Filled = true
	for _, f := range Fields {
		v := form.Value(f)
		c.Valid[f] = set.Passes(string(f), v)
		if strings.TrimSpace(v) == "" {
			c.Filled = false
		}
	}
	c.PasswordValid = c.Valid[Password]
	c.IDLengthValid = c.Valid[IDNumber]

	switch trigger {
	case Password:
		c.Message = ruleMessage(set, Password, c.PasswordValid)
	case IDNumber:
		c.Message = ruleMessage(set, IDNumber, c.IDLengthValid)
	}
	return c
}

func label(set *rules.Set, f Field) string {
	if r, ok := set.Lookup(string(f)); ok {
		return r.Label
	}
	return string(f)
}

func ruleMessage(set *rules.Set, f Field, valid bool) string {
	if valid {
		return ""
	}
	r, _ := set.Lookup(string(f))
	return r.Message
}
