// Package rules defines the signup form's field rule set. The same Set is
// evaluated by the server before a record is written and by the interactive
// client while the user is still typing, so both sides always agree.
package rules

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// Form field keys as they appear in the signup form and in error details.
const (
	FirstName = "fName"
	LastName  = "lName"
	IDNumber  = "idNum"
	Password  = "pw"
)

// TakenMessage is reported for an id number that another user already holds.
const TakenMessage = "ID number already registered."

// Rule binds a form field to a validator tag and the message shown when the
// field's value does not satisfy the tag.
type Rule struct {
	// Key is the form field name, e.g. "fName".
	Key string
	// Label is the human-readable field name used in emptiness messages.
	Label string
	// Tag is a go-playground/validator tag evaluated against the raw value.
	Tag string
	// Message is reported when Tag fails.
	Message string
}

// Violation is one failed rule.
type Violation struct {
	Key     string
	Message string
}

// Result holds the violations of one Check run in rule order.
type Result struct {
	Violations []Violation
}

// OK reports whether no rule failed.
func (r Result) OK() bool {
	return len(r.Violations) == 0
}

// Details returns the violations keyed by "<key>Error", which is how the
// signup view addresses its inline error slots.
func (r Result) Details() map[string]string {
	details := make(map[string]string, len(r.Violations))
	for _, v := range r.Violations {
		details[v.Key+"Error"] = v.Message
	}
	return details
}

// Message returns the violation message for key, if any.
func (r Result) Message(key string) (string, bool) {
	for _, v := range r.Violations {
		if v.Key == key {
			return v.Message, true
		}
	}
	return "", false
}

// Set is an ordered, immutable list of rules backed by a validator instance.
// It is safe for concurrent use.
type Set struct {
	rules    []Rule
	validate *validator.Validate
}

// Default returns the signup rule set.
func Default() *Set {
	return New([]Rule{
		{Key: FirstName, Label: "First name", Tag: "nonblank", Message: "First name should not be empty."},
		{Key: LastName, Label: "Last name", Tag: "nonblank", Message: "Last name should not be empty."},
		{Key: IDNumber, Label: "ID number", Tag: "nonblank,len=8", Message: "ID number should contain 8 digits."},
		{Key: Password, Label: "Password", Tag: "nonblank,min=8", Message: "Passwords should contain at least 8 characters."},
	})
}

// New builds a Set from rules. It panics if a rule carries a tag the
// validator does not know, since rule sets are fixed at process start.
func New(rules []Rule) *Set {
	v := validator.New()
	if err := v.RegisterValidation("nonblank", nonBlank); err != nil {
		panic(err)
	}

	s := &Set{rules: append([]Rule(nil), rules...), validate: v}
	for _, r := range s.rules {
		// Unknown tags panic inside validator.Var; surface that now.
		_ = s.validate.Var("", r.Tag)
	}
	return s
}

func nonBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// Rules returns a copy of the rules in evaluation order.
func (s *Set) Rules() []Rule {
	return append([]Rule(nil), s.rules...)
}

// Lookup returns the rule for key.
func (s *Set) Lookup(key string) (Rule, bool) {
	for _, r := range s.rules {
		if r.Key == key {
			return r, true
		}
	}
	return Rule{}, false
}

// Passes evaluates the rule for key against value. Keys without a rule pass.
func (s *Set) Passes(key, value string) bool {
	r, ok := s.Lookup(key)
	if !ok {
		return true
	}
	return s.validate.Var(value, r.Tag) == nil
}

// Check runs every rule against values, a lookup from field key to the
// submitted value. Missing fields are checked as empty strings.
func (s *Set) Check(values func(key string) string) Result {
	var res Result
	for _, r := range s.rules {
		if s.validate.Var(values(r.Key), r.Tag) != nil {
			res.Violations = append(res.Violations, Violation{Key: r.Key, Message: r.Message})
		}
	}
	return res
}
