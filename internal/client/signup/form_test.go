package signup

import (
	"testing"

	"github.com/atinyakov/signupform/internal/models"
	"github.com/atinyakov/signupform/internal/rules"
	"github.com/stretchr/testify/assert"
)

func validForm() Form {
	return Form{FirstName: "Ana", LastName: "Cruz", IDNumber: "12345678", Password: "longpassword"}
}

// goldenCases is shared by the server rule check and the client evaluator.
var goldenCases = []struct {
	name    string
	form    Form
	failing []Field
}{
	{"all valid", validForm(), nil},
	{"empty first name", validForm().With(FirstName, ""), []Field{FirstName}},
	{"blank first name", validForm().With(FirstName, "   "), []Field{FirstName}},
	{"tab last name", validForm().With(LastName, "\t"), []Field{LastName}},
	{"id too short", validForm().With(IDNumber, "1234567"), []Field{IDNumber}},
	{"id too long", validForm().With(IDNumber, "123456789"), []Field{IDNumber}},
	{"id letters", validForm().With(IDNumber, "abcdefgh"), nil},
	{"id multibyte", validForm().With(IDNumber, "ÄÖÜäöüßé"), nil},
	{"id blank", validForm().With(IDNumber, "        "), []Field{IDNumber}},
	{"password short", validForm().With(Password, "1234567"), []Field{Password}},
	{"password exact", validForm().With(Password, "12345678"), nil},
	{"password blank", validForm().With(Password, "        "), []Field{Password}},
	{"everything empty", Form{}, []Field{FirstName, LastName, IDNumber, Password}},
}

func submission(f Form) models.Submission {
	return models.Submission{FirstName: f.FirstName, LastName: f.LastName, IDNumber: f.IDNumber, Password: f.Password}
}

func TestGoldenParity(t *testing.T) {
	set := rules.Default()

	for _, tc := range goldenCases {
		t.Run(tc.name, func(t *testing.T) {
			var serverFailing []Field
			for _, v := range set.Check(submission(tc.form).Value).Violations {
				serverFailing = append(serverFailing, Field(v.Key))
			}
			assert.Equal(t, tc.failing, serverFailing, "server")

			for _, trigger := range Fields {
				c := Evaluate(set, tc.form, trigger)
				var clientFailing []Field
				for _, f := range Fields {
					if !c.Valid[f] {
						clientFailing = append(clientFailing, f)
					}
				}
				assert.Equal(t, tc.failing, clientFailing, "client, trigger %s", trigger)
				assert.Equal(t, len(tc.failing) == 0, c.LocallyValid(), "client ready, trigger %s", trigger)
			}
		})
	}
}

func TestEvaluate_BlanksWhitespaceTrigger(t *testing.T) {
	c := Evaluate(rules.Default(), validForm().With(LastName, "   "), LastName)

	assert.Equal(t, "", c.Form.LastName)
	assert.Equal(t, "Last name should not be empty.", c.Message)
	assert.False(t, c.Filled)
}

func TestEvaluate_LeavesOtherFieldsAlone(t *testing.T) {
	form := validForm().With(LastName, "   ")
	c := Evaluate(rules.Default(), form, FirstName)

	assert.Equal(t, "   ", c.Form.LastName)
	assert.Equal(t, "", c.Message)
	assert.False(t, c.Filled)
}

func TestEvaluate_MessageScopedToTrigger(t *testing.T) {
	set := rules.Default()
	form := validForm().With(IDNumber, "123").With(Password, "short")

	tests := []struct {
		trigger Field
		want    string
	}{
		{FirstName, ""},
		{LastName, ""},
		{IDNumber, "ID number should contain 8 digits."},
		{Password, "Passwords should contain at least 8 characters."},
	}
	for _, tt := range tests {
		c := Evaluate(set, form, tt.trigger)
		assert.Equal(t, tt.want, c.Message, "trigger %s", tt.trigger)
		assert.False(t, c.PasswordValid)
		assert.False(t, c.IDLengthValid)
	}
}

func TestEvaluate_EmptyPasswordShowsLengthMessage(t *testing.T) {
	c := Evaluate(rules.Default(), validForm().With(Password, " "), Password)

	assert.Equal(t, "", c.Form.Password)
	assert.Equal(t, "Passwords should contain at least 8 characters.", c.Message)
}

func TestEvaluate_Pure(t *testing.T) {
	set := rules.Default()
	form := validForm().With(IDNumber, "1")
	assert.Equal(t, Evaluate(set, form, IDNumber), Evaluate(set, form, IDNumber))
}
