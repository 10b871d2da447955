package rules

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func valuesOf(m map[string]string) func(string) string {
	return func(key string) string { return m[key] }
}

func validValues() map[string]string {
	return map[string]string{
		FirstName: "Ana",
		LastName:  "Cruz",
		IDNumber:  "12345678",
		Password:  "longpassword",
	}
}

func TestDefault_Order(t *testing.T) {
	var keys []string
	for _, r := range Default().Rules() {
		keys = append(keys, r.Key)
	}
	assert.Equal(t, []string{FirstName, LastName, IDNumber, Password}, keys)
}

func TestCheck_AllValid(t *testing.T) {
	res := Default().Check(valuesOf(validValues()))
	assert.True(t, res.OK())
	assert.Empty(t, res.Details())
}

func TestCheck_SingleEmptyField(t *testing.T) {
	want := map[string]string{
		FirstName: "First name should not be empty.",
		LastName:  "Last name should not be empty.",
		IDNumber:  "ID number should contain 8 digits.",
		Password:  "Passwords should contain at least 8 characters.",
	}
	set := Default()

	for key, msg := range want {
		for _, blank := range []string{"", "   ", "\t"} {
			t.Run(key+"/"+strings.ReplaceAll(blank, "\t", "tab"), func(t *testing.T) {
				values := validValues()
				values[key] = blank

				res := set.Check(valuesOf(values))
				assert.Equal(t, map[string]string{key + "Error": msg}, res.Details())
			})
		}
	}
}

func TestCheck_MissingFields(t *testing.T) {
	res := Default().Check(valuesOf(map[string]string{}))
	require.Len(t, res.Violations, 4)
	assert.Equal(t, FirstName, res.Violations[0].Key)
	assert.Equal(t, Password, res.Violations[3].Key)
}

func TestCheck_Idempotent(t *testing.T) {
	set := Default()
	values := map[string]string{FirstName: "", IDNumber: "1234567"}
	first := set.Check(valuesOf(values))
	second := set.Check(valuesOf(values))
	assert.Equal(t, first, second)
}

func TestPasses_IDNumberLength(t *testing.T) {
	set := Default()
	tests := []struct {
		value string
		want  bool
	}{
		{"1234567", false},
		{"123456789", false},
		{"12345678", true},
		{"abcdefgh", true},
		{"ññññññññ", true},
		{"", false},
		{"        ", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, set.Passes(IDNumber, tt.value), "idNum %q", tt.value)
	}
}

func TestPasses_PasswordLength(t *testing.T) {
	set := Default()
	assert.False(t, set.Passes(Password, "1234567"))
	assert.True(t, set.Passes(Password, "12345678"))
	assert.True(t, set.Passes(Password, strings.Repeat("x", 100)))
	assert.False(t, set.Passes(Password, strings.Repeat(" ", 8)))
	assert.True(t, set.Passes(Password, " pass word "))
}

func TestPasses_UnknownKey(t *testing.T) {
	assert.True(t, Default().Passes("email", ""))
}

func TestResult_Message(t *testing.T) {
	res := Default().Check(valuesOf(map[string]string{FirstName: "a", LastName: "b", IDNumber: "1", Password: "12345678"}))
	msg, ok := res.Message(IDNumber)
	assert.True(t, ok)
	assert.Equal(t, "ID number should contain 8 digits.", msg)

	_, ok = res.Message(FirstName)
	assert.False(t, ok)
}

func TestNew_UnknownTagPanics(t *testing.T) {
	assert.Panics(t, func() {
		New([]Rule{{Key: "x", Tag: "no_such_tag"}})
	})
}
