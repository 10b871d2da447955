// Package views renders the HTML pages of the signup flow from embedded
// templates and serves the signup page's script.
package views

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"maps"
	"net/http"

	"github.com/atinyakov/signupform/internal/rules"
)

// Page names.
const (
	Signup  = "signup.html"
	Success = "success.html"
	Error   = "error.html"
)

// StaticPrefix is the URL path the embedded scripts are served under.
const StaticPrefix = "/static/"

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static/*.js
var staticFS embed.FS

// rulesData is the rule table the signup script validates keystrokes with.
type rulesData struct {
	Rules        []ruleData `json:"rules"`
	TakenMessage string     `json:"takenMessage"`
}

type ruleData struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// Views holds one parsed template set per page.
type Views struct {
	pages map[string]*template.Template
	rules string
}

// New parses the embedded templates. The signup page carries set, encoded as
// JSON, for its script.
func New(set *rules.Set) (*Views, error) {
	v := &Views{pages: make(map[string]*template.Template)}
	for _, page := range []string{Signup, Success, Error} {
		t, err := template.ParseFS(templatesFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		v.pages[page] = t
	}

	data := rulesData{TakenMessage: rules.TakenMessage}
	for _, r := range set.Rules() {
		data.Rules = append(data.Rules, ruleData{Key: r.Key, Label: r.Label, Tag: r.Tag, Message: r.Message})
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode rules: %w", err)
	}
	v.rules = string(b)
	return v, nil
}

// Render executes page with data and writes it with status. Nothing is
// written when the template fails.
func (v *Views) Render(w http.ResponseWriter, status int, page string, data map[string]string) error {
	t, ok := v.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}

	if page == Signup {
		withRules := make(map[string]string, len(data)+1)
		maps.Copy(withRules, data)
		withRules["rules"] = v.rules
		data = withRules
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, page, data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Static serves the embedded scripts under StaticPrefix.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix(StaticPrefix, http.FileServerFS(sub))
}
