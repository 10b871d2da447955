package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/atinyakov/signupform/internal/models"
	"github.com/atinyakov/signupform/internal/rules"
	"github.com/atinyakov/signupform/internal/service"
	"github.com/atinyakov/signupform/internal/views"
	"go.uber.org/zap"
)

// fakeSignupService implements SignupService for testing.
type fakeSignupService struct {
	identity    models.Identity
	registerErr error
	found       string
	checkErr    error

	received  models.Submission
	candidate string
}

func (f *fakeSignupService) Register(ctx context.Context, sub models.Submission) (models.Identity, error) {
	f.received = sub
	return f.identity, f.registerErr
}

func (f *fakeSignupService) CheckID(ctx context.Context, idNumber string) (string, error) {
	f.candidate = idNumber
	return f.found, f.checkErr
}

func newTestHandler(t *testing.T, svc SignupService) *SignupHandler {
	t.Helper()
	v, err := views.New(rules.Default())
	if err != nil {
		t.Fatalf("views.New: %v", err)
	}
	return &SignupHandler{SignupService: svc, Views: v, Logger: zap.NewNop()}
}

func validationErr(key, msg string) error {
	return &service.ValidationError{Result: rules.Result{Violations: []rules.Violation{{Key: key, Message: msg}}}}
}

func postForm(form url.Values, accept string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	return req
}

func TestSignupHandler_PostSignUp(t *testing.T) {
	form := url.Values{"fName": {"Ana"}, "lName": {"Cruz"}, "idNum": {"12345678"}, "pw": {"longpassword"}}

	tests := []struct {
		name         string
		service      *fakeSignupService
		accept       string
		expectedCode int
		expectedLoc  string
		contains     []string
		notContains  []string
	}{
		{
			name:         "success redirects without password",
			service:      &fakeSignupService{identity: models.Identity{FirstName: "Ana", LastName: "Cruz", IDNumber: "12345678"}},
			expectedCode: http.StatusSeeOther,
			expectedLoc:  "/success?fName=Ana&lName=Cruz&idNum=12345678",
		},
		{
			name:         "validation error re-renders form",
			service:      &fakeSignupService{registerErr: validationErr("fName", "First name should not be empty.")},
			expectedCode: http.StatusOK,
			contains:     []string{"First name should not be empty.", `value="Cruz"`, `value="12345678"`},
			notContains:  []string{"longpassword"},
		},
		{
			name:         "store failure renders error page",
			service:      &fakeSignupService{registerErr: service.ErrStoreWrite},
			expectedCode: http.StatusInternalServerError,
			contains:     []string{"Something went wrong"},
		},
		{
			name:         "json validation error",
			service:      &fakeSignupService{registerErr: validationErr("idNum", "ID number already registered.")},
			accept:       "application/json",
			expectedCode: http.StatusUnprocessableEntity,
			contains:     []string{`"idNumError":"ID number already registered."`},
		},
		{
			name:         "json success",
			service:      &fakeSignupService{identity: models.Identity{FirstName: "Ana", LastName: "Cruz", IDNumber: "12345678"}},
			accept:       "application/json",
			expectedCode: http.StatusCreated,
			expectedLoc:  "/success?fName=Ana&lName=Cruz&idNum=12345678",
			contains:     []string{`"idNum":"12345678"`},
			notContains:  []string{"longpassword"},
		},
		{
			name:         "json store failure",
			service:      &fakeSignupService{registerErr: errors.New("boom")},
			accept:       "application/json",
			expectedCode: http.StatusInternalServerError,
			contains:     []string{`"error":"internal error"`},
			notContains:  []string{"boom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, tt.service)
			rec := httptest.NewRecorder()
			h.PostSignUp(rec, postForm(form, tt.accept))

			if rec.Code != tt.expectedCode {
				t.Fatalf("expected status %d, got %d", tt.expectedCode, rec.Code)
			}
			if tt.expectedLoc != "" && rec.Header().Get("Location") != tt.expectedLoc {
				t.Errorf("Location = %q; want %q", rec.Header().Get("Location"), tt.expectedLoc)
			}
			body := rec.Body.String()
			for _, s := range tt.contains {
				if !strings.Contains(body, s) {
					t.Errorf("expected body to contain %q, got %q", s, body)
				}
			}
			for _, s := range tt.notContains {
				if strings.Contains(body, s) {
					t.Errorf("body must not contain %q", s)
				}
			}
			want := models.Submission{FirstName: "Ana", LastName: "Cruz", IDNumber: "12345678", Password: "longpassword"}
			if tt.service.received != want {
				t.Errorf("service received %+v; want %+v", tt.service.received, want)
			}
		})
	}
}

func TestSignupHandler_GetCheckID(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		service      *fakeSignupService
		expectedCode int
		expectedJSON map[string]string
	}{
		{
			name:         "taken",
			query:        "idNum=12345678",
			service:      &fakeSignupService{found: "12345678"},
			expectedCode: http.StatusOK,
			expectedJSON: map[string]string{"idNum": "12345678"},
		},
		{
			name:         "available",
			query:        "idNum=99999999",
			service:      &fakeSignupService{},
			expectedCode: http.StatusOK,
			expectedJSON: map[string]string{"idNum": ""},
		},
		{
			name:         "malformed",
			query:        "idNum=12",
			service:      &fakeSignupService{checkErr: validationErr("idNum", "ID number should contain 8 digits.")},
			expectedCode: http.StatusBadRequest,
			expectedJSON: map[string]string{"error": "ID number should contain 8 digits."},
		},
		{
			name:         "store error",
			query:        "idNum=12345678",
			service:      &fakeSignupService{checkErr: errors.New("db down")},
			expectedCode: http.StatusInternalServerError,
			expectedJSON: map[string]string{"error": "internal error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, tt.service)
			rec := httptest.NewRecorder()
			h.GetCheckID(rec, httptest.NewRequest(http.MethodGet, "/getCheckID?"+tt.query, nil))

			if rec.Code != tt.expectedCode {
				t.Fatalf("%s: expected status %d, got %d", tt.name, tt.expectedCode, rec.Code)
			}
			var payload map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
				t.Fatalf("failed to decode JSON: %v", err)
			}
			for k, v := range tt.expectedJSON {
				if payload[k] != v {
					t.Errorf("expected %s=%q, got %q", k, v, payload[k])
				}
			}
		})
	}
}

func TestSignupHandler_GetSuccess(t *testing.T) {
	h := newTestHandler(t, &fakeSignupService{})
	rec := httptest.NewRecorder()
	h.GetSuccess(rec, httptest.NewRequest(http.MethodGet, "/success?fName=Ana&lName=Cruz&idNum=12345678", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, s := range []string{"Ana", "Cruz", "12345678"} {
		if !strings.Contains(body, s) {
			t.Errorf("expected body to contain %q", s)
		}
	}
}

func TestSuccessURL_Escapes(t *testing.T) {
	got := SuccessURL(models.Identity{FirstName: "Ana María", LastName: "O&Brien", IDNumber: "12345678"})
	want := "/success?fName=Ana+Mar%C3%ADa&lName=O%26Brien&idNum=12345678"
	if got != want {
		t.Errorf("SuccessURL = %q; want %q", got, want)
	}
}
