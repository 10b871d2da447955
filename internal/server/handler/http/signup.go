// Package http provides HTTP handlers for the signup form, the success page
// and the id number uniqueness lookup.
package http

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/atinyakov/signupform/internal/models"
	"github.com/atinyakov/signupform/internal/rules"
	"github.com/atinyakov/signupform/internal/service"
	"github.com/atinyakov/signupform/internal/views"
	"github.com/go-chi/render"
	"go.uber.org/zap"
)

// SignupService defines the signup operations required by the HTTP handlers.
type SignupService interface {
	// Register validates and stores a submission. Rule failures are reported
	// as *service.ValidationError.
	Register(context.Context, models.Submission) (models.Identity, error)
	// CheckID returns the stored id number equal to the candidate, or "".
	CheckID(context.Context, string) (string, error)
}

// SignupHandler handles HTTP requests of the signup flow.
type SignupHandler struct {
	// SignupService performs validation and persistence.
	SignupService SignupService
	// Views renders the HTML pages.
	Views *views.Views
	// Logger records failures that are hidden from the client.
	Logger *zap.Logger
}

// ErrorResponse is the JSON body of a failed request.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// GetSignUp renders an empty signup form.
func (h *SignupHandler) GetSignUp(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, views.Signup, nil)
}

// PostSignUp handles a submitted signup form with fields fName, lName, idNum
// and pw. On rule failures the form is shown again with inline errors. On
// success the client is redirected to the success page; the password is
// never part of that URL. Clients sending "Accept: application/json" get
// JSON bodies instead of pages: 422 with field errors, or 201 with the
// created identity.
func (h *SignupHandler) PostSignUp(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	sub := models.Submission{
		FirstName: r.PostForm.Get(rules.FirstName),
		LastName:  r.PostForm.Get(rules.LastName),
		IDNumber:  r.PostForm.Get(rules.IDNumber),
		Password:  r.PostForm.Get(rules.Password),
	}
	wantsJSON := render.GetAcceptedContentType(r) == render.ContentTypeJSON

	identity, err := h.SignupService.Register(r.Context(), sub)

	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		details := verr.Result.Details()
		if wantsJSON {
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, ErrorResponse{Error: "validation failed", Fields: details})
			return
		}
		details[rules.FirstName] = sub.FirstName
		details[rules.LastName] = sub.LastName
		details[rules.IDNumber] = sub.IDNumber
		h.render(w, http.StatusOK, views.Signup, details)
	case err != nil:
		h.Logger.Error("signup failed", zap.Error(err))
		if wantsJSON {
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, ErrorResponse{Error: "internal error"})
			return
		}
		h.render(w, http.StatusInternalServerError, views.Error, nil)
	default:
		location := SuccessURL(identity)
		if wantsJSON {
			w.Header().Set("Location", location)
			render.Status(r, http.StatusCreated)
			render.JSON(w, r, identity)
			return
		}
		http.Redirect(w, r, location, http.StatusSeeOther)
	}
}

// SuccessURL builds the success page URL for identity, keeping the
// fName, lName, idNum parameter order.
func SuccessURL(identity models.Identity) string {
	return "/success?fName=" + url.QueryEscape(identity.FirstName) +
		"&lName=" + url.QueryEscape(identity.LastName) +
		"&idNum=" + url.QueryEscape(identity.IDNumber)
}

// GetSuccess renders the success page for the identity in the query string.
func (h *SignupHandler) GetSuccess(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.render(w, http.StatusOK, views.Success, map[string]string{
		rules.FirstName: q.Get(rules.FirstName),
		rules.LastName:  q.Get(rules.LastName),
		rules.IDNumber:  q.Get(rules.IDNumber),
	})
}

// GetCheckID handles GET /getCheckID?idNum=<value>. The response's idNum
// equals the candidate when it is already registered and is empty otherwise.
// A missing or malformed candidate is answered with 400 without a lookup.
func (h *SignupHandler) GetCheckID(w http.ResponseWriter, r *http.Request) {
	candidate := r.URL.Query().Get(rules.IDNumber)

	found, err := h.SignupService.CheckID(r.Context(), candidate)
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		msg, _ := verr.Result.Message(rules.IDNumber)
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: msg})
	case err != nil:
		h.Logger.Error("id number lookup failed", zap.Error(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, ErrorResponse{Error: "internal error"})
	default:
		render.JSON(w, r, models.CheckIDResponse{IDNumber: found})
	}
}

func (h *SignupHandler) render(w http.ResponseWriter, status int, page string, data map[string]string) {
	if err := h.Views.Render(w, status, page, data); err != nil {
		h.Logger.Error("render page", zap.String("page", page), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
