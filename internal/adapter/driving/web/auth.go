package web

import (
	"net/http"

	"github.com/ericfisherdev/streamhub/internal/adapter/driving/web/templates/pages"
	vm "github.com/ericfisherdev/streamhub/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/streamhub/internal/application"
	"github.com/ericfisherdev/streamhub/internal/domain/model"
)

// LoginPage renders the sign-in form. Signed-in users go to the listing.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if user, err := h.authSvc.CurrentUser(r.Context()); err == nil && user != nil {
		redirect(w, r, "/videos")
		return
	}
	csrf := csrfToken(w, r)
	h.render(w, r, http.StatusOK, "Login", csrf, pages.Login(vm.LoginForm{}, csrf))
}

// Login signs in and redirects to the listing, or re-renders the form with
// the reason.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	if _, err := h.authSvc.Login(r.Context(), email, r.PostFormValue("password")); err != nil {
		form := vm.LoginForm{
			Email: email,
			Error: application.UserMessage(err, application.MessageLoginFailed),
		}
		csrf := csrfToken(w, r)
		h.render(w, r, http.StatusOK, "Login", csrf, pages.Login(form, csrf))
		return
	}
	redirect(w, r, "/videos")
}

// RegisterPage renders the registration form.
func (h *Handler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	csrf := csrfToken(w, r)
	h.render(w, r, http.StatusOK, "Register", csrf, pages.Register(vm.RegisterForm{}, csrf))
}

// Register creates the account and sends the user to the login page.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	reg := model.Registration{
		Username:  r.PostFormValue("username"),
		Email:     r.PostFormValue("email"),
		Password:  r.PostFormValue("password"),
		Password2: r.PostFormValue("password2"),
	}
	if err := h.authSvc.Register(r.Context(), reg); err != nil {
		form := vm.RegisterForm{
			Username:   reg.Username,
			Email:      reg.Email,
			Error:      application.UserMessage(err, application.MessageRegisterFailed),
			ErrorField: validationField(err),
		}
		csrf := csrfToken(w, r)
		h.render(w, r, http.StatusOK, "Register", csrf, pages.Register(form, csrf))
		return
	}
	redirect(w, r, "/login")
}

// Logout ends the session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authSvc.Logout(r.Context()); err != nil {
		h.logger.Error("logout failed", "error", err)
	}
	redirect(w, r, "/login")
}
