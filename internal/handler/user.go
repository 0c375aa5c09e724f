package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"sendit/messenger/internal/model"
	"sendit/messenger/internal/pkg/apperr"
	"sendit/messenger/internal/pkg/httputils"
	"sendit/messenger/internal/service"
)

type UserHandler struct {
	identity service.IdentityService
	login    service.LoginService
}

func NewUserHandler(identity service.IdentityService, login service.LoginService) *UserHandler {
	return &UserHandler{identity: identity, login: login}
}

// RegisterRoutes mounts the account routes. Routes with a {userId} segment
// pass through owner.
func (h *UserHandler) RegisterRoutes(router *mux.Router, owner mux.MiddlewareFunc) {
	router.HandleFunc("/signup", h.signup).Methods("POST", "OPTIONS")
	router.HandleFunc("/login", h.loginUser).Methods("POST", "OPTIONS")
	router.HandleFunc("/login/verify-otp", h.verifyOTP).Methods("POST", "OPTIONS")

	owned := router.PathPrefix("/{userId}").Subrouter()
	owned.Use(owner)
	owned.HandleFunc("/add-new-contact", h.addContact).Methods("POST", "OPTIONS")
	owned.HandleFunc("/get-contacts", h.getContacts).Methods("GET", "OPTIONS")
	owned.HandleFunc("/chats", h.getChats).Methods("GET", "OPTIONS")
	owned.HandleFunc("/two-factor", h.setTwoFactor).Methods("PUT", "OPTIONS")
}

// @Summary Sign up
// @Description Register an account and receive a token
// @ID signup
// @Tags user
// @Accept json
// @Produce json
// @Param registerData body service.RegisterInput true "Register data"
// @Success 200 {object} service.AuthResult
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /user/signup [post]
func (h *UserHandler) signup(w http.ResponseWriter, r *http.Request) {
	var request service.RegisterInput
	if err := httputils.DecodeJSON(r, &request); err != nil {
		httputils.ResponseAppError(w, r, err)
		return
	}

	result, err := h.identity.Register(r.Context(), request)
	if err != nil {
		httputils.ResponseAppError(w, r, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, result)
}

type PendingLoginResponse struct {
	Pending bool   `json:"pending"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// @Summary Login
// @Description Log in with email and password. Accounts with two-factor enabled get {pending, email} and an emailed OTP instead of a token.
// @ID login
// @Tags user
// @Accept json
// @Produce json
// @Param loginData body service.LoginInput true "Login data"
// @Success 200 {object} service.AuthResult
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /user/login [post]
func (h *UserHandler) loginUser(w http.ResponseWriter, r *http.Request) {
	var request service.LoginInput
	if err := httputils.DecodeJSON(r, &request); err != nil {
		httputils.ResponseAppError(w, r, err)
		return
	}

	result, err := h.login.Login(r.Context(), request)
	if err != nil {
		httputils.ResponseAppError(w, r, unknownEmail(err))
		return
	}

	if result.State == service.StateChallengeIssued {
		httputils.ResponseJSON(w, http.StatusOK, PendingLoginResponse{
			Pending: true,
			Email:   result.Email,
			Message: "OTP sent to your email",
		})
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, result.Auth)
}

// @Summary Verify OTP
// @Description Complete a two-factor login
// @ID verify-otp
// @Tags user
// @Accept json
// @Produce json
// @Param otpData body service.VerifyOTPInput true "Email and OTP"
// @Success 200 {object} service.AuthResult
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /user/login/verify-otp [post]
func (h *UserHandler) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var request service.VerifyOTPInput
	if err := httputils.DecodeJSON(r, &request); err != nil {
		httputils.ResponseAppError(w, r, err)
		return
	}

	result, err := h.login.VerifyOTP(r.Context(), request)
	if err != nil {
		httputils.ResponseAppError(w, r, unknownEmail(err))
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, result)
}

// unknownEmail turns a missing account on the login routes into a bad request.
func unknownEmail(err error) error {
	if apperr.HasCode(err, apperr.CodeNotFound) {
		return apperr.Wrap(apperr.CodeValidation, "Email does not exist", err)
	}
	return err
}

type ContactsResponse struct {
	Message  string              `json:"message,omitempty"`
	Contacts []model.ContactView `json:"contacts"`
}

// @Summary Add contact
// @ID add-contact
// @Tags user
// @Accept json
// @Produce json
// @Param userId path string true "User ID"
// @Param contact body service.AddContactInput true "Contact"
// @Success 201 {object} ContactsResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /user/{userId}/add-new-contact [post]
func (h *UserHandler) addContact(w http.ResponseWriter, r *http.Request) {
	var request service.AddContactInput
	if err := httputils.DecodeJSON(r, &request); err != nil {
		httputils.ResponseAppError(w, r, err)
		return
	}

	contacts, err := h.identity.AddContact(r.Context(), mux.Vars(r)["userId"], request)
	if err != nil {
		httputils.ResponseAppError(w, r, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusCreated, ContactsResponse{
		Message:  "Contact added successfully",
		Contacts: contacts,
	})
}

// @Summary List contacts
// @ID get-contacts
// @Tags user
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} ContactsResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /user/{userId}/get-contacts [get]
func (h *UserHandler) getContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.identity.ListContacts(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		httputils.ResponseAppError(w, r, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, ContactsResponse{Contacts: contacts})
}

type ChatsResponse struct {
	Chats []model.ChatSummary `json:"chats"`
}

// @Summary List chats
// @ID get-chats
// @Tags user
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} ChatsResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /user/{userId}/chats [get]
func (h *UserHandler) getChats(w http.ResponseWriter, r *http.Request) {
	chats, err := h.identity.ListChats(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		httputils.ResponseAppError(w, r, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, ChatsResponse{Chats: chats})
}

type TwoFactorRequest struct {
	Enabled bool `json:"enabled"`
}

// @Summary Toggle two-factor login
// @ID two-factor
// @Tags user
// @Accept json
// @Produce json
// @Param userId path string true "User ID"
// @Param setting body TwoFactorRequest true "Setting"
// @Success 200 {object} model.Profile
// @Failure 404 {object} response.ErrorResponse
// @Router /user/{userId}/two-factor [put]
func (h *UserHandler) setTwoFactor(w http.ResponseWriter, r *http.Request) {
	var request TwoFactorRequest
	if err := httputils.DecodeJSON(r, &request); err != nil {
		httputils.ResponseAppError(w, r, err)
		return
	}

	profile, err := h.identity.SetTwoFactor(r.Context(), mux.Vars(r)["userId"], request.Enabled)
	if err != nil {
		httputils.ResponseAppError(w, r, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, profile)
}
