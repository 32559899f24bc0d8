package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ccoapp/cco-api/pkg/httputil"
	"github.com/ccoapp/cco-api/pkg/middleware"
	"github.com/ccoapp/cco-api/pkg/observability"
	"github.com/ccoapp/cco-api/pkg/users"
)

// UserHandlers handles the /api/v1/user endpoints. Every protected
// endpoint invokes exactly one capability guard before touching the
// service layer; authorization logic never leaks into business logic.
type UserHandlers struct {
	users *users.Service
	log   *observability.Logger
}

// NewUserHandlers creates the user endpoint handlers.
func NewUserHandlers(svc *users.Service, log *observability.Logger) *UserHandlers {
	return &UserHandlers{users: svc, log: log}
}

// RegisterRoutes registers the user routes
func (h *UserHandlers) RegisterRoutes(router *mux.Router) {
	r := router.PathPrefix("/api/v1/user").Subrouter()

	r.HandleFunc("/create-account", handle(h.log, h.createAccount)).Methods("POST")
	r.HandleFunc("/profile", handle(h.log, h.getProfile)).Methods("GET")
	r.HandleFunc("/create-profile", handle(h.log, h.createProfile)).Methods("POST")
	r.HandleFunc("/profile", handle(h.log, h.updateProfile)).Methods("PUT")
	r.HandleFunc("/preferences", handle(h.log, h.savePreferences)).Methods("POST")
	r.HandleFunc("/preferences", handle(h.log, h.getPreferences)).Methods("GET")
	r.HandleFunc("/delete-account", handle(h.log, h.deleteAccount)).Methods("DELETE")
	r.HandleFunc("/invite", handle(h.log, h.inviteUser)).Methods("POST")
	r.HandleFunc("/accept-invitation", handle(h.log, h.acceptInvitation)).Methods("POST")
}

// createAccount handles POST /api/v1/user/create-account (public)
func (h *UserHandlers) createAccount(w http.ResponseWriter, r *http.Request) error {
	var req CreateAccountReq
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		return err
	}

	account, err := h.users.CreateAccount(r.Context(), req.Email)
	if err != nil {
		return err
	}

	return httputil.WriteCreated(w, CreateAccountRes{UserID: account.ID})
}

// getProfile handles GET /api/v1/user/profile
func (h *UserHandlers) getProfile(w http.ResponseWriter, r *http.Request) error {
	user, err := middleware.RequireProfile(r.Context())
	if err != nil {
		return err
	}

	profile, err := h.users.GetProfile(r.Context(), user)
	if err != nil {
		return err
	}

	return httputil.WriteSuccess(w, profile)
}

// createProfile handles POST /api/v1/user/create-profile
func (h *UserHandlers) createProfile(w http.ResponseWriter, r *http.Request) error {
	account, err := middleware.RequireAccountWithoutProfile(r.Context())
	if err != nil {
		return err
	}

	var req CreateProfileReq
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		return err
	}

	profile, err := h.users.CreateProfile(r.Context(), account, users.ProfileDetails{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DisplayName: req.DisplayName,
		City:        req.City,
	})
	if err != nil {
		return err
	}

	return httputil.WriteSuccess(w, profile)
}

// updateProfile handles PUT /api/v1/user/profile
func (h *UserHandlers) updateProfile(w http.ResponseWriter, r *http.Request) error {
	user, err := middleware.RequireProfile(r.Context())
	if err != nil {
		return err
	}

	var req CreateProfileReq
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		return err
	}

	updated, err := h.users.UpdateProfile(r.Context(), user, users.ProfileDetails{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DisplayName: req.DisplayName,
		City:        req.City,
	})
	if err != nil {
		return err
	}

	return httputil.WriteSuccess(w, updated)
}

// savePreferences handles POST /api/v1/user/preferences
func (h *UserHandlers) savePreferences(w http.ResponseWriter, r *http.Request) error {
	user, err := middleware.RequireProfile(r.Context())
	if err != nil {
		return err
	}

	var req SavePreferencesReq
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		return err
	}

	prefs := &users.Preferences{
		DressStyles: req.DressStyles,
		ClubGenres:  req.ClubGenres,
		AgeMin:      req.AgeMin,
		AgeMax:      req.AgeMax,
	}
	if err := h.users.SavePreferences(r.Context(), user, prefs); err != nil {
		return err
	}

	return httputil.WriteSuccess(w, StatusRes{Status: "ok"})
}

// getPreferences handles GET /api/v1/user/preferences
func (h *UserHandlers) getPreferences(w http.ResponseWriter, r *http.Request) error {
	user, err := middleware.RequireProfile(r.Context())
	if err != nil {
		return err
	}

	prefs, err := h.users.GetPreferences(r.Context(), user)
	if err != nil {
		return err
	}

	// prefs is nil when the user never saved any; the body is JSON null.
	return httputil.WriteSuccess(w, prefs)
}

// deleteAccount handles DELETE /api/v1/user/delete-account
func (h *UserHandlers) deleteAccount(w http.ResponseWriter, r *http.Request) error {
	user, err := middleware.RequireProfile(r.Context())
	if err != nil {
		return err
	}

	if err := h.users.DeleteAccount(r.Context(), user); err != nil {
		return err
	}

	return httputil.WriteSuccess(w, StatusRes{Status: "ok"})
}

// inviteUser handles POST /api/v1/user/invite (super admins only)
func (h *UserHandlers) inviteUser(w http.ResponseWriter, r *http.Request) error {
	admin, err := middleware.RequireSuperAdminProfile(r.Context())
	if err != nil {
		return err
	}

	var req InviteUserReq
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		return err
	}

	inv, err := h.users.InviteUser(r.Context(), admin, req.Email)
	if err != nil {
		return err
	}

	return httputil.WriteCreated(w, InviteUserRes{
		Token:     inv.Token,
		Email:     inv.Email,
		ExpiresAt: inv.ExpiresAt,
	})
}

// acceptInvitation handles POST /api/v1/user/accept-invitation (public)
func (h *UserHandlers) acceptInvitation(w http.ResponseWriter, r *http.Request) error {
	var req AcceptInvitationReq
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		return err
	}

	email, err := h.users.AcceptInvitation(r.Context(), req.Token)
	if err != nil {
		return err
	}

	return httputil.WriteSuccess(w, AcceptInvitationRes{Email: email})
}
