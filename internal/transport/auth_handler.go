package transport

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RegisterForm represents the registration form fields
type RegisterForm struct {
	Name     string `form:"name" validate:"required"`
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required,max=72"`
	Phone    string `form:"phone" validate:"required"`
	Address  string `form:"address" validate:"required"`
	Answer   string `form:"answer" validate:"required,max=72"`
}

// ProfileForm represents the profile update form fields
type ProfileForm struct {
	Name     string `form:"name"`
	Phone    string `form:"phone"`
	Address  string `form:"address"`
	Password string `form:"password" validate:"omitempty,min=6,max=72"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ForgotPasswordRequest represents the password reset payload
type ForgotPasswordRequest struct {
	Email       string `json:"email" validate:"required"`
	Answer      string `json:"answer" validate:"required,max=72"`
	NewPassword string `json:"newPassword" validate:"required,max=72"`
}

// AuthHandler handles HTTP requests for account operations
type AuthHandler struct {
	userService   service.UserService
	maxPhotoBytes int64
	logger        *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userService service.UserService, maxPhotoBytes int64, logger *zap.Logger) *AuthHandler {
	if maxPhotoBytes <= 0 {
		maxPhotoBytes = service.DefaultMaxPhotoBytes
	}
	return &AuthHandler{
		userService:   userService,
		maxPhotoBytes: maxPhotoBytes,
		logger:        logger,
	}
}

// RegisterRoutes registers the account routes on the /auth group
func (h *AuthHandler) RegisterRoutes(r chi.Router, gates Gates) {
	// Public routes
	r.Group(func(r chi.Router) {
		r.Use(gates.rateLimited())
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/forgot-password", h.ForgotPassword)
	})
	r.Get("/get-photo/{id}", h.GetPhoto)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(gates.Auth)
		r.Get("/user-auth", h.UserAuth)
		r.Put("/profile", h.UpdateProfile)

		r.With(gates.Admin).Get("/admin-auth", h.UserAuth)
	})
}

// Register handles account registration
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r, h.maxPhotoBytes) {
		return
	}

	form := RegisterForm{
		Name:     r.FormValue("name"),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
		Phone:    r.FormValue("phone"),
		Address:  r.FormValue("address"),
		Answer:   r.FormValue("answer"),
	}
	if err := middleware.ValidateRequest(&form); err != nil {
		h.logger.Debug("Registration validation failed", zap.Error(err))
		middleware.RespondWithRequestError(w, err)
		return
	}

	photo, err := readPhoto(r, h.maxPhotoBytes)
	if err != nil {
		h.logger.Debug("Failed to read photo", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, middleware.ErrMalformedBody.Error())
		return
	}

	user, err := h.userService.Register(r.Context(), service.RegisterInput{
		Name:     form.Name,
		Email:    form.Email,
		Password: form.Password,
		Phone:    form.Phone,
		Address:  form.Address,
		Answer:   form.Answer,
		Photo:    photo,
	})
	if err != nil {
		respondServiceError(w, h.logger, err, "error in registration")
		return
	}

	h.logger.Info("User registered successfully", zap.String("user_id", user.ID.String()))
	respondSuccess(w, http.StatusCreated, "user registered successfully", envelope{"user": user.Profile()})
}

// Login handles user authentication
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Login validation failed", zap.Error(err))
		middleware.RespondWithRequestError(w, err)
		return
	}

	token, user, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, h.logger, err, "error in login")
		return
	}

	h.logger.Info("User logged in successfully", zap.String("user_id", user.ID.String()))
	respondSuccess(w, http.StatusOK, "login successfully", envelope{
		"user":  user.Profile(),
		"token": token,
	})
}

// ForgotPassword handles password reset through the security answer
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Forgot password validation failed", zap.Error(err))
		middleware.RespondWithRequestError(w, err)
		return
	}

	if err := h.userService.ForgotPassword(r.Context(), req.Email, req.Answer, req.NewPassword); err != nil {
		respondServiceError(w, h.logger, err, "something went wrong")
		return
	}

	respondSuccess(w, http.StatusOK, "password reset successfully", nil)
}

// UserAuth confirms the caller passed the route's gates
func (h *AuthHandler) UserAuth(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// UpdateProfile handles changes to the caller's own profile
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Error("User ID not found in context")
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if !parseForm(w, r, h.maxPhotoBytes) {
		return
	}

	form := ProfileForm{
		Name:     r.FormValue("name"),
		Phone:    r.FormValue("phone"),
		Address:  r.FormValue("address"),
		Password: r.FormValue("password"),
	}
	if err := middleware.ValidateRequest(&form); err != nil {
		middleware.RespondWithRequestError(w, err)
		return
	}

	photo, err := readPhoto(r, h.maxPhotoBytes)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, middleware.ErrMalformedBody.Error())
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), userID, service.ProfileInput{
		Name:     form.Name,
		Phone:    form.Phone,
		Address:  form.Address,
		Password: form.Password,
		Photo:    photo,
	})
	if err != nil {
		respondServiceError(w, h.logger, err, "error while updating profile")
		return
	}

	respondSuccess(w, http.StatusOK, "profile updated successfully", envelope{"user": user.Profile()})
}

// GetPhoto streams a user's photo
func (h *AuthHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	userID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	blob, err := h.userService.GetPhoto(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.logger, err, "error while getting photo")
		return
	}

	respondPhoto(w, blob)
}
