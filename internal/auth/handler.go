package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/etalasekita/etalase/internal/shared"
	"github.com/etalasekita/etalase/internal/view"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	guard          *Guard
	pages          view.Responder
	sessionManager *shared.SessionManager
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard *Guard, templates *view.Engine, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		guard:          guard,
		pages:          view.Responder{Templates: templates, CSRF: csrf, Logger: logger},
		sessionManager: sessions,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

type loginPageData struct {
	Form   loginForm
	Errors map[string]string
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if state, _ := h.guard.Check(r.Context(), sess); state == StateAuthenticated {
		http.Redirect(w, r, HomePath, http.StatusSeeOther)
		return
	}
	h.pages.Page(w, r, "pages/login.html", "Masuk", loginPageData{Errors: map[string]string{}}, http.StatusOK)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())

	form := loginForm{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
	errors := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			errors[fieldErr.Field()] = fieldMessage(fieldErr)
		}
	}

	if len(errors) == 0 {
		creds, err := h.service.Authenticate(r.Context(), form.Email, form.Password)
		if err != nil {
			h.logger.Info("login rejected", slog.String("email", form.Email), slog.Any("error", err))
			errors["general"] = "Email atau password tidak valid"
		} else if sess == nil {
			h.logger.Error("session missing during login")
			errors["general"] = "Sesi tidak tersedia, coba lagi"
		} else {
			returnTo := sess.Get(SessionReturnKey)
			h.sessionManager.Regenerate(sess)
			sess.SetUser(creds.Principal.ID)
			sess.Set(SessionTokenKey, creds.AccessToken)
			sess.Set("email", creds.Principal.Email)
			sess.Delete(SessionReturnKey)
			sess.AddFlash(shared.FlashMessage{Kind: shared.FlashSuccess, Message: "Selamat datang kembali"})
			rec := LoginRecord{
				SessionID: sess.ID,
				Principal: creds.Principal,
				ExpiresAt: creds.ExpiresAt,
				IP:        r.RemoteAddr,
				UserAgent: r.UserAgent(),
			}
			if err := h.service.RegisterSession(r.Context(), rec); err != nil {
				h.logger.Warn("register session", slog.Any("error", err))
			}
			http.Redirect(w, r, safeReturn(returnTo), http.StatusSeeOther)
			return
		}
	}

	form.Password = ""
	h.pages.Page(w, r, "pages/login.html", "Masuk", loginPageData{Form: form, Errors: errors}, http.StatusBadRequest)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if err := h.service.Logout(r.Context(), sess.ID, sess.Get(SessionTokenKey)); err != nil {
			h.logger.Warn("logout", slog.Any("error", err))
		}
		h.sessionManager.Destroy(sess)
	}
	http.Redirect(w, r, LoginPath, http.StatusSeeOther)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Wajib diisi"
	case "email":
		return "Format email tidak valid"
	case "min":
		return "Minimal " + fe.Param() + " karakter"
	default:
		return fe.Error()
	}
}

// safeReturn only follows local console paths.
func safeReturn(target string) string {
	if strings.HasPrefix(target, HomePath) && !strings.HasPrefix(target, "//") && target != LoginPath {
		return target
	}
	return HomePath
}
