package view

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/etalasekita/etalase/internal/shared"
	"github.com/etalasekita/etalase/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	User        string
	Data        any
}

var printer = message.NewPrinter(language.Indonesian)

// NewEngine parses templates at build-time.
func NewEngine() (*Engine, error) {
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006 15:04")
		},
		"formatDay": formatDay,
		"inputDate": func(t *time.Time) string {
			if t == nil || t.IsZero() {
				return ""
			}
			return t.Format("2006-01-02")
		},
		"rupiah": Rupiah,
		"number": func(n int) string {
			return printer.Sprintf("%d", n)
		},
		"coord": func(v *float64) string {
			if v == nil {
				return ""
			}
			return strconv.FormatFloat(*v, 'f', -1, 64)
		},
		"idValue": func(v *int64) string {
			if v == nil {
				return ""
			}
			return strconv.FormatInt(*v, 10)
		},
		"boolValue": func(v *bool) bool {
			return v != nil && *v
		},
		"strValue": func(v *string) string {
			if v == nil {
				return ""
			}
			return *v
		},
		"json": func(v any) (string, error) {
			data, err := json.Marshal(v)
			return string(data), err
		},
		"fallback": func(def, v string) string {
			if v == "" {
				return def
			}
			return v
		},
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return e.templates.ExecuteTemplate(w, name, data)
}

// Rupiah formats an integer amount the Indonesian way, e.g. "Rp 15.000".
func Rupiah(amount int64) string {
	return printer.Sprintf("Rp %d", amount)
}

func formatDay(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format("02 Jan 2006")
}

// Responder renders console pages and redirects with flash messages.
type Responder struct {
	Templates *Engine
	CSRF      *shared.CSRFManager
	Logger    *slog.Logger
}

// Page renders a console page, attaching the CSRF token and pending flash.
func (p Responder) Page(w http.ResponseWriter, r *http.Request, name, title string, data any, status int) {
	sess := shared.SessionFromContext(r.Context())
	var csrfToken string
	if p.CSRF != nil {
		csrfToken, _ = p.CSRF.EnsureToken(r.Context(), sess)
	}
	var flash *shared.FlashMessage
	user := ""
	if sess != nil {
		flash = sess.PopFlash()
		user = sess.Get("email")
	}
	viewData := TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		User:        user,
		Data:        data,
	}
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := p.Templates.Render(w, name, viewData); err != nil && p.Logger != nil {
		p.Logger.Error("render template", slog.Any("error", err), slog.String("template", name))
	}
}

// Redirect queues a flash message and issues a 303 to location.
func (p Responder) Redirect(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if message != "" {
		shared.Flash(r.Context(), kind, message)
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
