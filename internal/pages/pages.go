// Package pages serves the browser side of the shell: the deep-link route
// surface, the shell script, the service worker and the app manifest.
package pages

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/faylit/appshell/internal/navbar"
	"github.com/faylit/appshell/internal/promo"
	"github.com/faylit/appshell/internal/target"
)

// DefaultWSPath is where the bridge websocket is mounted.
const DefaultWSPath = "/ws/frame"

type shellData struct {
	Title       string
	Description string
	InitialPath string
	WSPath      string
	Sandbox     string
	Nav         []navbar.ItemView
	Promo       *promo.Dialog
}

// Handler renders the shell page.
type Handler struct {
	builder *target.Builder
	bar     *navbar.Bar
	promo   *promo.Promo
	wsPath  string
	tmpl    *template.Template
	log     zerolog.Logger
}

// New parses the shell template. p may be nil to disable the promo dialog.
func New(b *target.Builder, bar *navbar.Bar, p *promo.Promo, log zerolog.Logger) (*Handler, error) {
	tmpl, err := template.New("shell").Funcs(template.FuncMap{
		"icon": func(name string) template.HTML { return template.HTML(icons[name]) },
	}).Parse(shellTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing shell template: %w", err)
	}
	return &Handler{
		builder: b,
		bar:     bar,
		promo:   p,
		wsPath:  DefaultWSPath,
		tmpl:    tmpl,
		log:     log,
	}, nil
}

// RegisterRoutes mounts the static assets and the catch-all deep-link route.
// It must be called after every other route is registered.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sw.js", handleWorker)
	r.Get("/shell.js", handleShellScript)
	r.Get("/manifest.webmanifest", h.handleManifest)
	r.Get("/favicon.ico", h.handleFavicon)
	r.Get("/*", h.handleShell)
}

// InitialPath maps a deep-link request to the controller's initial target.
func InitialPath(r *http.Request) string {
	path := strings.Join(Segments(r.URL.Path), "/")
	if r.URL.RawQuery != "" {
		path += "?" + r.URL.RawQuery
	}
	return path
}

// observed is the path the navigation bar sees for initial before the frame
// reports back, in the same form the controller predicts.
func (h *Handler) observed(initial string) string {
	path, err := h.builder.ObservedPath(h.builder.Build(initial))
	if err != nil {
		return initial
	}
	return path
}

func (h *Handler) handleShell(w http.ResponseWriter, r *http.Request) {
	segments := Segments(r.URL.Path)
	initial := InitialPath(r)

	data := shellData{
		Title:       documentTitle(segments),
		Description: documentDescription(segments),
		InitialPath: initial,
		WSPath:      h.wsPath,
		Sandbox:     frameSandbox,
		Nav:         h.bar.View(h.observed(initial)),
	}
	if h.promo != nil {
		data.Promo = h.promo.For(r)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.Execute(w, data); err != nil {
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("rendering shell")
	}
}

func handleShellScript(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write([]byte(shellScript))
}

func handleWorker(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Service-Worker-Allowed", "/")
	w.Write([]byte(workerScript))
}

func (h *Handler) handleFavicon(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.builder.Origin()+"/favicon.ico", http.StatusFound)
}

type manifestIcon struct {
	Src   string `json:"src"`
	Sizes string `json:"sizes"`
	Type  string `json:"type"`
}

type manifest struct {
	Name            string         `json:"name"`
	ShortName       string         `json:"short_name"`
	Description     string         `json:"description"`
	Lang            string         `json:"lang"`
	StartURL        string         `json:"start_url"`
	Scope           string         `json:"scope"`
	Display         string         `json:"display"`
	BackgroundColor string         `json:"background_color"`
	ThemeColor      string         `json:"theme_color"`
	Icons           []manifestIcon `json:"icons"`
}

func (h *Handler) handleManifest(w http.ResponseWriter, r *http.Request) {
	m := manifest{
		Name:            "Faylit E-Mağaza",
		ShortName:       siteName,
		Description:     defaultDescription,
		Lang:            "tr",
		StartURL:        "/",
		Scope:           "/",
		Display:         "standalone",
		BackgroundColor: "#ffffff",
		ThemeColor:      "#111111",
		Icons: []manifestIcon{
			{Src: "/favicon.ico", Sizes: "48x48", Type: "image/x-icon"},
		},
	}
	w.Header().Set("Content-Type", "application/manifest+json")
	json.NewEncoder(w).Encode(m)
}
