// Package promo serves the one-time promotional dialog shown over the
// embedded storefront.
package promo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/faylit/appshell/internal/config"
)

// CookieName records which promo the browser has dismissed.
const CookieName = "appshell_promo_seen"

// Dialog is the rendering model of the promo.
type Dialog struct {
	ID      string
	Title   string
	Body    template.HTML
	CTAPath string
}

// Promo decides whether a request should see the dialog.
type Promo struct {
	enabled bool
	dialog  Dialog
}

// New renders the markdown body once.
func New(cfg config.PromoConfig) (*Promo, error) {
	p := &Promo{enabled: cfg.Enabled}
	if !cfg.Enabled {
		return p, nil
	}

	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var buf bytes.Buffer
	if err := md.Convert([]byte(cfg.Body), &buf); err != nil {
		return nil, fmt.Errorf("rendering promo body: %w", err)
	}

	p.dialog = Dialog{
		ID:      cfg.ID,
		Title:   cfg.Title,
		Body:    template.HTML(buf.String()),
		CTAPath: cfg.CTAPath,
	}
	return p, nil
}

// For returns the dialog for r, or nil when the promo is disabled or the
// browser already dismissed this promo.
func (p *Promo) For(r *http.Request) *Dialog {
	if !p.enabled {
		return nil
	}
	if c, err := r.Cookie(CookieName); err == nil && c.Value == p.dialog.ID {
		return nil
	}
	d := p.dialog
	return &d
}

// RegisterRoutes mounts the dismiss endpoint.
func (p *Promo) RegisterRoutes(r chi.Router) {
	r.Post("/api/promo/dismiss", p.handleDismiss)
}

func (p *Promo) handleDismiss(w http.ResponseWriter, r *http.Request) {
	if !p.enabled {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    p.dialog.ID,
		Path:     "/",
		Expires:  time.Now().AddDate(1, 0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"dismissed": p.dialog.ID})
}
