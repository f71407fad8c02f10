package web

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/kerru/bonsai/internal/autosave"
	"github.com/kerru/bonsai/internal/config"
	"github.com/kerru/bonsai/internal/ops"
	"github.com/kerru/bonsai/internal/prompt"
)

const sessionCookie = "bonsai_session"

// sessionManager tracks one autosave controller per browser session, so
// each open editor gets its own debounce timer and saved-signature marker.
type sessionManager struct {
	mu          sync.Mutex
	controllers map[string]*autosave.Controller
	db          *sql.DB
	cfg         *config.Config
	closed      bool
}

func newSessionManager(db *sql.DB, cfg *config.Config) *sessionManager {
	return &sessionManager{
		controllers: make(map[string]*autosave.Controller),
		db:          db,
		cfg:         cfg,
	}
}

// Controller returns the autosave controller for the request's session,
// creating the session cookie and controller on first contact.
func (m *sessionManager) Controller(w http.ResponseWriter, r *http.Request) *autosave.Controller {
	id := ""
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		id = c.Value
	}
	if id == "" {
		id = ulid.Make().String()
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		// Shutdown already started; hand back a closed controller so the
		// caller's Update calls are no-ops.
		c := autosave.New(m.saver(), autosave.Options{})
		c.Close()
		return c
	}

	if c, ok := m.controllers[id]; ok {
		return c
	}

	c := autosave.New(m.saver(), autosave.Options{
		Debounce: time.Duration(m.cfg.AutosaveDebounceMS) * time.Millisecond,
		OnError: func(err error) {
			log.Printf("autosave failed: %v", err)
		},
	})
	m.controllers[id] = c
	return c
}

// CloseAll cancels every pending autosave. Called on server shutdown.
func (m *sessionManager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	for id, c := range m.controllers {
		c.Close()
		delete(m.controllers, id)
	}
}

// saver adapts ops.Save to the autosave controller's Saver interface.
func (m *sessionManager) saver() autosave.Saver {
	return autosave.SaverFunc(func(_ context.Context, rec *prompt.Optimization) error {
		_, err := ops.Save(m.db, ops.SaveInput{
			OriginalPrompt:   rec.OriginalPrompt,
			OptimizedPrompt:  rec.OptimizedPrompt,
			EstimatedSavings: rec.EstimatedSavings,
		})
		return err
	})
}
