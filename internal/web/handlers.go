package web

import (
	"database/sql"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/kerru/bonsai/internal/config"
	"github.com/kerru/bonsai/internal/errors"
	"github.com/kerru/bonsai/internal/ops"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	renderer *Renderer
	sessions *sessionManager
}

// HandleOptimizePage handles GET /optimize — the optimizer editor.
func (h *Handlers) HandleOptimizePage(w http.ResponseWriter, r *http.Request) {
	h.renderer.renderPage(w, r, "optimize", OptimizePageData{
		PageData: PageData{
			Title:   "Optimize",
			Version: h.renderer.version,
			Nav:     "optimize",
		},
		DebounceMS: h.cfg.AutosaveDebounceMS,
	})
}

// HandleOptimize handles POST /optimize — run the rule pipeline on a prompt.
// Each run feeds the session's autosave controller, which persists the
// result once the input settles.
func (h *Handlers) HandleOptimize(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	promptText := r.FormValue("prompt")
	ctrl := h.sessions.Controller(w, r)

	data := OptimizePageData{
		PageData: PageData{
			Title:   "Optimize",
			Version: h.renderer.version,
			Nav:     "optimize",
		},
		Prompt:     promptText,
		DebounceMS: h.cfg.AutosaveDebounceMS,
	}

	if strings.TrimSpace(promptText) == "" {
		// Cleared editor: drop any pending autosave and show the empty state.
		ctrl.Reset()
		if r.Header.Get("HX-Request") == "true" {
			h.renderer.renderBlock(w, http.StatusOK, "optimize", "results", data)
			return
		}
		h.renderer.renderPage(w, r, "optimize", data)
		return
	}

	result, err := ops.Optimize(h.cfg, ops.OptimizeInput{Prompt: promptText})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	ctrl.Update(result.OriginalPrompt, result.OptimizedPrompt, &result.Stats)

	data.Result = result

	if r.Header.Get("HX-Request") == "true" {
		h.renderer.renderBlock(w, http.StatusOK, "optimize", "results", data)
		return
	}
	h.renderer.renderPage(w, r, "optimize", data)
}

// HandleSave handles POST /optimize/save — explicit save of the current result.
func (h *Handlers) HandleSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	savings := 0.0
	if s := r.FormValue("estimated_savings"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			h.renderer.renderError(w, r, errors.NewInvalidRequest("estimated_savings must be a number"))
			return
		}
		savings = v
	}

	result, err := ops.Save(h.db, ops.SaveInput{
		OriginalPrompt:   r.FormValue("original_prompt"),
		OptimizedPrompt:  r.FormValue("optimized_prompt"),
		EstimatedSavings: savings,
	})

	data := SaveResultData{}
	switch {
	case err == nil:
		data.Saved = true
		data.ID = result.ID
		data.Message = "Saved to history"
	case errors.Is(err, errors.ErrDuplicate):
		// Same content pair already on record; present it as saved.
		data.Saved = true
		data.AlreadySaved = true
		data.Message = "Already in history"
	default:
		h.renderer.renderError(w, r, err)
		return
	}

	if r.Header.Get("HX-Request") == "true" {
		h.renderer.renderBlock(w, http.StatusOK, "optimize", "save-status", data)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, map[string]any{
			"saved":         data.Saved,
			"already_saved": data.AlreadySaved,
			"id":            data.ID,
		})
		return
	}

	http.Redirect(w, r, "/history", http.StatusFound)
}

// HandleHistory handles GET /history — list saved optimizations.
func (h *Handlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	result, err := ops.List(h.db, ops.ListInput{
		Limit:  parseIntParam(r, "limit", h.cfg.HistoryLimit),
		Offset: parseIntParam(r, "offset", 0),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "history", HistoryPageData{
		PageData: PageData{
			Title:   "History",
			Version: h.renderer.version,
			Nav:     "history",
		},
		Items:      result.Items,
		Pagination: result.Pagination,
	})
}

// HandleDetail handles GET /history/{id} — view a single saved optimization.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("optimization ID is required"))
		return
	}

	entry, err := ops.Get(h.db, ops.GetInput{ID: id})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "detail", DetailPageData{
		PageData: PageData{
			Title:   "Optimization " + truncate(entry.ID, 10),
			Version: h.renderer.version,
			Nav:     "history",
		},
		Entry: entry,
	})
}

// HandleClear handles POST /history/clear — delete the entire history.
func (h *Handlers) HandleClear(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	if r.FormValue("confirm") != "true" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("confirm parameter must be \"true\""))
		return
	}

	result, err := ops.Clear(h.db)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	// Partial request: return HTML fragment
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`<div class="clear-result">` + template.HTMLEscapeString(result.Message) + `</div>`))
		return
	}

	// JSON request
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, map[string]any{
			"cleared": result.Cleared,
			"message": result.Message,
		})
		return
	}

	// Default: redirect
	http.Redirect(w, r, "/history", http.StatusFound)
}

// HandleReport handles GET /report — aggregate statistics page.
func (h *Handlers) HandleReport(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Report(h.db)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "report", ReportPageData{
		PageData: PageData{
			Title:   "Report",
			Version: h.renderer.version,
			Nav:     "report",
		},
		Report: result,
	})
}

// HandleGuide handles GET /guide — the optimization guide.
func (h *Handlers) HandleGuide(w http.ResponseWriter, r *http.Request) {
	h.renderer.renderPage(w, r, "guide", GuidePageData{
		PageData: PageData{
			Title:   "Guide",
			Version: h.renderer.version,
			Nav:     "guide",
		},
		RenderedHTML: renderMarkdown(guideMarkdown),
	})
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
