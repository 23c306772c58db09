// Package httphandler is the HTTP driving adapter: the GitHub webhook
// endpoint, the snapshot catalog ping-back, and a small inspection API.
package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mudlet/deploylinks/internal/adapter/driving/web"
	"github.com/mudlet/deploylinks/internal/application"
	"github.com/mudlet/deploylinks/internal/domain/port/driven"
)

// Handler serves the bot's HTTP surface.
type Handler struct {
	dispatcher    *application.Dispatcher
	webhookSecret []byte
	logger        *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(dispatcher *application.Dispatcher, webhookSecret []byte, logger *slog.Logger) *Handler {
	return &Handler{
		dispatcher:    dispatcher,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/github/webhooks", h.GitHubWebhook)
	mux.HandleFunc("POST /snapshots/new", h.SnapshotsNew)
	mux.HandleFunc("GET /api/v1/repos/{owner}/{repo}/prs/{number}/comment", h.CommentPreview)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// SnapshotsNew handles the catalog's push notification that new snapshots
// exist. The body is a JSON array of PR numbers; owner and repo arrive as
// query parameters. Responds 204 on success (with an X-Last-PR-Number
// header), 400 on missing parameters or malformed JSON, 404 when the app is
// not installed on the repository, and 500 on any other upstream error.
func (h *Handler) SnapshotsNew(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	repo := r.URL.Query().Get("repo")
	if owner == "" || repo == "" {
		writeError(w, http.StatusBadRequest, "missing owner or repo parameter")
		return
	}

	var prNumbers []int
	if err := json.NewDecoder(r.Body).Decode(&prNumbers); err != nil {
		writeError(w, http.StatusBadRequest, "body must be a JSON array of PR numbers")
		return
	}

	lastPR, err := h.dispatcher.ProcessSnapshotPing(r.Context(), owner, repo, prNumbers)
	if err != nil {
		if errors.Is(err, driven.ErrNoInstallation) {
			writeError(w, http.StatusNotFound, "app not installed on given owner/repo")
			return
		}
		h.logger.Error("snapshot ping failed", "owner", owner, "repo", repo, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("X-Last-PR-Number", strconv.Itoa(lastPR))
	w.WriteHeader(http.StatusNoContent)
}

// CommentPreview renders the PR's current bot comment as sanitized HTML for
// quick inspection.
func (h *Handler) CommentPreview(w http.ResponseWriter, r *http.Request) {
	owner := r.PathValue("owner")
	repo := r.PathValue("repo")

	number, err := strconv.Atoi(r.PathValue("number"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid PR number")
		return
	}

	body, err := h.dispatcher.FindComment(r.Context(), owner, repo, number)
	if err != nil {
		switch {
		case errors.Is(err, driven.ErrNoInstallation):
			writeError(w, http.StatusNotFound, "app not installed on given owner/repo")
		case errors.Is(err, application.ErrNoComment):
			writeError(w, http.StatusNotFound, "bot comment not found")
		default:
			h.logger.Error("comment preview failed", "owner", owner, "repo", repo, "pr", number, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(web.RenderMarkdown(body)))
}

// Health is the liveness endpoint.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
