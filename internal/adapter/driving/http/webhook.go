package httphandler

import (
	"net/http"

	gh "github.com/google/go-github/v82/github"
)

// GitHubWebhook verifies, parses, and dispatches an inbound GitHub webhook
// delivery. Bad signatures and unparseable payloads are the sender's fault
// (400); a handler failure is ours (500). Events the dispatcher ignores
// still get a 202 so GitHub does not redeliver them.
func (h *Handler) GitHubWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := gh.ValidatePayload(r, h.webhookSecret)
	if err != nil {
		h.logger.Warn("webhook signature validation failed", "error", err)
		writeError(w, http.StatusBadRequest, "invalid payload signature")
		return
	}

	eventType := gh.WebHookType(r)
	event, err := gh.ParseWebHook(eventType, payload)
	if err != nil {
		h.logger.Warn("webhook parse failed", "event", eventType, "error", err)
		writeError(w, http.StatusBadRequest, "unparseable payload")
		return
	}

	h.logger.Info("webhook received",
		"event", eventType,
		"delivery", gh.DeliveryID(r),
	)

	if err := h.dispatcher.HandleEvent(r.Context(), event); err != nil {
		h.logger.Error("event handling failed", "event", eventType, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusAccepted)
}
