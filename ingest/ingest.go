// Package ingest exposes the event dispatcher over HTTP so an identity provider's
// event listener can forward callbacks as JSON.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/next-trace/scg-user-event-relay/contract/event"
	"github.com/next-trace/scg-user-event-relay/relay"
)

// MaxBodyBytes caps every request body.
const MaxBodyBytes = 1 << 20

// Dispatcher is the callback surface requests are forwarded to. *relay.Dispatcher implements it.
type Dispatcher interface {
	OnUserEvent(ctx context.Context, e *event.UserEvent)
	OnAdminEvent(ctx context.Context, e *event.AdminEvent, includeRepresentation bool)
}

var _ Dispatcher = (*relay.Dispatcher)(nil)

// NewHandler routes:
//
//	POST /events/user                               body: UserEvent
//	POST /events/admin[?includeRepresentation=true] body: AdminEvent
//	GET  /healthz
//
// A body that is not valid JSON is answered with 400. Every decoded event is answered
// with 202 once dispatch returns, whatever the classification or delivery outcome.
func NewHandler(d Dispatcher, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	h := &handler{d: d, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /events/user", h.userEvent)
	mux.HandleFunc("POST /events/admin", h.adminEvent)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return otelhttp.NewHandler(mux, "relay.ingest")
}

type handler struct {
	d      Dispatcher
	logger *slog.Logger
}

func (h *handler) userEvent(w http.ResponseWriter, r *http.Request) {
	var e event.UserEvent
	if !h.decode(w, r, &e) {
		return
	}

	h.d.OnUserEvent(r.Context(), &e)
	w.WriteHeader(http.StatusAccepted)
}

func (h *handler) adminEvent(w http.ResponseWriter, r *http.Request) {
	include := false

	if v := r.URL.Query().Get("includeRepresentation"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, "includeRepresentation must be a boolean", http.StatusBadRequest)
			return
		}

		include = b
	}

	var e event.AdminEvent
	if !h.decode(w, r, &e) {
		return
	}

	h.d.OnAdminEvent(r.Context(), &e, include)
	w.WriteHeader(http.StatusAccepted)
}

func (h *handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}

	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return false
	}

	h.logger.WarnContext(r.Context(), "rejecting malformed event", "path", r.URL.Path, "error", err)
	http.Error(w, "malformed event", http.StatusBadRequest)

	return false
}
