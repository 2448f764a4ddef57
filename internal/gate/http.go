// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package gate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/sessiongate/internal/platform/apperr"
	"github.com/taibuivan/sessiongate/internal/platform/constants"
	"github.com/taibuivan/sessiongate/internal/platform/ctxutil"
	"github.com/taibuivan/sessiongate/internal/platform/respond"
	"github.com/taibuivan/sessiongate/internal/platform/validate"
	"github.com/taibuivan/sessiongate/internal/session"
)

// Watcher streams committed session records.
type Watcher interface {
	Watch(ctx context.Context, sessionID string) (<-chan session.State, error)
}

// Handler exposes the session and the gate to single-page clients.
type Handler struct {
	loader    StateLoader
	watcher   Watcher
	keepAlive time.Duration
}

// NewHandler constructs the session introspection API.
func NewHandler(loader StateLoader, watcher Watcher) *Handler {
	return &Handler{loader: loader, watcher: watcher, keepAlive: constants.EventKeepAliveInterval}
}

// Routes returns a [chi.Router] for the session API.
//
// The event stream is long-lived; mount this router outside request timeouts.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.state)
	router.Get("/gate", handler.evaluate)
	router.Get("/events", handler.events)
	return router
}

// # Handlers

// state returns the fail-closed session record of the caller.
func (handler *Handler) state(writer http.ResponseWriter, request *http.Request) {
	writer.Header().Set("Cache-Control", "no-store")
	respond.OK(writer, handler.loader.Load(request).State)
}

// evaluate answers the question the page guard answers, for a client-side router.
func (handler *Handler) evaluate(writer http.ResponseWriter, request *http.Request) {
	query := request.URL.Query()
	path := query.Get("path")

	validator := &validate.Validator{}
	validator.Required("path", path).SafePath("path", path)

	kind, err := ParseRouteKind(query.Get("kind"))
	validator.Custom("kind", err != nil, "Must be one of: protected, public")

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	writer.Header().Set("Cache-Control", "no-store")
	respond.OK(writer, Evaluate(kind, handler.loader.Load(request).State, path))
}

// Event is one Server-Sent Event payload.
type Event struct {
	State    session.State `json:"state"`
	Decision Decision      `json:"decision"`
}

/*
events streams the session as Server-Sent Events.

The first event describes the current record. Each further event follows a
commit to the same session, so a logout in another tab reaches every open tab.
The decision is evaluated for the "path" query parameter (default "/").
*/
func (handler *Handler) events(writer http.ResponseWriter, request *http.Request) {
	path := request.URL.Query().Get("path")
	if !validate.IsSafePath(path) {
		path = PathHome
	}

	controller := http.NewResponseController(writer)

	// Long-lived stream: lift the server write deadline.
	_ = controller.SetWriteDeadline(time.Time{})

	current := handler.loader.Load(request)

	var updates <-chan session.State
	if current.ID != "" {
		var err error
		updates, err = handler.watcher.Watch(request.Context(), current.ID)
		if err != nil {
			respond.Error(writer, request, apperr.ServiceUnavailable("Session events unavailable"))
			return
		}
	}

	header := writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-store")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	writer.WriteHeader(http.StatusOK)

	logger := ctxutil.GetLogger(request.Context())
	send := func(state session.State) bool {
		if err := writeEvent(writer, Event{State: state, Decision: Evaluate(Protected, state, path)}); err != nil {
			logger.DebugContext(request.Context(), "session_event_write_failed", slog.String("error", err.Error()))
			return false
		}
		return controller.Flush() == nil
	}

	if !send(current.State) || updates == nil {
		return
	}

	ticker := time.NewTicker(handler.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-request.Context().Done():
			return
		case state, ok := <-updates:
			if !ok || !send(state) {
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(writer, ": keep-alive\n\n"); err != nil || controller.Flush() != nil {
				return
			}
		}
	}
}

func writeEvent(writer http.ResponseWriter, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(writer, "event: session\ndata: %s\n\n", data)
	return err
}
