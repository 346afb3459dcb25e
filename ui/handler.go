package ui

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/youssefsiam38/agentctx/audit"
	"github.com/youssefsiam38/agentctx/compaction"
	"github.com/youssefsiam38/agentctx/storage"
)

// Handler returns an http.Handler serving the audit log and compaction state.
//
// events is required. state may be nil, in which case the state pages
// respond 404.
//
// Usage:
//
//	http.Handle("/ui/", http.StripPrefix("/ui", ui.Handler(store, engine, cfg)))
func Handler(events EventSource, state StateSource, cfg *Config) http.Handler {
	if events == nil {
		panic("ui: event source is required")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		c := *cfg
		cfg = &c
		cfg.applyDefaults()
	}

	// Validate configuration (panic on invalid config as this is a programmer error)
	if err := cfg.validate(); err != nil {
		panic("ui: invalid configuration: " + err.Error())
	}

	r := &router{
		events:   events,
		state:    state,
		config:   cfg,
		renderer: newRenderer(cfg),
	}

	mux := http.NewServeMux()

	// Pages
	mux.HandleFunc("GET /{$}", r.handleRedirectToEvents)
	mux.HandleFunc("GET /events", r.handleEvents)
	mux.HandleFunc("GET /events/{id}", r.handleEventDetail)
	mux.HandleFunc("GET /state", r.handleState)

	// JSON API
	mux.HandleFunc("GET /api/events", r.handleAPIListEvents)
	mux.HandleFunc("GET /api/events/{id}", r.handleAPIGetEvent)
	mux.HandleFunc("GET /api/state", r.handleAPIState)

	return recoveryMiddleware(mux, cfg.Logger)
}

// router holds the handler state.
type router struct {
	events   EventSource
	state    StateSource
	config   *Config
	renderer *renderer
}

// recoveryMiddleware recovers from panics.
func recoveryMiddleware(next http.Handler, logger Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if logger != nil {
					logger.Error("panic recovered", "error", err, "path", r.URL.Path)
				}
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// EventsPage is the data behind the event list.
type EventsPage struct {
	Events    []*audit.Event
	Type      string
	SessionID string
	RunID     string
	Limit     int
	Offset    int
	HasPrev   bool
	HasMore   bool
	PrevQuery string
	NextQuery string
}

// StatePage is the data behind the state view.
type StatePage struct {
	Config         compaction.Config `json:"config"`
	State          compaction.State  `json:"state"`
	RemainingCalls int               `json:"remainingCalls"`
}

func (r *router) handleRedirectToEvents(w http.ResponseWriter, req *http.Request) {
	http.Redirect(w, req, r.config.BasePath+"/events", http.StatusFound)
}

func (r *router) handleEvents(w http.ResponseWriter, req *http.Request) {
	filter, err := r.parseFilter(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Fetch one extra row to learn whether another page exists
	probe := filter
	probe.Limit++
	events, err := r.events.ListAuditEvents(req.Context(), probe)
	if err != nil {
		r.serverError(w, "failed to list audit events", err)
		return
	}

	page := EventsPage{
		Type:      req.URL.Query().Get("type"),
		SessionID: filter.SessionID,
		RunID:     filter.RunID,
		Limit:     filter.Limit,
		Offset:    filter.Offset,
		HasPrev:   filter.Offset > 0,
	}
	if len(events) > filter.Limit {
		events = events[:filter.Limit]
		page.HasMore = true
	}
	page.Events = events
	page.PrevQuery = pageQuery(req.URL.Query(), max(filter.Offset-filter.Limit, 0))
	page.NextQuery = pageQuery(req.URL.Query(), filter.Offset+filter.Limit)

	if err := r.renderer.render(w, req, "events.html", page); err != nil {
		r.serverError(w, "failed to render events", err)
	}
}

func (r *router) handleEventDetail(w http.ResponseWriter, req *http.Request) {
	event, err := r.events.GetAuditEvent(req.Context(), req.PathValue("id"))
	if errors.Is(err, storage.ErrEventNotFound) {
		http.NotFound(w, req)
		return
	}
	if err != nil {
		r.serverError(w, "failed to get audit event", err)
		return
	}

	if err := r.renderer.render(w, req, "event_detail.html", event); err != nil {
		r.serverError(w, "failed to render event", err)
	}
}

func (r *router) handleState(w http.ResponseWriter, req *http.Request) {
	page, ok := r.statePage()
	if !ok {
		http.Error(w, ErrNoStateSource.Error(), http.StatusNotFound)
		return
	}

	if err := r.renderer.render(w, req, "state.html", page); err != nil {
		r.serverError(w, "failed to render state", err)
	}
}

func (r *router) statePage() (StatePage, bool) {
	if r.state == nil {
		return StatePage{}, false
	}
	cfg := r.state.Config()
	st := r.state.State()
	return StatePage{
		Config:         cfg,
		State:          st,
		RemainingCalls: max(cfg.SummaryMaxCalls-st.SummaryCalls, 0),
	}, true
}

// parseFilter builds a storage filter from query parameters.
func (r *router) parseFilter(req *http.Request) (storage.AuditFilter, error) {
	q := req.URL.Query()
	filter := storage.AuditFilter{
		SessionID: q.Get("session"),
		RunID:     q.Get("run"),
		Limit:     parseInt(req, "limit", r.config.PageSize),
		Offset:    parseOffset(req, "offset", 0),
	}

	switch t := audit.EventType(q.Get("type")); t {
	case "":
	case audit.TypeSummaryUpdated, audit.TypeSummaryFailed:
		filter.Types = []audit.EventType{t}
	default:
		return filter, ErrBadRequest
	}

	return filter, nil
}

func (r *router) serverError(w http.ResponseWriter, msg string, err error) {
	if r.config.Logger != nil {
		r.config.Logger.Error(msg, "error", err)
	}
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func pageQuery(q url.Values, offset int) string {
	out := url.Values{}
	for k, v := range q {
		out[k] = v
	}
	out.Set("offset", strconv.Itoa(offset))
	return out.Encode()
}

// parseInt parses an integer from a query parameter with a default.
// It applies bounds validation to prevent resource exhaustion.
func parseInt(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return min(max(i, 1), MaxPageSize)
}

// parseOffset parses an offset from a query parameter with a default.
func parseOffset(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 0 {
		return defaultVal
	}
	return i
}

// Response wraps all API responses.
type Response struct {
	Data  any       `json:"data,omitempty"`
	Error *APIError `json:"error,omitempty"`
	Meta  *Meta     `json:"meta,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Meta contains pagination metadata.
type Meta struct {
	HasMore bool `json:"has_more,omitempty"`
	Limit   int  `json:"limit,omitempty"`
	Offset  int  `json:"offset,omitempty"`
}

// APIEvent pairs an event's storage ID with its record. The record uses the
// same shape as the audit files.
type APIEvent struct {
	ID     string      `json:"id"`
	Record audit.Event `json:"record"`
}

func newAPIEvent(event *audit.Event) APIEvent {
	return APIEvent{ID: event.ID, Record: *event}
}

func writeJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Response{Error: &APIError{Code: code, Message: message}})
}

func (r *router) handleAPIListEvents(w http.ResponseWriter, req *http.Request) {
	filter, err := r.parseFilter(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "unknown event type")
		return
	}

	probe := filter
	probe.Limit++
	events, err := r.events.ListAuditEvents(req.Context(), probe)
	if err != nil {
		if r.config.Logger != nil {
			r.config.Logger.Error("failed to list audit events", "error", err)
		}
		writeError(w, http.StatusInternalServerError, "internal", "failed to list audit events")
		return
	}

	meta := &Meta{Limit: filter.Limit, Offset: filter.Offset}
	if len(events) > filter.Limit {
		events = events[:filter.Limit]
		meta.HasMore = true
	}
	out := make([]APIEvent, 0, len(events))
	for _, event := range events {
		out = append(out, newAPIEvent(event))
	}
	writeJSON(w, http.StatusOK, Response{Data: out, Meta: meta})
}

func (r *router) handleAPIGetEvent(w http.ResponseWriter, req *http.Request) {
	event, err := r.events.GetAuditEvent(req.Context(), req.PathValue("id"))
	if errors.Is(err, storage.ErrEventNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "audit event not found")
		return
	}
	if err != nil {
		if r.config.Logger != nil {
			r.config.Logger.Error("failed to get audit event", "error", err)
		}
		writeError(w, http.StatusInternalServerError, "internal", "failed to get audit event")
		return
	}
	writeJSON(w, http.StatusOK, Response{Data: newAPIEvent(event)})
}

func (r *router) handleAPIState(w http.ResponseWriter, _ *http.Request) {
	page, ok := r.statePage()
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", ErrNoStateSource.Error())
		return
	}
	writeJSON(w, http.StatusOK, Response{Data: page})
}
