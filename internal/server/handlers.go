package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-biz-monitor/internal/analyzer"
	"github.com/penwyp/go-biz-monitor/internal/core/model"
	"github.com/penwyp/go-biz-monitor/internal/core/timeline"
	"github.com/penwyp/go-biz-monitor/internal/data/aggregator"
	"github.com/penwyp/go-biz-monitor/internal/data/loader"
	"github.com/penwyp/go-biz-monitor/internal/presentation/formatter"
	"github.com/penwyp/go-biz-monitor/internal/util"
)

var (
	// ErrRecordNotFound is returned for ids missing from the snapshot.
	ErrRecordNotFound = errors.New("record not found")
	// ErrNotLoaded is returned while no snapshot could be loaded.
	ErrNotLoaded = errors.New("records not loaded")
)

// badRequestError marks query validation failures
type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &badRequestError{msg: fmt.Sprintf(format, args...)}
}

// routeError is a request the mux could not route to any handler
type routeError struct {
	status int
	msg    string
}

func (e *routeError) Error() string { return e.msg }

type handler struct {
	store      *Store
	urgentDays int
	now        func() time.Time
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

type recordResponse struct {
	UrgentDays int                  `json:"urgentDays"`
	Record     model.ResolvedRecord `json:"record"`
	Timeline   []model.StatusEvent  `json:"timeline"`
}

type healthResponse struct {
	Status   string    `json:"status"`
	Records  int       `json:"records"`
	Files    int       `json:"files"`
	LoadedAt time.Time `json:"loadedAt,omitempty"`
}

func (h *handler) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.handleHealth)
	mux.HandleFunc("GET /api/records", h.handleListRecords)
	mux.HandleFunc("GET /api/records/{id}", h.handleGetRecord)
	mux.HandleFunc("GET /api/summary", h.handleSummary)
	return h.unrouted(mux)
}

// unrouted answers requests that match no pattern with the JSON error body
// instead of the mux's plain-text 404 and 405 pages. The mux still decides
// the status and the Allow header.
func (h *handler) unrouted(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fallback, pattern := mux.Handler(r)
		if pattern != "" {
			mux.ServeHTTP(w, r)
			return
		}

		capture := &statusCapture{header: make(http.Header)}
		fallback.ServeHTTP(capture, r)
		if capture.status < http.StatusBadRequest {
			// path cleaning redirects
			mux.ServeHTTP(w, r)
			return
		}
		if allow := capture.header.Get("Allow"); allow != "" {
			w.Header().Set("Allow", allow)
		}

		msg := fmt.Sprintf("no route for %s", r.URL.Path)
		if capture.status == http.StatusMethodNotAllowed {
			msg = fmt.Sprintf("method %s not allowed for %s", r.Method, r.URL.Path)
		}
		h.writeError(w, r, &routeError{status: capture.status, msg: msg})
	})
}

// statusCapture records the status a fallback handler would have written
type statusCapture struct {
	header http.Header
	status int
}

func (c *statusCapture) Header() http.Header { return c.header }

func (c *statusCapture) WriteHeader(status int) {
	if c.status == 0 {
		c.status = status
	}
}

func (c *statusCapture) Write(p []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusNotFound
	}
	return len(p), nil
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if snapshot := h.store.Snapshot(); snapshot != nil {
		resp.Records = len(snapshot.Records)
		resp.Files = len(snapshot.Files)
		resp.LoadedAt = snapshot.LoadedAt
	} else {
		resp.Status = "loading"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleListRecords(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	snapshot, resolver, err := h.prepare(query)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	kinds, err := analyzer.ParseKinds(query.Get("kind"))
	if err != nil {
		h.writeError(w, r, badRequest("%v", err))
		return
	}
	urgentOnly := false
	if raw := query.Get("urgentOnly"); raw != "" {
		if urgentOnly, err = strconv.ParseBool(raw); err != nil {
			h.writeError(w, r, badRequest("invalid urgentOnly %q", raw))
			return
		}
	}
	limit, err := intParam(query, "limit")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	filter := analyzer.RecordFilter{
		Kinds:      kinds,
		Statuses:   analyzer.ParseStatuses(query.Get("status")),
		UrgentOnly: urgentOnly,
	}
	records := filter.PostFilter(resolver.Resolve(filter.PreFilter(snapshot.Records)))
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	report := &formatter.Report{
		GeneratedAt: resolver.Now(),
		UrgentDays:  resolver.UrgentDays(),
		Records:     records,
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := formatter.NewJSONFormatter().Format(w, report); err != nil {
		util.LogError("Failed to write records response", util.F("error", err.Error()))
	}
}

func (h *handler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	snapshot, resolver, err := h.prepare(r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	id := r.PathValue("id")
	record, ok := snapshot.Find(id)
	if !ok {
		h.writeError(w, r, fmt.Errorf("%w: %s", ErrRecordNotFound, id))
		return
	}

	writeJSON(w, http.StatusOK, recordResponse{
		UrgentDays: resolver.UrgentDays(),
		Record:     resolver.ResolveOne(record),
		Timeline:   timeline.SortedHistory(record),
	})
}

func (h *handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	snapshot, resolver, err := h.prepare(r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	_, summary := aggregator.NewAggregator(resolver).Aggregate(snapshot.Records)
	writeJSON(w, http.StatusOK, summary)
}

// prepare returns the current snapshot and a resolver pinned to one instant,
// honouring a per-request urgentDays override
func (h *handler) prepare(query url.Values) (*loader.Snapshot, *timeline.Resolver, error) {
	days := h.urgentDays
	if query.Has("urgentDays") {
		override, err := intParam(query, "urgentDays")
		if err != nil {
			return nil, nil, err
		}
		if err := timeline.ValidateUrgentDays(override); err != nil {
			return nil, nil, badRequest("invalid urgentDays: %v", err)
		}
		days = override
	}

	snapshot := h.store.Snapshot()
	if snapshot == nil {
		return nil, nil, ErrNotLoaded
	}

	now := h.now()
	resolver := timeline.NewResolver(days).WithClock(func() time.Time { return now })
	return snapshot, resolver, nil
}

// intParam reads a non-negative integer; absent means 0
func intParam(query url.Values, name string) (int, error) {
	raw := query.Get(name)
	if raw == "" {
		if query.Has(name) {
			return 0, badRequest("invalid %s: empty value", name)
		}
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, badRequest("invalid %s %q: must be a non-negative integer", name, raw)
	}
	return value, nil
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	var badReq *badRequestError
	var routeErr *routeError
	switch {
	case errors.As(err, &badReq):
		status = http.StatusBadRequest
	case errors.As(err, &routeErr) && routeErr.status != 0:
		status = routeErr.status
	case errors.Is(err, ErrRecordNotFound):
		status = http.StatusNotFound
	}
	if status >= http.StatusInternalServerError {
		util.LogError("Request failed", util.F("request_id", RequestID(r.Context())), util.F("error", err.Error()))
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), RequestID: RequestID(r.Context())})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, err := sonic.ConfigStd.MarshalIndent(payload, "", "  ")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}
