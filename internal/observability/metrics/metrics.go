// Package metrics aggregates in-memory counters for HTTP traffic and domain
// events and renders them in Prometheus text exposition format.
package metrics

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type requestLabel struct {
	method string
	path   string
	status string
}

// Recorder aggregates request counters plus auth, like/subscription toggle,
// media upload, and video view events. All methods are safe for concurrent
// use.
type Recorder struct {
	mu              sync.RWMutex
	requestCount    map[requestLabel]uint64
	requestDuration map[requestLabel]time.Duration
	authEvents      map[string]uint64
	toggleEvents    map[string]uint64
	uploadEvents    map[string]uint64
	videoViews      atomic.Uint64
}

var defaultRecorder = New()

// New constructs an empty Recorder with initialized backing maps so callers
// can immediately record metrics without additional setup.
func New() *Recorder {
	return &Recorder{
		requestCount:    make(map[requestLabel]uint64),
		requestDuration: make(map[requestLabel]time.Duration),
		authEvents:      make(map[string]uint64),
		toggleEvents:    make(map[string]uint64),
		uploadEvents:    make(map[string]uint64),
	}
}

// Default returns the singleton Recorder shared by packages that do not
// require a custom instrumentation pipeline.
func Default() *Recorder {
	return defaultRecorder
}

// ObserveRequest accumulates request count and cumulative duration by HTTP
// method, normalized path, and status code.
func (r *Recorder) ObserveRequest(method, path string, status int, duration time.Duration) {
	label := requestLabel{
		method: strings.ToUpper(method),
		path:   normalizePath(path),
		status: fmt.Sprintf("%d", status),
	}
	r.mu.Lock()
	r.requestCount[label]++
	r.requestDuration[label] += duration
	r.mu.Unlock()
}

// AuthEvent records an authentication lifecycle event (register, login,
// login_failed, refresh, refresh_failed, logout).
func (r *Recorder) AuthEvent(event string) {
	r.incrementNamed(r.authEvents, event)
}

// ToggleEvent records a like or subscription toggle.
func (r *Recorder) ToggleEvent(kind string) {
	r.incrementNamed(r.toggleEvents, kind)
}

// UploadEvent records a media upload keyed by folder (videos, thumbnails,
// avatars, covers).
func (r *Recorder) UploadEvent(kind string) {
	r.incrementNamed(r.uploadEvents, kind)
}

// VideoView counts one playback fetch.
func (r *Recorder) VideoView() {
	r.videoViews.Add(1)
}

func (r *Recorder) incrementNamed(counters map[string]uint64, name string) {
	normalized := normalizeName(name)
	r.mu.Lock()
	counters[normalized]++
	r.mu.Unlock()
}

func normalizeName(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}

// normalizePath collapses resource ids so the label set stays bounded.
func normalizePath(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, segment := range segments {
		if i >= 2 && segment != "" && !isRouteWord(segment) {
			segments[i] = ":id"
		}
	}
	return "/" + strings.Join(segments, "/")
}

func isRouteWord(segment string) bool {
	switch segment {
	case "api", "auth", "users", "videos", "comments", "tweets", "likes",
		"playlists", "subscriptions", "dashboard", "me", "register", "login",
		"refresh", "logout", "session", "password", "account", "avatar",
		"cover", "history", "toggle", "publish", "stats", "subscribers":
		return true
	}
	return false
}

// Reset clears all counters. It is intended for test setups.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requestCount = make(map[requestLabel]uint64)
	r.requestDuration = make(map[requestLabel]time.Duration)
	r.authEvents = make(map[string]uint64)
	r.toggleEvents = make(map[string]uint64)
	r.uploadEvents = make(map[string]uint64)
	r.videoViews.Store(0)
}

// AuthEventCounts returns a copy of the auth counters for tests.
func (r *Recorder) AuthEventCounts() map[string]uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[string]uint64, len(r.authEvents))
	for k, v := range r.authEvents {
		counts[k] = v
	}
	return counts
}

// VideoViewCount returns the current playback counter value.
func (r *Recorder) VideoViewCount() uint64 {
	return r.videoViews.Load()
}

// Handler exposes the Recorder as an http.Handler writing Prometheus text
// exposition data.
func (r *Recorder) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		r.Write(w)
	})
}

// Write renders the metrics in Prometheus text format with sorted label sets
// for stable scrapes.
func (r *Recorder) Write(w io.Writer) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	requestLabels := r.sortedRequestLabels()

	fmt.Fprintln(w, "# HELP clipstream_http_requests_total Total number of HTTP requests processed by the API")
	fmt.Fprintln(w, "# TYPE clipstream_http_requests_total counter")
	for _, label := range requestLabels {
		fmt.Fprintf(w, "clipstream_http_requests_total{method=\"%s\",path=\"%s\",status=\"%s\"} %d\n", label.method, label.path, label.status, r.requestCount[label])
	}

	fmt.Fprintln(w, "# HELP clipstream_http_request_duration_seconds_sum Cumulative duration of HTTP requests in seconds")
	fmt.Fprintln(w, "# TYPE clipstream_http_request_duration_seconds_sum counter")
	for _, label := range requestLabels {
		fmt.Fprintf(w, "clipstream_http_request_duration_seconds_sum{method=\"%s\",path=\"%s\",status=\"%s\"} %f\n", label.method, label.path, label.status, r.requestDuration[label].Seconds())
	}

	fmt.Fprintln(w, "# HELP clipstream_http_request_duration_seconds_count Total number of observations for request durations")
	fmt.Fprintln(w, "# TYPE clipstream_http_request_duration_seconds_count counter")
	for _, label := range requestLabels {
		fmt.Fprintf(w, "clipstream_http_request_duration_seconds_count{method=\"%s\",path=\"%s\",status=\"%s\"} %d\n", label.method, label.path, label.status, r.requestCount[label])
	}

	fmt.Fprintln(w, "# HELP clipstream_auth_events_total Authentication lifecycle events by type")
	fmt.Fprintln(w, "# TYPE clipstream_auth_events_total counter")
	for _, event := range sortedKeys(r.authEvents) {
		fmt.Fprintf(w, "clipstream_auth_events_total{event=\"%s\"} %d\n", event, r.authEvents[event])
	}

	fmt.Fprintln(w, "# HELP clipstream_toggle_events_total Like and subscription toggles by kind")
	fmt.Fprintln(w, "# TYPE clipstream_toggle_events_total counter")
	for _, kind := range sortedKeys(r.toggleEvents) {
		fmt.Fprintf(w, "clipstream_toggle_events_total{kind=\"%s\"} %d\n", kind, r.toggleEvents[kind])
	}

	fmt.Fprintln(w, "# HELP clipstream_media_uploads_total Media uploads by kind")
	fmt.Fprintln(w, "# TYPE clipstream_media_uploads_total counter")
	for _, kind := range sortedKeys(r.uploadEvents) {
		fmt.Fprintf(w, "clipstream_media_uploads_total{kind=\"%s\"} %d\n", kind, r.uploadEvents[kind])
	}

	fmt.Fprintln(w, "# HELP clipstream_video_views_total Video playback fetches")
	fmt.Fprintln(w, "# TYPE clipstream_video_views_total counter")
	fmt.Fprintf(w, "clipstream_video_views_total %d\n", r.videoViews.Load())
}

func (r *Recorder) sortedRequestLabels() []requestLabel {
	labels := make([]requestLabel, 0, len(r.requestCount))
	for label := range r.requestCount {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if labels[i].path != labels[j].path {
			return labels[i].path < labels[j].path
		}
		if labels[i].method != labels[j].method {
			return labels[i].method < labels[j].method
		}
		return labels[i].status < labels[j].status
	})
	return labels
}

func sortedKeys(m map[string]uint64) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// ResponseRecorder captures the response status for logging and metrics
// middleware.
type ResponseRecorder struct {
	http.ResponseWriter
	status int
}

// NewResponseRecorder wraps a ResponseWriter, defaulting the status to 200.
func NewResponseRecorder(w http.ResponseWriter) *ResponseRecorder {
	return &ResponseRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (r *ResponseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Status returns the recorded response status.
func (r *ResponseRecorder) Status() int {
	return r.status
}
