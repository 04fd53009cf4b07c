package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestObserveRequestNormalizesPath(t *testing.T) {
	recorder := New()
	recorder.ObserveRequest("get", "/api/videos/abc123", http.StatusOK, 25*time.Millisecond)
	recorder.ObserveRequest("GET", "/api/videos/def456", http.StatusOK, 25*time.Millisecond)

	var buf strings.Builder
	recorder.Write(&buf)

	output := buf.String()
	if !strings.Contains(output, `clipstream_http_requests_total{method="GET",path="/api/videos/:id",status="200"} 2`) {
		t.Fatalf("expected collapsed path label with count 2, got:\n%s", output)
	}
}

func TestDomainEventCounters(t *testing.T) {
	recorder := New()
	recorder.AuthEvent("login")
	recorder.AuthEvent("login")
	recorder.AuthEvent(" Login_Failed ")
	recorder.ToggleEvent("like")
	recorder.UploadEvent("thumbnails")
	recorder.VideoView()
	recorder.VideoView()
	recorder.VideoView()

	counts := recorder.AuthEventCounts()
	if counts["login"] != 2 {
		t.Fatalf("expected 2 login events, got %d", counts["login"])
	}
	if counts["login_failed"] != 1 {
		t.Fatalf("expected normalized login_failed event, got %v", counts)
	}
	if got := recorder.VideoViewCount(); got != 3 {
		t.Fatalf("expected 3 video views, got %d", got)
	}

	var buf strings.Builder
	recorder.Write(&buf)
	output := buf.String()
	if !strings.Contains(output, `clipstream_toggle_events_total{kind="like"} 1`) {
		t.Fatalf("expected toggle counter in output:\n%s", output)
	}
	if !strings.Contains(output, `clipstream_media_uploads_total{kind="thumbnails"} 1`) {
		t.Fatalf("expected upload counter in output:\n%s", output)
	}
	if !strings.Contains(output, "clipstream_video_views_total 3") {
		t.Fatalf("expected video view counter in output:\n%s", output)
	}
}

func TestResetClearsCounters(t *testing.T) {
	recorder := New()
	recorder.AuthEvent("register")
	recorder.VideoView()
	recorder.Reset()

	if len(recorder.AuthEventCounts()) != 0 {
		t.Fatalf("expected auth counters cleared after reset")
	}
	if recorder.VideoViewCount() != 0 {
		t.Fatalf("expected view counter cleared after reset")
	}
}

func TestHandlerServesPrometheusText(t *testing.T) {
	recorder := New()
	recorder.ObserveRequest(http.MethodGet, "/healthz", http.StatusOK, time.Millisecond)

	rr := httptest.NewRecorder()
	recorder.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if contentType := rr.Header().Get("Content-Type"); !strings.HasPrefix(contentType, "text/plain") {
		t.Fatalf("expected text/plain content type, got %q", contentType)
	}
	if !strings.Contains(rr.Body.String(), "clipstream_http_requests_total") {
		t.Fatalf("expected request counter in scrape output, got:\n%s", rr.Body.String())
	}
}

func TestResponseRecorderDefaultsToOK(t *testing.T) {
	rr := httptest.NewRecorder()
	recorder := NewResponseRecorder(rr)
	if recorder.Status() != http.StatusOK {
		t.Fatalf("expected default status 200, got %d", recorder.Status())
	}

	recorder.WriteHeader(http.StatusTeapot)
	if recorder.Status() != http.StatusTeapot {
		t.Fatalf("expected recorded status 418, got %d", recorder.Status())
	}
}
