package liveness

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCheckReachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewChecker(2*time.Second, "test-agent")
	status := c.Check(context.Background(), srv.URL+"/img.jpg")

	if !status.Reachable {
		t.Error("expected reachable")
	}
	if status.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", status.StatusCode)
	}
}

func TestCheckNotFoundIsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := NewChecker(2*time.Second, "")
	status := c.Check(context.Background(), srv.URL+"/gone.jpg")

	if status.Reachable {
		t.Error("expected unreachable for 404")
	}
	if status.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", status.StatusCode)
	}
}

func TestCheckFallsBackToGET(t *testing.T) {
	var sawGet bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			// Kill the connection so the HEAD probe fails outright.
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Error("server does not support hijacking")
				return
			}
			conn, _, err := hj.Hijack()
			if err != nil {
				t.Errorf("hijack failed: %v", err)
				return
			}
			conn.Close()
			return
		}
		sawGet = true
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewChecker(2*time.Second, "")
	status := c.Check(context.Background(), srv.URL)

	if !sawGet {
		t.Error("expected GET fallback after HEAD connection failure")
	}
	if !status.Reachable {
		t.Error("expected reachable via GET fallback")
	}
}

func TestCheckFollowsRedirects(t *testing.T) {
	var final *httptest.Server
	final = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer final.Close()

	redirecting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, final.URL+"/landed", http.StatusMovedPermanently)
	}))
	defer redirecting.Close()

	c := NewChecker(2*time.Second, "")
	status := c.Check(context.Background(), redirecting.URL)

	if !status.Reachable {
		t.Error("expected reachable after redirect")
	}
	if status.FinalURL != final.URL+"/landed" {
		t.Errorf("expected final URL %s, got %s", final.URL+"/landed", status.FinalURL)
	}
}

func TestCheckRedirectLoopIsUnreachable(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+r.URL.Path, http.StatusFound)
	}))
	defer srv.Close()

	c := NewChecker(5*time.Second, "")
	status := c.Check(context.Background(), srv.URL+"/loop")

	if status.Reachable {
		t.Error("expected unreachable for a redirect chain that never resolves")
	}
}

func TestCheckTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer srv.Close()

	c := NewChecker(100*time.Millisecond, "")
	start := time.Now()
	status := c.Check(context.Background(), srv.URL)

	if status.Reachable {
		t.Error("expected unreachable on timeout")
	}
	if elapsed := time.Since(start); elapsed > 1500*time.Millisecond {
		t.Errorf("probe not bounded by timeout, took %v", elapsed)
	}
}

func TestCheckUnresolvableHost(t *testing.T) {
	c := NewChecker(2*time.Second, "")
	status := c.Check(context.Background(), "http://invalid.invalid/x")

	if status.Reachable {
		t.Error("expected unreachable for bad host")
	}
	if status.StatusCode != 0 {
		t.Errorf("expected zero status code, got %d", status.StatusCode)
	}
}
