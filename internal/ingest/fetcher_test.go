package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/veracity/internal/model"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
	<title>Ignored title is still text</title>
	<style>body { color: red; }</style>
	<script>console.log("never visible");</script>
</head>
<body>
	<h1>The Earth is round.</h1>
	<p>The moon is <b>not</b> made of cheese.</p>
	<noscript>Enable JavaScript</noscript>
	<iframe src="about:blank">framed</iframe>
</body>
</html>`

func TestVisibleText_SkipsScriptsAndStyles(t *testing.T) {
	text, err := VisibleText(samplePage)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	for _, want := range []string{"The Earth is round.", "not", "made of cheese."} {
		if !strings.Contains(text, want) {
			t.Errorf("expected visible text to contain %q, got %q", want, text)
		}
	}
	for _, banned := range []string{"never visible", "color: red", "Enable JavaScript"} {
		if strings.Contains(text, banned) {
			t.Errorf("expected %q to be stripped, got %q", banned, text)
		}
	}
}

func TestVisibleText_PlainText(t *testing.T) {
	text, err := VisibleText("just words")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if text != "just words" {
		t.Errorf("unexpected text: %q", text)
	}
}

func TestFetchText_ReturnsVisibleText(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(samplePage))
	}))
	defer server.Close()

	fetcher := NewFetcher(model.HTTPConfig{
		UserAgent:     "veracity-test",
		RespectRobots: true,
	})

	text, err := fetcher.FetchText(context.Background(), server.URL+"/article")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if gotUA != "veracity-test" {
		t.Errorf("expected custom user agent, got %q", gotUA)
	}
	if !strings.Contains(text, "The Earth is round.") {
		t.Errorf("expected page text, got %q", text)
	}
}

func TestFetchText_RespectsRobots(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
			return
		}
		_, _ = w.Write([]byte(samplePage))
	}))
	defer server.Close()

	fetcher := NewFetcher(model.HTTPConfig{
		UserAgent:     "veracity-test",
		RespectRobots: true,
	})

	if _, err := fetcher.FetchText(context.Background(), server.URL+"/private/doc"); err == nil {
		t.Error("expected disallowed path to be refused")
	}

	if _, err := fetcher.FetchText(context.Background(), server.URL+"/public/doc"); err != nil {
		t.Errorf("expected allowed path to succeed, got %v", err)
	}
}

func TestFetchText_IgnoresRobotsWhenDisabled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /\n"))
			return
		}
		_, _ = w.Write([]byte(samplePage))
	}))
	defer server.Close()

	fetcher := NewFetcher(model.HTTPConfig{RespectRobots: false})

	if _, err := fetcher.FetchText(context.Background(), server.URL+"/anything"); err != nil {
		t.Errorf("expected fetch to skip robots checks, got %v", err)
	}
}

func TestFetchText_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := NewFetcher(model.HTTPConfig{})

	if _, err := fetcher.FetchText(context.Background(), server.URL+"/gone"); err == nil {
		t.Error("expected error for 404 page")
	}
}

func TestFetchText_BodySizeCapped(t *testing.T) {
	big := strings.Repeat("word ", 10_000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>" + big + "</body></html>"))
	}))
	defer server.Close()

	fetcher := NewFetcher(model.HTTPConfig{MaxBodyBytes: 1024})

	text, err := fetcher.FetchText(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(text) > 2048 {
		t.Errorf("expected body cap to bound the text, got %d bytes", len(text))
	}
}

func TestRobotsChecker_CachesPerHost(t *testing.T) {
	robotsFetches := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			robotsFetches++
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
		}
	}))
	defer server.Close()

	checker := NewRobotsChecker("veracity-test", 5*time.Second)

	if !checker.IsAllowed(context.Background(), server.URL+"/a") {
		t.Error("expected /a to be allowed")
	}
	if checker.IsAllowed(context.Background(), server.URL+"/private/b") {
		t.Error("expected /private/b to be disallowed")
	}
	if robotsFetches != 1 {
		t.Errorf("expected robots.txt to be fetched once per host, got %d", robotsFetches)
	}
}
