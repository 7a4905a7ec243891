package pollinations

import (
	"bytes"
	"context"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/storyboard/pkg/errors"
)

func TestGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/prompt/") {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := strings.TrimPrefix(r.URL.Path, "/prompt/"); got != "a lighthouse" {
			t.Errorf("prompt = %q", got)
		}
		q := r.URL.Query()
		if q.Get("width") != "512" || q.Get("height") != "300" || q.Get("nologo") != "true" {
			t.Errorf("query = %v", q)
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg-bytes"))
	}))
	defer server.Close()

	c := NewClient(nil, time.Hour).WithBaseURL(server.URL, "")
	c.SetHTTPClient(server.Client())

	img, err := c.Generate(context.Background(), "a lighthouse", false)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if string(img.Data) != "jpeg-bytes" || img.Fallback {
		t.Errorf("Generate() = %+v", img)
	}
}

func TestGenerateHTTPErrorIsReturned(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	c := NewClient(nil, time.Hour).WithBaseURL(server.URL, server.URL)
	c.SetHTTPClient(server.Client())

	if _, err := c.Generate(context.Background(), "x", false); err == nil {
		t.Error("Generate() should fail on a 400")
	}
}

func TestGenerateFallback(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	deadURL := dead.URL
	dead.Close()

	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/seed/storm/512/300" {
			t.Errorf("fallback path = %q", r.URL.Path)
		}
		w.Write([]byte("photo"))
	}))
	defer fallback.Close()

	c := NewClient(nil, time.Hour).WithBaseURL(deadURL, fallback.URL)
	c.SetHTTPClient(fallback.Client())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	img, err := c.Generate(ctx, "storm", false)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if !img.Fallback || string(img.Data) != "photo" {
		t.Errorf("Generate() = %+v, want fallback photo", img)
	}
}

func TestGenerateValidation(t *testing.T) {
	c := NewClient(nil, time.Hour)
	if _, err := c.Generate(context.Background(), "", false); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("empty prompt error = %v", err)
	}
}

func TestPlaceholder(t *testing.T) {
	a := Placeholder("harbor", 16, 8)
	if !bytes.Equal(a, Placeholder("harbor", 16, 8)) {
		t.Error("Placeholder should be deterministic")
	}
	if bytes.Equal(a, Placeholder("forest", 16, 8)) {
		t.Error("different prompts should differ")
	}
	img, err := png.Decode(bytes.NewReader(a))
	if err != nil {
		t.Fatalf("Placeholder is not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 8 {
		t.Errorf("Placeholder size = %v", b)
	}
}
