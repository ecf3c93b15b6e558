package extract

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"go.uber.org/zap"
)

type fakeRenderer struct {
	html  string
	err   error
	calls int
}

func (f *fakeRenderer) RenderHTML(ctx context.Context, url string) (string, error) {
	f.calls++
	return f.html, f.err
}

func newTestResolver(renderer PageRenderer) *EmailResolver {
	return NewEmailResolver(DefaultRules(), renderer, 2, 5*time.Second, zap.NewNop())
}

func TestResolveEmailFromDirectFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>Contact us: hello@acme.example.com</body></html>`))
	}))
	defer srv.Close()

	renderer := &fakeRenderer{}
	r := newTestResolver(renderer)

	email := r.Resolve(context.Background(), srv.URL)
	assert.Equal(t, "hello@acme.example.com", email)
	assert.Zero(t, renderer.calls, "browser fallback should not run when HTTP succeeds")
}

func TestResolveEmailFallsBackToRenderer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	renderer := &fakeRenderer{html: `<html><body>support@acme.example.com</body></html>`}
	r := newTestResolver(renderer)

	email := r.Resolve(context.Background(), srv.URL)
	assert.Equal(t, "support@acme.example.com", email)
	assert.Equal(t, 1, renderer.calls)
}

func TestResolveEmailAbsentIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>No contact details here.</body></html>`))
	}))
	defer srv.Close()

	r := newTestResolver(&fakeRenderer{err: errors.New("render failed")})
	assert.Empty(t, r.Resolve(context.Background(), srv.URL))
}

func TestResolveEmailWithoutRenderer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := newTestResolver(nil)
	assert.Empty(t, r.Resolve(context.Background(), srv.URL))
	assert.Empty(t, r.Resolve(context.Background(), ""))
}
