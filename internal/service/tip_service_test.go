package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTipServiceReturnsQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"_id":"x","content":"Simplicity is prerequisite for reliability.","author":"Edsger Dijkstra"}`))
	}))
	defer srv.Close()

	tip := NewTipService(srv.URL, time.Second, nil).Random(context.Background())
	assert.Equal(t, "Simplicity is prerequisite for reliability.", tip.Content)
	assert.Equal(t, "Edsger Dijkstra", tip.Author)
	assert.False(t, tip.Fallback)
}

func TestTipServiceFallsBack(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer failing.Close()

	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer garbage.Close()

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"content":"late","author":"x"}`))
	}))
	defer slow.Close()

	cases := map[string]*TipService{
		"status":  NewTipService(failing.URL, time.Second, nil),
		"decode":  NewTipService(garbage.URL, time.Second, nil),
		"timeout": NewTipService(slow.URL, 20*time.Millisecond, nil),
		"no url":  NewTipService("", time.Second, nil),
	}
	for name, svc := range cases {
		t.Run(name, func(t *testing.T) {
			tip := svc.Random(context.Background())
			assert.Equal(t, FallbackTip, tip)
			assert.Equal(t, "CS642", tip.Author)
		})
	}
}
