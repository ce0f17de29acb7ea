package openai_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/pathway/pkg/adapters/openai"
	"github.com/aretw0/pathway/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Complete(t *testing.T) {
	var gotBody, gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"cmpl-1","choices":[{"message":{"role":"assistant","content":"hi"}}]}`)
	}))
	defer srv.Close()

	c := openai.New("sk-test", openai.WithBaseURL(srv.URL+"/"))
	out, err := c.Complete(context.Background(), []byte(`{"model":"gpt-4o","x_custom":1}`))
	require.NoError(t, err)

	assert.JSONEq(t, `{"id":"cmpl-1","choices":[{"message":{"role":"assistant","content":"hi"}}]}`, string(out))
	assert.Equal(t, `{"model":"gpt-4o","x_custom":1}`, gotBody)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "/chat/completions", gotPath)
}

func TestClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad key"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := openai.New("wrong", openai.WithBaseURL(srv.URL))
	_, err := c.Complete(context.Background(), []byte(`{}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstream)

	var httpErr *openai.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
	assert.Contains(t, httpErr.Body, "bad key")

	err = c.Stream(context.Background(), []byte(`{}`), func([]byte) error { return nil })
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := openai.New("k", openai.WithBaseURL(url)).Complete(context.Background(), []byte(`{}`))
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestClient_Stream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, ": keep-alive\n\n")
		fmt.Fprint(w, "data: {\"n\":1}\n\n")
		fmt.Fprint(w, "data: {\"n\":2}\r\n\r\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
		fmt.Fprint(w, "data: {\"n\":3}\n\n")
	}))
	defer srv.Close()

	var chunks []string
	err := openai.New("k", openai.WithBaseURL(srv.URL)).Stream(context.Background(), []byte(`{"stream":true}`), func(data []byte) error {
		chunks = append(chunks, string(data))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{`{"n":1}`, `{"n":2}`}, chunks, "Events after [DONE] are ignored")
}

func TestClient_StreamWithoutDone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"n\":1}\n\ndata: {\"n\":2}")
	}))
	defer srv.Close()

	var chunks []string
	err := openai.New("k", openai.WithBaseURL(srv.URL)).Stream(context.Background(), nil, func(data []byte) error {
		chunks = append(chunks, string(data))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{`{"n":1}`, `{"n":2}`}, chunks)
}

func TestClient_StreamCallbackError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: a\n\ndata: b\n\n")
	}))
	defer srv.Close()

	stop := errors.New("client went away")
	calls := 0
	err := openai.New("k", openai.WithBaseURL(srv.URL)).Stream(context.Background(), nil, func([]byte) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.NotErrorIs(t, err, domain.ErrUpstream)
	assert.Equal(t, 1, calls)
}
