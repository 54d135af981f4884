package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	r := chi.NewRouter()
	r.Get("/api/v1/topics", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":{"topics":[{"id":"loops","name":"Loops","questionsNumber":4,"groupsNumber":5}],"total":1}}`))
	})
	r.Post("/api/v1/tests/generate", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"success":true,"data":{"id":"generated-test-2","topic":"Generated Test #2","description":"Loops, Arrays","singleQuestions":[{"title":"Q"}],"questionGroups":[]}}`))
	})
	r.Get("/api/v1/tests/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"success":false,"error":{"code":"not_found","message":"No tests were found!"}}`))
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--server", srv.URL}, args...))
	t.Cleanup(func() { asJSON = false })

	err := rootCmd.Execute()
	return out.String(), err
}

func TestTopicsCommand(t *testing.T) {
	out, err := runCommand(t, "topics")
	require.NoError(t, err)
	assert.Contains(t, out, "loops")
	assert.Contains(t, out, "Loops")
}

func TestGenerateCommand(t *testing.T) {
	out, err := runCommand(t, "generate")
	require.NoError(t, err)
	assert.Contains(t, out, "Generated Test #2 (generated-test-2)")
	assert.Contains(t, out, "questions: 1")

	out, err = runCommand(t, "generate", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"id": "generated-test-2"`)
}

func TestShowCommandNotFound(t *testing.T) {
	_, err := runCommand(t, "show", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No tests were found!")
}
