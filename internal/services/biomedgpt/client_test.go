package biomedgpt_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"aura/internal/services/biomedgpt"
)

func TestAnswerQuestion(t *testing.T) {
	var gotBody struct {
		ReportText string `json:"report_text"`
		UserQuery  string `json:"user_query"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"answer": "No acute findings."})
	}))
	defer server.Close()

	client := biomedgpt.NewClient(biomedgpt.Config{APIURL: server.URL})
	answer, err := client.AnswerQuestion(context.Background(), "Is there pneumonia?", "FINDINGS: clear lungs.")
	if err != nil {
		t.Fatalf("AnswerQuestion: %v", err)
	}
	if answer != "No acute findings." {
		t.Fatalf("unexpected answer: %q", answer)
	}
	if gotBody.UserQuery != "Is there pneumonia?" {
		t.Fatalf("unexpected query sent: %q", gotBody.UserQuery)
	}
	if !strings.Contains(gotBody.ReportText, "clear lungs") {
		t.Fatalf("unexpected report sent: %q", gotBody.ReportText)
	}
}

func TestAnswerQuestionRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"answer": "ok"})
	}))
	defer server.Close()

	client := biomedgpt.NewClient(
		biomedgpt.Config{APIURL: server.URL, RetryAttempts: 3},
		biomedgpt.WithSleeper(func(time.Duration) {}),
	)
	answer, err := client.AnswerQuestion(context.Background(), "q", "report")
	if err != nil {
		t.Fatalf("AnswerQuestion: %v", err)
	}
	if answer != "ok" {
		t.Fatalf("unexpected answer: %q", answer)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestAnswerQuestionReturnsLastErrorWhenExhausted(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := biomedgpt.NewClient(
		biomedgpt.Config{APIURL: server.URL, RetryAttempts: 3},
		biomedgpt.WithSleeper(func(time.Duration) {}),
	)
	_, err := client.AnswerQuestion(context.Background(), "q", "report")
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if !strings.Contains(err.Error(), "http 500") {
		t.Fatalf("expected the final attempt's error, got %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestAnswerQuestionDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := biomedgpt.NewClient(
		biomedgpt.Config{APIURL: server.URL, RetryAttempts: 3},
		biomedgpt.WithSleeper(func(time.Duration) {}),
	)
	if _, err := client.AnswerQuestion(context.Background(), "q", "report"); err == nil {
		t.Fatal("expected error for 400 response")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected single attempt, got %d", calls.Load())
	}
}

func TestAnswerQuestionValidatesInput(t *testing.T) {
	client := biomedgpt.NewClient(biomedgpt.Config{APIURL: "http://127.0.0.1:9"})
	if _, err := client.AnswerQuestion(context.Background(), "", "report"); err == nil {
		t.Fatal("expected error for empty question")
	}
	if _, err := client.AnswerQuestion(context.Background(), "q", ""); err == nil {
		t.Fatal("expected error for empty report")
	}

	unconfigured := biomedgpt.NewClient(biomedgpt.Config{})
	if _, err := unconfigured.AnswerQuestion(context.Background(), "q", "report"); err == nil {
		t.Fatal("expected error for missing api url")
	}
}

func TestAnswerQuestionRejectsEmptyAnswer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"answer": "  "})
	}))
	defer server.Close()

	client := biomedgpt.NewClient(
		biomedgpt.Config{APIURL: server.URL, RetryAttempts: 1},
	)
	if _, err := client.AnswerQuestion(context.Background(), "q", "report"); err == nil {
		t.Fatal("expected error for empty answer")
	}
}
