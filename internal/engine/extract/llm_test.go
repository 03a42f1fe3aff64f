package extract

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"leadflow/internal/pkg/errors"
	"leadflow/internal/platform/config"
)

func TestJSONSpan_PicksLastValidObject(t *testing.T) {
	generated := `Extract lead details from {"echoed": "prompt"} ...
Sure, here is the result:
{"name": "John Doe", "email": "john@acme.com", "phone": "555-1234", "interest": "demo", "company": "Acme"}`

	span, ok := jsonSpan(generated)
	if !ok {
		t.Fatal("Expected a JSON span to be found")
	}

	var parsed llmContact
	if err := json.Unmarshal(span, &parsed); err != nil {
		t.Fatalf("Span did not decode: %v", err)
	}
	if parsed.Name != "John Doe" {
		t.Errorf("Expected the trailing object to win, got name %q", parsed.Name)
	}
}

func TestJSONSpan_NestedBracesFallback(t *testing.T) {
	// The non-greedy regex cuts a nested object short; the brace scan
	// must recover the full balanced span.
	generated := `answer: {"name": "Jane", "meta": {"source": "slack"}, "email": "jane@globex.com"}`

	span, ok := jsonSpan(generated)
	if !ok {
		t.Fatal("Expected a JSON span to be found")
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(span, &obj); err != nil {
		t.Fatalf("Span did not decode: %v", err)
	}
	if obj["email"] != "jane@globex.com" {
		t.Errorf("Expected full nested object, got %s", span)
	}
}

func TestJSONSpan_NoObject(t *testing.T) {
	if _, ok := jsonSpan("the model refused to answer"); ok {
		t.Error("Expected no span in plain prose")
	}
	if _, ok := jsonSpan("unbalanced { here"); ok {
		t.Error("Expected no span with unbalanced braces")
	}
}

func TestLLMExtractor_Extract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer hf-test-token" {
			t.Errorf("Expected bearer token header, got %q", got)
		}
		json.NewEncoder(w).Encode([]map[string]string{{
			"generated_text": `{"name": "John Doe", "email": "john@acme.com", "phone": "555-1234", "interest": "pricing", "company": ""}`,
		}})
	}))
	defer srv.Close()

	e := NewLLMExtractor(config.ExtractorConfig{
		HFToken:  "hf-test-token",
		Endpoint: srv.URL,
	})

	contact, err := e.Extract(context.Background(), "some slack message")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if contact.FirstName != "John" || contact.LastName != "Doe" {
		t.Errorf("Expected John Doe, got %q %q", contact.FirstName, contact.LastName)
	}
	if contact.Phone != "5551234" {
		t.Errorf("Expected normalized phone, got %q", contact.Phone)
	}
	if contact.Company != "Individual" {
		t.Errorf("Expected company fallback, got %q", contact.Company)
	}
	if contact.Description != "some slack message\nInterest: pricing" {
		t.Errorf("Expected interest appended to description, got %q", contact.Description)
	}
}

func TestLLMExtractor_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	e := NewLLMExtractor(config.ExtractorConfig{HFToken: "tok", Endpoint: srv.URL})

	_, err := e.Extract(context.Background(), "text")
	if !errors.IsKind(err, errors.KindUpstream) {
		t.Errorf("Expected upstream kind, got %v", err)
	}
}

func TestLLMExtractor_MissingToken(t *testing.T) {
	e := NewLLMExtractor(config.ExtractorConfig{})

	_, err := e.Extract(context.Background(), "text")
	if !errors.IsKind(err, errors.KindAuth) {
		t.Errorf("Expected auth kind, got %v", err)
	}
}
