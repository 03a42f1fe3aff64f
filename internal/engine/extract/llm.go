package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"leadflow/internal/pkg/errors"
	"leadflow/internal/platform/config"
)

// LLMExtractor delegates parsing to a hosted language model behind the
// Hugging Face inference API. The model is instructed to answer with one
// strict JSON object; everything around it is stripped by jsonSpan.
type LLMExtractor struct {
	cfg    config.ExtractorConfig
	client *http.Client
}

func NewLLMExtractor(cfg config.ExtractorConfig) *LLMExtractor {
	return &LLMExtractor{
		cfg:    cfg,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

const promptTemplate = `Extract lead details from the following Slack message:
%q

Return only one STRICT JSON object with these keys:
  - name     (string)
  - email    (string)
  - phone    (string)
  - interest (string)
  - company  (string, optional)
Return ONLY valid JSON. No explanation. No markdown.`

type llmContact struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Interest string `json:"interest"`
	Company  string `json:"company"`
}

func (e *LLMExtractor) Extract(ctx context.Context, text string) (*Contact, error) {
	if e.cfg.HFToken == "" {
		return nil, errors.New(errors.KindAuth, "extractor model token not configured")
	}

	generated, err := e.generate(ctx, fmt.Sprintf(promptTemplate, text))
	if err != nil {
		return nil, err
	}

	span, ok := jsonSpan(generated)
	if !ok {
		return nil, errors.New(errors.KindUpstream, "no valid JSON object in model response")
	}

	var parsed llmContact
	if err := json.Unmarshal(span, &parsed); err != nil {
		return nil, errors.Wrap(errors.KindUpstream, "decode model JSON", err)
	}

	c := &Contact{
		Email:       strings.TrimSpace(parsed.Email),
		Phone:       CleanPhone(parsed.Phone),
		Company:     strings.TrimSpace(parsed.Company),
		Description: text,
	}
	c.FirstName, c.LastName = splitName(parsed.Name)
	if c.Company == "" {
		c.Company = fallbackCompany
	}
	if interest := strings.TrimSpace(parsed.Interest); interest != "" {
		c.Description = text + "\nInterest: " + interest
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (e *LLMExtractor) generate(ctx context.Context, prompt string) (string, error) {
	endpoint := e.cfg.Endpoint
	if endpoint == "" {
		endpoint = "https://api-inference.huggingface.co/models/" + e.cfg.Model
	}

	payload, err := json.Marshal(map[string]interface{}{
		"inputs":  prompt,
		"options": map[string]bool{"wait_for_model": true},
	})
	if err != nil {
		return "", errors.Wrap(errors.KindInternal, "encode inference request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", errors.Wrap(errors.KindInternal, "build inference request", err)
	}
	req.Header.Set("Authorization", "Bearer "+e.cfg.HFToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", errors.Wrap(errors.KindUpstream, "inference endpoint unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(errors.KindUpstream, "read inference response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.New(errors.KindUpstream,
			fmt.Sprintf("inference endpoint returned %s: %s", resp.Status, body))
	}

	var result []struct {
		GeneratedText string `json:"generated_text"`
	}
	if err := json.Unmarshal(body, &result); err != nil || len(result) == 0 || result[0].GeneratedText == "" {
		return "", errors.New(errors.KindUpstream, "unexpected inference response shape: "+string(body))
	}
	return result[0].GeneratedText, nil
}

var naiveObjectRe = regexp.MustCompile(`\{[\s\S]*?\}`)

// jsonSpan locates the JSON object inside model output. Candidate {...}
// spans are tried last-to-first, since trailing output tends to be the
// answer and leading spans tend to echo the prompt. When the non-greedy
// regex finds no decodable span (nested objects defeat it), a brace-depth
// scan recovers the first balanced object.
func jsonSpan(generated string) ([]byte, bool) {
	matches := naiveObjectRe.FindAllString(generated, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		if candidate, ok := decodableObject(matches[i]); ok {
			return candidate, true
		}
	}

	// Brace-counting fallback.
	start := -1
	depth := 0
	for i, r := range generated {
		switch r {
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 {
					if candidate, ok := decodableObject(generated[start : i+1]); ok {
						return candidate, true
					}
					start = -1
				}
			}
		}
	}
	return nil, false
}

func decodableObject(span string) ([]byte, bool) {
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(span), &obj); err != nil {
		return nil, false
	}
	return []byte(span), true
}
