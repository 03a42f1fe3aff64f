package extract

import (
	"context"
	"regexp"
	"strings"
)

// HeuristicExtractor parses lead fields with fixed regex rules. The
// deterministic counterpart to the LLM strategy; used when no model is
// configured and as the target of the round-trip tests.
type HeuristicExtractor struct{}

func NewHeuristicExtractor() *HeuristicExtractor {
	return &HeuristicExtractor{}
}

var (
	emailRe = regexp.MustCompile(`[^\s@|]+@[^\s@|]+\.[^\s@|]+`)
	phoneRe = regexp.MustCompile(`\+?\d[\d\s().-]{4,}\d`)

	// Name and company captures stay case-sensitive (capitalized words
	// only) while the introducing phrase matches case-insensitively;
	// otherwise a greedy capture swallows the rest of the sentence.
	namePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i:my name is )([A-Z][a-z]+(?:\s+[A-Z][a-z]+){0,2})`),
		regexp.MustCompile(`(?i:i am )([A-Z][a-z]+(?:\s+[A-Z][a-z]+){0,2})`),
		regexp.MustCompile(`(?i:i'm )([A-Z][a-z]+(?:\s+[A-Z][a-z]+){0,2})`),
		regexp.MustCompile(`(?i:this is )([A-Z][a-z]+(?:\s+[A-Z][a-z]+){0,2})`),
		regexp.MustCompile(`^([A-Z][a-z]+(?:\s+[A-Z][a-z]+){0,2})`),
	}

	companyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i:(?:works?\s+(?:at|for|with)|employed\s+(?:at|by)|company\s+is)\s+)([A-Z][A-Za-z0-9&'-]*(?:\s+[A-Z][A-Za-z0-9&'-]*)*)`),
		regexp.MustCompile(`([A-Z][A-Za-z0-9&'-]*(?:\s+[A-Z][A-Za-z0-9&'-]*)*)\s+(?:Company|Corp|Inc|Ltd|LLC)\b`),
		regexp.MustCompile(`(?i:\b(?:at|for|from)\s+)([A-Z][A-Za-z0-9]*(?:\s+[A-Z][A-Za-z0-9]*)*)`),
	}

	nonPhoneChars = regexp.MustCompile(`[^0-9+]`)
)

// Extract handles two input shapes: the pipe-delimited fast path
// "Name|Company|Email|Phone" and free text scanned with the field regexes.
func (e *HeuristicExtractor) Extract(_ context.Context, text string) (*Contact, error) {
	trimmed := strings.TrimSpace(text)

	var contact *Contact
	if strings.Contains(trimmed, "|") {
		contact = e.extractPiped(trimmed)
	} else {
		contact = e.extractFreeText(trimmed)
	}

	contact.Description = trimmed
	if contact.Company == "" {
		contact.Company = fallbackCompany
	}
	if contact.LastName == "" {
		contact.LastName = fallbackLastName
	}

	if err := contact.Validate(); err != nil {
		return nil, err
	}
	return contact, nil
}

func (e *HeuristicExtractor) extractPiped(text string) *Contact {
	parts := strings.Split(text, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	c := &Contact{}
	if len(parts) > 0 {
		c.FirstName, c.LastName = splitName(parts[0])
	}
	if len(parts) > 1 {
		c.Company = parts[1]
	}
	if len(parts) > 2 && emailRe.MatchString(parts[2]) {
		c.Email = parts[2]
	}
	if len(parts) > 3 {
		c.Phone = CleanPhone(parts[3])
	}
	return c
}

func (e *HeuristicExtractor) extractFreeText(text string) *Contact {
	c := &Contact{}

	for _, re := range namePatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			c.FirstName, c.LastName = splitName(m[1])
			break
		}
	}

	if m := emailRe.FindString(text); m != "" {
		c.Email = m
	}

	if m := phoneRe.FindString(text); m != "" {
		c.Phone = CleanPhone(m)
	}

	for _, re := range companyPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			company := strings.TrimSpace(m[1])
			if company != "" && len(company) <= 50 {
				c.Company = company
				break
			}
		}
	}

	return c
}

// CleanPhone strips everything but digits and a leading plus.
func CleanPhone(raw string) string {
	return nonPhoneChars.ReplaceAllString(raw, "")
}
