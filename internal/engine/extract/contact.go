package extract

import (
	"context"
	"strings"

	"leadflow/internal/pkg/errors"
)

// Contact is the structured lead derived from one message. Field names
// follow the CRM's Leads module so the record marshals straight into the
// create-record payload. Derived data only; never persisted on its own.
type Contact struct {
	FirstName   string `json:"First_Name"`
	LastName    string `json:"Last_Name"`
	Company     string `json:"Company"`
	Email       string `json:"Email"`
	Phone       string `json:"Phone"`
	Description string `json:"Description,omitempty"`
}

// Extractor turns a free-text message into a Contact. Implementations are
// pure: no side effects, same input yields same output (modulo the LLM).
type Extractor interface {
	Extract(ctx context.Context, text string) (*Contact, error)
}

// Validate rejects contacts carrying none of name, email or phone. Such a
// record would be unrouteable in the CRM, so it fails before any call out.
func (c *Contact) Validate() error {
	if c.FirstName == "" && c.Email == "" && c.Phone == "" {
		return errors.New(errors.KindValidation, "contact must have at least a name, email, or phone number")
	}
	return nil
}

const (
	fallbackLastName = "Unknown"
	fallbackCompany  = "Individual"
)

// splitName maps a full name onto (first, last): the first token is the
// first name, the remaining tokens joined are the last name. A single token
// becomes the first name with last name "Unknown".
func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", fallbackLastName
	case 1:
		return parts[0], fallbackLastName
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
