package domain

import (
	"bytes"
	"image"
	_ "image/gif"  // register decoder for logo checks
	_ "image/jpeg" // register decoder for logo checks
	_ "image/png"  // register decoder for logo checks
	"net/url"
	"sort"
	"strings"
)

// MinLogoSize is the smallest accepted logo edge in pixels.
const MinLogoSize = 100

// FieldErrors maps form field names to a message. Empty means valid.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := fe.Keys()
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Keys returns the field names in sorted order.
func (fe FieldErrors) Keys() []string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// OK reports whether there are no errors.
func (fe FieldErrors) OK() bool {
	return len(fe) == 0
}

// ValidateCompany checks a company draft before it is submitted.
func ValidateCompany(d CompanyDraft) FieldErrors {
	errs := FieldErrors{}
	if strings.TrimSpace(d.Name) == "" {
		errs["name"] = "Name is required"
	}
	if strings.TrimSpace(d.Email) == "" {
		errs["email"] = "Email is required"
	}
	if d.Website != "" && !ValidURL(d.Website) {
		errs["website"] = "Website must be a valid URL"
	}
	if d.Logo != nil {
		if msg := checkLogo(d.Logo.Data); msg != "" {
			errs["logo"] = msg
		}
	}
	return errs
}

// ValidateEmployee checks an employee draft before it is submitted.
func ValidateEmployee(d EmployeeDraft) FieldErrors {
	errs := FieldErrors{}
	if strings.TrimSpace(d.FirstName) == "" {
		errs["first_name"] = "first name is required"
	}
	if strings.TrimSpace(d.LastName) == "" {
		errs["last_name"] = "last name is required"
	}
	if strings.TrimSpace(d.Email) == "" {
		errs["email"] = "Email is required"
	}
	return errs
}

// ValidURL reports whether s is an absolute URL with a scheme and host.
func ValidURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

func checkLogo(data []byte) string {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "Invalid image file"
	}
	if cfg.Width < MinLogoSize || cfg.Height < MinLogoSize {
		return "Logo must be at least 100x100 pixels"
	}
	return ""
}
