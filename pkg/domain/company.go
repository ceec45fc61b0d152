package domain

import "strings"

// Company is a persisted company.
type Company struct {
	ID      ID     `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Website string `json:"website,omitempty"`
	Logo    string `json:"logo,omitempty"` // path or URL once uploaded
}

// RecordID implements Record.
func (c Company) RecordID() ID { return c.ID }

// LogoURL resolves the logo against origin when the API returned a relative path.
func (c Company) LogoURL(origin string) string {
	if c.Logo == "" {
		return ""
	}
	if strings.HasPrefix(c.Logo, "http://") || strings.HasPrefix(c.Logo, "https://") {
		return c.Logo
	}
	return strings.TrimRight(origin, "/") + "/" + strings.TrimLeft(c.Logo, "/")
}

// CompanyDraft is an unsaved company or the edited fields of an existing one.
type CompanyDraft struct {
	Name    string
	Email   string
	Website string
	Logo    *File
}

// CompanyDraftFrom prefills a draft for editing. The logo is left empty so
// an update only re-uploads when the user picks a new file.
func CompanyDraftFrom(c Company) CompanyDraft {
	return CompanyDraft{Name: c.Name, Email: c.Email, Website: c.Website}
}

// FormFields implements Draft.
func (d CompanyDraft) FormFields() []Field {
	return []Field{
		{Name: "name", Value: d.Name},
		{Name: "email", Value: d.Email},
		{Name: "website", Value: d.Website},
	}
}

// Attachment implements Draft.
func (d CompanyDraft) Attachment() (string, *File) {
	return "logo", d.Logo
}
