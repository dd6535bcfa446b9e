package textnorm

import "strings"

// Document is a job posting split into its structured fields.
// Text carries free-form content that is not attributed to a field.
type Document struct {
	Title          string `json:"title,omitempty"`
	CompanyProfile string `json:"company_profile,omitempty"`
	Description    string `json:"description,omitempty"`
	Requirements   string `json:"requirements,omitempty"`
	Benefits       string `json:"benefits,omitempty"`
	Text           string `json:"text,omitempty"`
}

// Assemble joins the non-blank, trimmed fields in the fixed order title,
// company profile, description, requirements, benefits, text.
// A document with no content assembles to "".
func (d Document) Assemble() string {
	fields := []string{
		d.Title,
		d.CompanyProfile,
		d.Description,
		d.Requirements,
		d.Benefits,
		d.Text,
	}

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, " ")
}
