package model

import "time"

// Metadata contains document-level information.
type Metadata struct {
	Title    string
	Author   string
	Subject  string
	Keywords []string
	Creator  string // Creating application
	Producer string // Converting/producing application
	Created  time.Time
	Modified time.Time

	// Custom holds format-specific key/value properties that do not map
	// onto the fields above. Keys are unique.
	Custom map[string]string
}

// SetCustom records a custom property, allocating the map on first use.
func (m *Metadata) SetCustom(key, value string) {
	if m.Custom == nil {
		m.Custom = make(map[string]string)
	}
	m.Custom[key] = value
}

// IsZero reports whether no metadata field has been set.
func (m Metadata) IsZero() bool {
	return m.Title == "" && m.Author == "" && m.Subject == "" &&
		len(m.Keywords) == 0 && m.Creator == "" && m.Producer == "" &&
		m.Created.IsZero() && m.Modified.IsZero() && len(m.Custom) == 0
}
