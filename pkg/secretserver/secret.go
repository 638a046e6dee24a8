package secretserver

// Secret is a fetched secret: its identifying metadata plus the
// ordered field list exactly as the server returned it. Secrets are
// fetched fresh on every resolution and never persisted.
type Secret struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	TemplateID int     `json:"secretTemplateId"`
	Fields     []Field `json:"items"`
}

// Field is a single item within a secret's template.
type Field struct {
	ItemID     int    `json:"itemId"`
	FieldName  string `json:"fieldName"`
	Slug       string `json:"slug"`
	Value      string `json:"itemValue"`
	IsPassword bool   `json:"isPassword"`
	IsNotes    bool   `json:"isNotes"`
}

// Field returns the first field whose slug matches exactly
// (case-sensitive), and whether one was found.
func (s *Secret) Field(slug string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Slug == slug {
			return f, true
		}
	}
	return Field{}, false
}
