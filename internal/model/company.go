package model

import "strings"

// Company identifies the research subject.
type Company struct {
	Name         string `json:"name"`
	Domain       string `json:"domain,omitempty"`
	Location     string `json:"location,omitempty"`
	NotionPageID string `json:"notion_page_id,omitempty"`
}

// Normalize trims whitespace from all identity fields.
func (c Company) Normalize() Company {
	c.Name = strings.TrimSpace(c.Name)
	c.Domain = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(c.Domain, "https://"), "http://"))
	c.Location = strings.TrimSpace(c.Location)
	return c
}
