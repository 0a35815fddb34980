package model

import "time"

// DocumentLink is a candidate document found on a listing page.
type DocumentLink struct {
	URL        string `json:"url"`
	AnchorText string `json:"anchor_text"`
	SourceURL  string `json:"source_url"`
}

// DescriptionPlaceholder is stored when a permit's first page has no
// recognizable project description.
const DescriptionPlaceholder = "—"

// MinutesFields holds the values inferred for a board minutes document.
type MinutesFields struct {
	MeetingDate time.Time
}

// PermitFields holds the values inferred for a building permit document.
// PermitNumber and Address are empty when not found.
type PermitFields struct {
	FileDate     time.Time
	PermitNumber string
	Address      string
	Description  string
}

// MinutesRecord is one row of county_board_raw.
type MinutesRecord struct {
	MeetingDate time.Time `json:"meeting_date"`
	Committee   string    `json:"committee"`
	DocType     string    `json:"doc_type"`
	URL         string    `json:"url"`
}

// DedupKey returns the natural unique key of the record.
func (r MinutesRecord) DedupKey() string { return r.URL }

// PermitRecord is one row of county_permits_raw.
type PermitRecord struct {
	FileDate     time.Time `json:"file_date"`
	PermitNumber *string   `json:"permit_no,omitempty"`
	Address      *string   `json:"address,omitempty"`
	Description  string    `json:"description"`
	PDFURL       string    `json:"pdf_url"`
}

// DedupKey returns the natural unique key of the record.
func (r PermitRecord) DedupKey() string { return r.PDFURL }

// Date builds a UTC midnight time for a calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
