package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDedupKey(t *testing.T) {
	m := MinutesRecord{URL: "https://example.gov/a.pdf"}
	assert.Equal(t, "https://example.gov/a.pdf", m.DedupKey())

	p := PermitRecord{PDFURL: "https://example.gov/b.pdf"}
	assert.Equal(t, "https://example.gov/b.pdf", p.DedupKey())
}

func TestDate(t *testing.T) {
	d := Date(2024, time.May, 14)
	assert.Equal(t, "2024-05-14", d.Format(time.DateOnly))
	assert.Equal(t, time.UTC, d.Location())
	assert.Zero(t, d.Hour())
}
