package news

import (
	"encoding/json"
	"time"
)

// Item is one aggregated headline.
type Item struct {
	Title           string
	Link            string
	PublicationDate *time.Time
	SourceName      string
	Snippet         string
}

const isoMillis = "2006-01-02T15:04:05.000Z"

type itemJSON struct {
	Title           string  `json:"title"`
	Link            string  `json:"link"`
	PublicationDate *string `json:"publication_date"`
	SourceName      string  `json:"source_name"`
	Snippet         string  `json:"snippet"`
}

// MarshalJSON writes publication_date as UTC ISO-8601 with milliseconds, or null.
func (i Item) MarshalJSON() ([]byte, error) {
	out := itemJSON{Title: i.Title, Link: i.Link, SourceName: i.SourceName, Snippet: i.Snippet}
	if i.PublicationDate != nil {
		s := i.PublicationDate.UTC().Format(isoMillis)
		out.PublicationDate = &s
	}
	return json.Marshal(out)
}
