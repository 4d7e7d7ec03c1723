package fixtures

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ArchiveRow is one row of the season fixtures archive with the typed
// columns coerced. Integer columns that do not start with a number are nil.
type ArchiveRow struct {
	ID          *int
	Event       *int
	TeamH       *int
	TeamA       *int
	TeamHScore  *int
	TeamAScore  *int
	Finished    bool
	KickoffTime string
	// Other holds every remaining column, trimmed.
	Other map[string]string
}

var intColumns = map[string]bool{
	"id": true, "event": true, "team_h": true, "team_a": true, "team_h_score": true, "team_a_score": true,
}

// ParseArchive reads a header-first CSV document. Blank lines are skipped,
// cells are trimmed, and "finished" is true only for a case-insensitive "true".
func ParseArchive(data []byte) ([]ArchiveRow, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var rows []ArchiveRow
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if blank(rec) {
			continue
		}

		row := ArchiveRow{Other: make(map[string]string)}
		for i, col := range header {
			if i >= len(rec) {
				break
			}
			v := strings.TrimSpace(rec[i])
			switch {
			case intColumns[col]:
				n := parseLeadingInt(v)
				switch col {
				case "id":
					row.ID = n
				case "event":
					row.Event = n
				case "team_h":
					row.TeamH = n
				case "team_a":
					row.TeamA = n
				case "team_h_score":
					row.TeamHScore = n
				case "team_a_score":
					row.TeamAScore = n
				}
			case col == "finished":
				row.Finished = strings.EqualFold(v, "true")
			case col == "kickoff_time":
				row.KickoffTime = v
			default:
				row.Other[col] = v
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// parseLeadingInt reads an optional sign and the leading decimal digits of s,
// so "3", "3.0" and "3 " all give 3. Anything without leading digits is nil.
func parseLeadingInt(s string) *int {
	i, neg := 0, false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	start := i
	n := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		n = n*10 + int(s[i]-'0')
		i++
	}
	if i == start {
		return nil
	}
	if neg {
		n = -n
	}
	return &n
}
