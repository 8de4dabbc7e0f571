package domain

import (
	"encoding/json"
	"sort"
)

// Dataset is a read-only catalog entry.
type Dataset struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Platform    Platform     `json:"platform"`
	Category    string       `json:"category"`
	Description string       `json:"description"`
	RecordCount int64        `json:"record_count"`
	Size        string       `json:"size"`
	LastUpdated string       `json:"last_updated"`
	IsPremium   bool         `json:"is_premium"`
	Tags        []string     `json:"tags"`
	Preview     PreviewTable `json:"preview_data"`
}

// Clone returns a deep copy of the dataset.
func (d Dataset) Clone() Dataset {
	d.Tags = append([]string(nil), d.Tags...)
	d.Preview = d.Preview.Clone()
	return d
}

// PreviewTable is a small sample of uniform-shape rows with a stable column
// order. Rows[i][j] is the value of Columns[j] in row i.
type PreviewTable struct {
	Columns []string
	Rows    [][]any
}

// NewPreviewTable builds a table from map rows. Columns are taken from the
// first row in sorted order since maps carry no ordering.
func NewPreviewTable(rows []map[string]any) PreviewTable {
	if len(rows) == 0 {
		return PreviewTable{}
	}
	cols := make([]string, 0, len(rows[0]))
	for k := range rows[0] {
		cols = append(cols, k)
	}
	sort.Strings(cols)

	t := PreviewTable{Columns: cols, Rows: make([][]any, 0, len(rows))}
	for _, row := range rows {
		vals := make([]any, len(cols))
		for i, c := range cols {
			vals[i] = row[c]
		}
		t.Rows = append(t.Rows, vals)
	}
	return t
}

// Records returns the rows as maps keyed by column name.
func (t PreviewTable) Records() []map[string]any {
	out := make([]map[string]any, 0, len(t.Rows))
	for _, row := range t.Rows {
		m := make(map[string]any, len(t.Columns))
		for i, c := range t.Columns {
			if i < len(row) {
				m[c] = row[i]
			}
		}
		out = append(out, m)
	}
	return out
}

func (t PreviewTable) Clone() PreviewTable {
	out := PreviewTable{Columns: append([]string(nil), t.Columns...)}
	for _, row := range t.Rows {
		out.Rows = append(out.Rows, append([]any(nil), row...))
	}
	return out
}

// MarshalJSON encodes the table the way the backend does: a list of objects.
func (t PreviewTable) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Records())
}

func (t *PreviewTable) UnmarshalJSON(b []byte) error {
	var rows []map[string]any
	if err := json.Unmarshal(b, &rows); err != nil {
		return err
	}
	*t = NewPreviewTable(rows)
	return nil
}

// DatasetFilter narrows a dataset list.
type DatasetFilter struct {
	Search   string
	Platform string
	Category string
	Premium  *bool
	Limit    int
	Offset   int
}

// DatasetPage is one page of the remote dataset listing.
type DatasetPage struct {
	Datasets []Dataset `json:"datasets"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PerPage  int       `json:"per_page"`
}

// DownloadLink is a time-limited dataset download URL.
type DownloadLink struct {
	URL         string `json:"download_url"`
	ExpiresAt   string `json:"expires_at"`
	DatasetName string `json:"dataset_name"`
}
