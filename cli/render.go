package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/supakorn-kn/propadmin/collection"
	"github.com/supakorn-kn/propadmin/objects"
	"github.com/supakorn-kn/propadmin/query"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

type jsonPage struct {
	Collection string              `json:"collection"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"page_size"`
	TotalPages int                 `json:"total_pages"`
	Count      int                 `json:"count"`
	Search     string              `json:"search,omitempty"`
	Rows       []collection.Record `json:"rows"`
	Error      string              `json:"error,omitempty"`
}

func renderResult(w io.Writer, def objects.Definition, res query.Result, format string) error {

	switch format {
	case formatJSON:
		return renderJSON(w, def, res)
	case formatTable, "":
		renderTable(w, def, res)
		return nil
	default:
		return fmt.Errorf("unknown format %q (use table or json)", format)
	}
}

func renderJSON(w io.Writer, def objects.Definition, res query.Result) error {

	page := jsonPage{
		Collection: def.Name,
		Page:       res.Page,
		PageSize:   res.PageSize,
		TotalPages: res.PageCount(),
		Count:      res.Count,
		Search:     res.SearchTerm,
		Rows:       res.Rows,
	}

	if page.Rows == nil {
		page.Rows = []collection.Record{}
	}

	if res.Err != nil {
		page.Error = res.Err.Error()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(page)
}

func renderTable(w io.Writer, def objects.Definition, res query.Result) {

	if res.FirstLoad() {
		_, _ = fmt.Fprintln(w, "Loading...")
		return
	}

	if res.Err != nil {
		_, _ = fmt.Fprintf(w, "Error: %v\n", res.Err)
	}

	if len(res.Rows) == 0 {
		if res.Status != query.StatusError {
			_, _ = fmt.Fprintln(w, res.EmptyMessage())
		}
		_, _ = fmt.Fprintln(w, footer(res))
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(def.Title)

	headerRow := make(table.Row, len(def.Columns))
	for i, col := range def.Columns {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for _, rec := range res.Rows {
		row := make(table.Row, len(def.Columns))
		for i, col := range def.Columns {
			row[i] = formatValue(rec[col])
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintln(w, footer(res))
}

func footer(res query.Result) string {

	line := fmt.Sprintf("page %d/%d (%d items)", res.Page, max(res.PageCount(), 1), res.Count)
	if res.SearchTerm != "" {
		line += fmt.Sprintf(" search %q", res.SearchTerm)
	}

	if res.Status == query.StatusLoading {
		line += " refreshing"
	}

	return line
}

func formatValue(value any) string {

	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		return v.UTC().Format("2006-01-02 15:04")
	case float64:
		return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
	case map[string]any:
		if name, ok := v["name"]; ok && len(v) == 1 {
			return formatValue(name)
		}

		var parts []string
		for _, key := range slices.Sorted(maps.Keys(v)) {
			parts = append(parts, key+"="+formatValue(v[key]))
		}
		return strings.Join(parts, " ")
	default:
		return fmt.Sprint(v)
	}
}
