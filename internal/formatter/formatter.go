// package formatter exports library entries to CSV, Markdown, plain text or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/mtrack/internal/models"
	"github.com/desertthunder/mtrack/internal/shared"
)

// Format selects an export encoding.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
	FormatJSON     Format = "json"
)

// ParseFormat accepts a format name or its usual file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: unknown export format %q (csv, markdown, text, json)", shared.ErrInvalidArgument, s)
}

// Extension returns the file extension for f, without the dot.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatText:
		return "txt"
	}
	return string(f)
}

var csvHeaders = []string{"Kind", "ID", "Title", "Subtitle", "Status", "Progress", "Score", "Updated"}

// ExportToCSV writes one row per entry with columns: Kind, ID, Title, Subtitle, Status, Progress, Score, Updated
func ExportToCSV(entries []models.LibraryEntry) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(csvHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, e := range entries {
		record := []string{
			string(e.Kind),
			strconv.FormatInt(e.ID, 10),
			e.Title,
			e.Subtitle,
			e.Status,
			e.Progress,
			formatScore(e.Score, ""),
			formatTime(e.UpdatedAt),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToMarkdown renders entries as a document with one section per kind, in [models.Kinds] order.
func ExportToMarkdown(title string, entries []models.LibraryEntry) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", title)
	fmt.Fprintf(&buf, "**Entries**: %d\n\n", len(entries))

	for _, kind := range models.Kinds {
		group := byKind(entries, kind)
		if len(group) == 0 {
			continue
		}
		fmt.Fprintf(&buf, "## %s\n\n", KindLabel(kind))
		for i, e := range group {
			subtitle := ""
			if e.Subtitle != "" {
				subtitle = fmt.Sprintf(" (%s)", e.Subtitle)
			}
			fmt.Fprintf(&buf, "%d. **%s**%s: %s, %s", i+1, e.Title, subtitle, StatusLabel(e.Status), e.Progress)
			if e.Score != nil {
				fmt.Fprintf(&buf, ", %s/10", formatScore(e.Score, ""))
			}
			buf.WriteString("\n")
			if e.Notes != "" {
				fmt.Fprintf(&buf, "   > %s\n", strings.ReplaceAll(e.Notes, "\n", " "))
			}
		}
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}

// ExportToText renders one line per entry.
func ExportToText(entries []models.LibraryEntry) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Entries: %d\n\n", len(entries))
	for i, e := range entries {
		fmt.Fprintf(&buf, "%d. [%s] %s - %s (%s)\n", i+1, e.Kind, e.Title, StatusLabel(e.Status), e.Progress)
	}
	return buf.Bytes(), nil
}

// ExportToJSON encodes entries as an indented array. A nil slice encodes as [].
func ExportToJSON(entries []models.LibraryEntry) ([]byte, error) {
	if entries == nil {
		entries = []models.LibraryEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// Export encodes entries in format. title is used by Markdown only.
func Export(entries []models.LibraryEntry, format Format, title string) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(entries)
	case FormatMarkdown:
		return ExportToMarkdown(title, entries)
	case FormatText:
		return ExportToText(entries)
	case FormatJSON:
		return ExportToJSON(entries)
	}
	return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, format)
}

// WriteExport encodes entries and writes them to path.
//
// Defaults to library.{ext} in the working directory. Parent directories are created as needed.
func WriteExport(entries []models.LibraryEntry, format Format, path, title string) (string, error) {
	if path == "" {
		path = "library." + format.Extension()
	}

	data, err := Export(entries, format, title)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", format, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

// KindLabel returns the section heading for kind.
func KindLabel(kind models.Kind) string {
	switch kind {
	case models.KindAnime:
		return "Anime"
	case models.KindManga:
		return "Manga"
	case models.KindGame:
		return "Games"
	case models.KindMusic:
		return "Music"
	}
	return string(kind)
}

// StatusLabel turns a stored status like "plan_to_watch" into "Plan to watch".
func StatusLabel(status string) string {
	if status == "" {
		return ""
	}
	s := strings.ReplaceAll(status, "_", " ")
	return strings.ToUpper(s[:1]) + s[1:]
}

func byKind(entries []models.LibraryEntry, kind models.Kind) []models.LibraryEntry {
	var out []models.LibraryEntry
	for _, e := range entries {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func formatScore(score *float64, missing string) string {
	if score == nil {
		return missing
	}
	return strconv.FormatFloat(*score, 'f', -1, 64)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
