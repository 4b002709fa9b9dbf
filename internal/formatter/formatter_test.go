package formatter

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/mtrack/internal/models"
	"github.com/desertthunder/mtrack/internal/shared"
	th "github.com/desertthunder/mtrack/internal/testing"
)

func score(f float64) *float64 { return &f }

func sampleEntries() []models.LibraryEntry {
	updated := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return []models.LibraryEntry{
		{Kind: models.KindMusic, ID: 4, Title: "Kid A", Subtitle: "Radiohead", Status: "listening", Progress: "12 plays ★", UpdatedAt: updated},
		{Kind: models.KindAnime, ID: 1, Title: "Frieren", Subtitle: "Frieren: Beyond Journey's End", Status: "watching", Progress: "5/28 eps", Score: score(9.5), Notes: "rewatch\nwith friends", UpdatedAt: updated},
		{Kind: models.KindManga, ID: 2, Title: "Berserk, Deluxe", Status: "plan_to_read", Progress: "ch 0, vol 0", Score: score(0), UpdatedAt: updated},
	}
}

func TestParseFormat(t *testing.T) {
	tc := []struct {
		in   string
		want Format
	}{
		{"csv", FormatCSV},
		{"MD", FormatMarkdown},
		{"markdown", FormatMarkdown},
		{"txt", FormatText},
		{" json ", FormatJSON},
	}
	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if err != nil || got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
			}
		})
	}

	t.Run("unknown", func(t *testing.T) {
		if _, err := ParseFormat("xml"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected invalid argument, got %v", err)
		}
	})
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleEntries())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("output is not valid CSV: %v", err)
		}
		if len(rows) != 4 {
			t.Fatalf("expected header + 3 rows, got %d", len(rows))
		}
		if strings.Join(rows[0], ",") != "Kind,ID,Title,Subtitle,Status,Progress,Score,Updated" {
			t.Errorf("unexpected headers %v", rows[0])
		}
		if rows[2][0] != "anime" || rows[2][6] != "9.5" || rows[2][7] != "2024-03-01T12:00:00Z" {
			t.Errorf("unexpected anime row %v", rows[2])
		}
		if rows[3][2] != "Berserk, Deluxe" {
			t.Errorf("comma in title should survive quoting, got %q", rows[3][2])
		}
		if rows[3][6] != "0" || rows[1][6] != "" {
			t.Errorf("zero score must differ from missing score: %q vs %q", rows[3][6], rows[1][6])
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown("My Library", sampleEntries())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}
		output := string(data)

		for _, want := range []string{
			"# My Library",
			"**Entries**: 3",
			"## Anime",
			"1. **Frieren** (Frieren: Beyond Journey's End): Watching, 5/28 eps, 9.5/10",
			"   > rewatch with friends",
			"1. **Berserk, Deluxe**: Plan to read, ch 0, vol 0, 0/10",
			"1. **Kid A** (Radiohead): Listening, 12 plays ★",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
		if strings.Contains(output, "## Games") {
			t.Error("empty kinds should not get a section")
		}
		if strings.Index(output, "## Anime") > strings.Index(output, "## Music") {
			t.Error("sections should follow kind order")
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(sampleEntries())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}
		output := string(data)
		if !strings.HasPrefix(output, "Entries: 3\n\n") {
			t.Errorf("unexpected header: %q", output)
		}
		if !strings.Contains(output, "2. [anime] Frieren - Watching (5/28 eps)") {
			t.Errorf("missing anime line, got: %s", output)
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		t.Run("entries", func(t *testing.T) {
			data, err := ExportToJSON(sampleEntries())
			if err != nil {
				t.Fatalf("ExportToJSON failed: %v", err)
			}
			var got []models.LibraryEntry
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if len(got) != 3 || got[1].Title != "Frieren" {
				t.Errorf("unexpected decoded entries %+v", got)
			}
		})

		t.Run("nil encodes as empty array", func(t *testing.T) {
			data, err := ExportToJSON(nil)
			if err != nil {
				t.Fatalf("ExportToJSON failed: %v", err)
			}
			if strings.TrimSpace(string(data)) != "[]" {
				t.Errorf("expected [], got %s", data)
			}
		})
	})

	t.Run("empty library", func(t *testing.T) {
		data, err := ExportToCSV(nil)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}
		if strings.Count(string(data), "\n") != 1 {
			t.Errorf("expected only the header, got %q", data)
		}
	})
}

func TestWriteExport(t *testing.T) {
	t.Run("WithCustomPath", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "out.md")

		got, err := WriteExport(sampleEntries(), FormatMarkdown, path, "Backup")
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if got != path {
			t.Errorf("expected %s, got %s", path, got)
		}
		th.AssertFileExists(t, path)
		if content := th.MustReadFile(t, path); !strings.HasPrefix(content, "# Backup") {
			t.Errorf("unexpected content: %s", content)
		}
	})

	t.Run("WithDefaultPath", func(t *testing.T) {
		t.Chdir(t.TempDir())

		got, err := WriteExport(sampleEntries(), FormatCSV, "", "")
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if got != "library.csv" {
			t.Errorf("expected library.csv, got %s", got)
		}
		th.AssertFileExists(t, got)
	})

	t.Run("UnknownFormat", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.xml")
		if _, err := WriteExport(sampleEntries(), Format("xml"), path, ""); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected invalid argument, got %v", err)
		}
	})

	t.Run("UnwritablePath", func(t *testing.T) {
		dir := t.TempDir()
		blocker := filepath.Join(dir, "file")
		if _, err := WriteExport(nil, FormatText, blocker, ""); err != nil {
			t.Fatalf("setup failed: %v", err)
		}
		if _, err := WriteExport(nil, FormatText, filepath.Join(blocker, "child.txt"), ""); err == nil {
			t.Error("expected error writing beneath a regular file")
		}
	})
}

func TestLabels(t *testing.T) {
	if got := StatusLabel("plan_to_watch"); got != "Plan to watch" {
		t.Errorf("StatusLabel = %q", got)
	}
	if got := StatusLabel(""); got != "" {
		t.Errorf("StatusLabel(\"\") = %q", got)
	}
	if got := KindLabel(models.KindGame); got != "Games" {
		t.Errorf("KindLabel = %q", got)
	}
}
