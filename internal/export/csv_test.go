package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/aryan0dhankhar/outreach/internal/domain"
)

func TestEscape(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"", ""},
		{"Call, then follow up", `"Call, then follow up"`},
		{`say "hi"`, `"say ""hi"""`},
		{"line\nbreak", "\"line\nbreak\""},
		{"carriage\rreturn", "\"carriage\rreturn\""},
	}
	for _, tt := range tests {
		if got := Escape(tt.in); got != tt.want {
			t.Errorf("Escape(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteCSVRoundTrips(t *testing.T) {
	contractors := []*domain.Contractor{
		{
			Name:         `Bob's "Best" Roofing`,
			Address:      "1 Main St, Austin, TX 78701",
			City:         "Austin",
			State:        "TX",
			Zip:          "78701",
			MainService:  "roofing",
			Keywords:     "roof",
			Contact:      domain.ContactInfo{Phone: "+1 512-555-0100", Website: "https://bob.example"},
			Status:       domain.StatusContacted,
			AssignedToID: "m1",
			Notes:        "Call, then follow up",
		},
		{Name: "Plain", Status: domain.StatusNotContacted},
	}

	var buf bytes.Buffer
	rows, err := WriteCSV(&buf, contractors)
	if err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if rows != 2 {
		t.Fatalf("expected 2 rows, got %d", rows)
	}
	if !strings.Contains(buf.String(), `"Call, then follow up"`) {
		t.Fatalf("expected quoted notes cell in %q", buf.String())
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse exported csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(records))
	}
	if strings.Join(records[0], ",") != strings.Join(Columns, ",") {
		t.Fatalf("unexpected header %v", records[0])
	}

	first := records[1]
	if first[0] != `Bob's "Best" Roofing` || first[2] != "Austin" || first[12] != "Call, then follow up" {
		t.Fatalf("unexpected first row %v", first)
	}
	if first[11] != "m1" || first[10] != "CONTACTED" || first[7] != "+1 512-555-0100" {
		t.Fatalf("unexpected assignee/status/phone in %v", first)
	}
	if records[2][11] != "" {
		t.Fatalf("expected empty assignee for unassigned row, got %q", records[2][11])
	}
}

func TestFilename(t *testing.T) {
	day := time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC)
	if got := Filename("Admin", true, day); got != "contractors_all_20240309.csv" {
		t.Fatalf("unexpected admin filename %q", got)
	}
	if got := Filename("Jean Luc", false, day); got != "contractors_Jean_Luc_20240309.csv" {
		t.Fatalf("unexpected member filename %q", got)
	}
}
