// Package export renders contractors in the fixed CSV column contract.
package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aryan0dhankhar/outreach/internal/domain"
	"github.com/aryan0dhankhar/outreach/internal/normalize"
)

// Columns is the export header, in order
var Columns = []string{
	"name", "address", "city", "state", "zip", "main_service", "keywords",
	"phone", "website", "email", "status", "assigned_to", "notes",
}

// WriteCSV writes the header and one row per contractor. The assigned_to
// column carries the assignee's member id. It returns the number of data rows
// written.
func WriteCSV(w io.Writer, contractors []*domain.Contractor) (int, error) {
	bw := bufio.NewWriter(w)
	if err := writeRow(bw, Columns); err != nil {
		return 0, err
	}

	rows := 0
	for _, c := range contractors {
		record := []string{
			c.Name, c.Address, c.City, c.State, c.Zip, c.MainService, c.Keywords,
			c.Contact.Phone, c.Contact.Website, c.Contact.Email,
			string(c.Status), c.AssignedToID, c.Notes,
		}
		if err := writeRow(bw, record); err != nil {
			return rows, err
		}
		rows++
	}
	if err := bw.Flush(); err != nil {
		return rows, fmt.Errorf("flush csv: %w", err)
	}
	return rows, nil
}

func writeRow(w *bufio.Writer, cells []string) error {
	for i, cell := range cells {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(Escape(cell)); err != nil {
			return err
		}
	}
	_, err := w.WriteString("\n")
	return err
}

// Escape quotes a cell that contains a comma, quote, CR or LF, doubling
// internal quotes. Other cells are written as-is.
func Escape(cell string) string {
	if !strings.ContainsAny(cell, ",\"\r\n") {
		return cell
	}
	return `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
}

// Filename is contractors_<scope>_<YYYYMMDD>.csv where scope is "all" for
// an unrestricted export and the sanitized actor name otherwise.
func Filename(actor string, unrestricted bool, day time.Time) string {
	scope := "all"
	if !unrestricted {
		scope = normalize.FileSafe(actor)
	}
	return fmt.Sprintf("contractors_%s_%s.csv", scope, day.Format("20060102"))
}
