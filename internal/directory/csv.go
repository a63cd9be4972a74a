package directory

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/teemow/mailcampaign/internal/logging"
	"github.com/teemow/mailcampaign/internal/store"
)

var csvHeader = []string{"Name", "Email", "Phone", "Groups"}

// ImportResult summarizes a CSV import.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// ExportCSV writes every contact as Name,Email,Phone,Groups with the group
// ids joined by ";".
func (d *Directory) ExportCSV(ctx context.Context, w io.Writer) error {
	contacts, err := d.store.ListContacts(ctx)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, c := range contacts {
		row := []string{c.Name, c.Email, c.Phone, strings.Join(c.GroupIDs, ";")}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ImportCSV adds one contact per data row. The first row is a header. Blank
// rows and rows without a name and a valid email are skipped.
func (d *Directory) ImportCSV(ctx context.Context, r io.Reader) (ImportResult, error) {
	var res ImportResult

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	first := true
	line := 0
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return res, fmt.Errorf("failed to parse csv at record %d: %w", line, err)
		}
		if first {
			first = false
			continue
		}
		if blank(record) {
			continue
		}

		in := store.ContactInput{
			Name:  cell(record, 0),
			Email: cell(record, 1),
			Phone: cell(record, 2),
		}
		if groups := cell(record, 3); groups != "" {
			in.GroupIDs = strings.Split(groups, ";")
		}

		if _, err := d.AddContact(ctx, in); err != nil {
			if errors.Is(err, ErrValidation) {
				res.Skipped++
				d.logger.Debug("csv row skipped", logging.Operation("contacts.import"), slog.Int("record", line), logging.Err(err))
				continue
			}
			return res, err
		}
		res.Imported++
	}

	d.logger.Info("contacts imported", logging.Operation("contacts.import"),
		slog.Int("imported", res.Imported), slog.Int("skipped", res.Skipped))
	return res, nil
}

func cell(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
