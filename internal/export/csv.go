// Package export renders the appointment collection for other tools: CSV for
// spreadsheets and iCalendar for the shop's calendar apps.
package export

import (
	"io"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/tbourn/go-repair-scheduler/internal/domain"
)

// CSVRow is one exported line. CreatedAt is RFC 3339 in UTC.
type CSVRow struct {
	ID           string `csv:"id"`
	ClientName   string `csv:"client_name"`
	VehicleModel string `csv:"vehicle_model"`
	Date         string `csv:"date"`
	Time         string `csv:"time"`
	Description  string `csv:"description"`
	CreatedAt    string `csv:"created_at"`
}

// CSVRows maps appointments to export rows, keeping order.
func CSVRows(list []domain.Appointment) []*CSVRow {
	rows := make([]*CSVRow, 0, len(list))
	for _, a := range list {
		rows = append(rows, &CSVRow{
			ID:           a.ID,
			ClientName:   a.ClientName,
			VehicleModel: a.VehicleModel,
			Date:         a.Date,
			Time:         a.Time,
			Description:  a.Description,
			CreatedAt:    a.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	return rows
}

// WriteCSV writes list as CSV with a header line. An empty list still
// produces the header.
func WriteCSV(w io.Writer, list []domain.Appointment) error {
	return gocsv.Marshal(CSVRows(list), w)
}
