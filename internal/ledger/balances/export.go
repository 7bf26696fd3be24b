package balances

import (
	"encoding/csv"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// WriteCSV streams the balance report as CSV with locale-aware amount
// formatting.
func WriteCSV(w io.Writer, rows []AccountBalance) error {
	printer := message.NewPrinter(language.English)
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"code", "name", "type", "balance"}); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.Code,
			row.Name,
			string(row.Type),
			printer.Sprintf("%.2f", row.Balance),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
