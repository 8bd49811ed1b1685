package core

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// WriteFailedRowsCSV writes the failed rows of a report as CSV: a header of
// "_line", "_error" and the report columns, then one record per failed row
// holding its line number, reason and original cells. The result can be
// fixed up and uploaded again after dropping the first two columns.
func WriteFailedRowsCSV(w io.Writer, report *Report) error {
	cw := csv.NewWriter(w)

	header := append([]string{"_line", "_error"}, report.Columns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write failed rows header: %w", err)
	}

	for _, row := range report.FailedRows {
		record := append([]string{
			strconv.Itoa(row.LineNumber),
			row.Reason,
		}, row.Data...)
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write failed row %d: %w", row.LineNumber, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
