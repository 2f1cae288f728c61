package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
)

// Writer serialises rendered rows onto w. It returns the number of rows
// written.
type Writer interface {
	ContentType() string
	Extension() string
	Write(w io.Writer, rows iter.Seq2[[]any, error]) (int, error)
}

// DefaultFlushEvery is how many rows CSVWriter buffers between flushes.
const DefaultFlushEvery = 100

// CSVWriter writes comma separated rows terminated by CRLF. When w is an
// http.Flusher it is flushed along with the csv buffer, so a download
// starts before the export is complete.
type CSVWriter struct {
	FlushEvery int
}

func (CSVWriter) ContentType() string { return "text/csv" }
func (CSVWriter) Extension() string   { return "csv" }

func (cw CSVWriter) Write(w io.Writer, rows iter.Seq2[[]any, error]) (int, error) {
	every := cw.FlushEvery
	if every <= 0 {
		every = DefaultFlushEvery
	}
	out := csv.NewWriter(w)
	out.UseCRLF = true

	flush := func() error {
		out.Flush()
		if err := out.Error(); err != nil {
			return err
		}
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		return nil
	}

	n := 0
	record := make([]string, 0, 16)
	for row, err := range rows {
		if err != nil {
			_ = flush()
			return n, err
		}
		record = record[:0]
		for _, v := range row {
			record = append(record, Cell(v))
		}
		if err := out.Write(record); err != nil {
			return n, err
		}
		n++
		if n%every == 0 {
			if err := flush(); err != nil {
				return n, err
			}
		}
	}
	return n, flush()
}

// Cell formats a value for delimited text.
func Cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(time.RFC3339)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

// maxSheetName is Excel's limit on worksheet names.
const maxSheetName = 31

// XLSXWriter writes all rows to a single worksheet through excelize's stream
// writer. The workbook is only complete once every row is in, so nothing
// reaches w before the last row has been rendered.
type XLSXWriter struct {
	Sheet string
}

func (XLSXWriter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
func (XLSXWriter) Extension() string { return "xlsx" }

func (xw XLSXWriter) Write(w io.Writer, rows iter.Seq2[[]any, error]) (int, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Sheet1"
	if name := xw.Sheet; name != "" {
		if len(name) > maxSheetName {
			name = name[:maxSheetName]
		}
		if err := f.SetSheetName(sheet, name); err != nil {
			return 0, err
		}
		sheet = name
	}
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return 0, err
	}

	n := 0
	for row, err := range rows {
		if err != nil {
			return n, err
		}
		cell, err := excelize.CoordinatesToCellName(1, n+1)
		if err != nil {
			return n, err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return n, err
		}
		n++
	}
	if err := sw.Flush(); err != nil {
		return n, err
	}
	if _, err := f.WriteTo(w); err != nil {
		return n, err
	}
	return n, nil
}
