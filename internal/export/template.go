// Package export renders table-oriented templates into delimited text or
// spreadsheets. A Template is a list of tables, each with typed headers and
// a lazy row sequence; nothing is materialized beyond the row being written.
package export

import "iter"

// HeaderFieldType is the format hint printed in a table's type row.
type HeaderFieldType string

const (
	FieldText         HeaderFieldType = "Text"
	FieldNumber       HeaderFieldType = "Number"
	FieldYear         HeaderFieldType = "YYYY"
	FieldBoolean      HeaderFieldType = "Boolean"
	FieldDate         HeaderFieldType = "Date"
	FieldTime         HeaderFieldType = "hhmm"
	FieldDecimal      HeaderFieldType = "Decimal"
	FieldPackedDetail HeaderFieldType = "Packed Detail"
	FieldDateTime     HeaderFieldType = "DateTime"
)

// Header is one column. Comment is optional.
type Header struct {
	Name    string
	Type    HeaderFieldType
	Comment string
}

// Row maps header names to cell values. Missing names render empty.
type Row map[string]any

// Table is a named block of the template.
type Table struct {
	Name    string
	Headers []Header
	Rows    iter.Seq2[Row, error]
}

// Template is the unit handed to a renderer.
type Template struct {
	Name   string
	Tables []Table
}

// RowsOf adapts a fixed slice for tests and small tables.
func RowsOf(rows ...Row) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		for _, r := range rows {
			if !yield(r, nil) {
				return
			}
		}
	}
}
