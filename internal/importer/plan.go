package importer

import (
	"fmt"
	"iter"

	"github.com/tbourn/go-pilotlog-backend/internal/domain"
)

// pendingRefs holds the raw reference values of one row until the link pass.
type pendingRefs struct {
	code   string
	values map[string]string // reference column -> raw code
}

// tablePlan accumulates the rows of one table.
type tablePlan struct {
	schema  *Schema
	rows    []map[string]any
	seen    map[any]int
	pending []pendingRefs
}

// plan is the whole batch, built before anything is written.
type plan struct {
	records   int
	envelopes []domain.LogRecord
	tables    map[domain.TableType]*tablePlan
}

func buildPlan(reg *Registry, records iter.Seq2[Record, error]) (*plan, error) {
	p := &plan{tables: make(map[domain.TableType]*tablePlan)}

	for rec, err := range records {
		if err != nil {
			return nil, err
		}
		schema, ok := reg.Lookup(rec.Table)
		if !ok {
			return nil, &ValidationError{Index: rec.Index, Table: rec.Table, Field: keyTable, Err: ErrUnknownTable}
		}
		tp := p.tables[rec.Table]
		if tp == nil {
			tp = &tablePlan{schema: schema, seen: make(map[any]int)}
			p.tables[rec.Table] = tp
		}
		if first, dup := tp.seen[rec.Code]; dup {
			return nil, &ValidationError{
				Index: rec.Index,
				Table: rec.Table,
				Field: schema.codeExternal,
				Err:   fmt.Errorf("%w: %v already used by record %d", ErrDuplicateCode, rec.Code, first),
			}
		}
		tp.seen[rec.Code] = rec.Index

		p.envelopes = append(p.envelopes, domain.LogRecord{
			GUID:     rec.GUID,
			Table:    rec.Table,
			UserID:   rec.UserID,
			Platform: rec.Platform,
			Modified: rec.Modified,
		})

		row := make(map[string]any, len(schema.Columns()))
		for _, col := range schema.Columns() {
			row[col] = rec.Values[col]
		}
		tp.rows = append(tp.rows, row)

		if len(schema.References) > 0 {
			pr := pendingRefs{code: fmt.Sprint(rec.Code), values: make(map[string]string, len(schema.References))}
			for _, ref := range schema.References {
				if v, ok := rec.Values[ref.Field].(string); ok && v != "" {
					pr.values[ref.Column] = v
				}
			}
			tp.pending = append(tp.pending, pr)
		}
		p.records++
	}
	return p, nil
}
