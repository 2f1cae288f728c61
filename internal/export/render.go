package export

import "iter"

// Render lays a template out as rows of cells:
//
//	title row, blank row, then per table:
//	name + comments row, type row, name row, data rows, blank row
//
// Every row is padded with "" to the widest table's column count (at least
// one). Cell i of a table's name row holds the comment of header i, so the
// comment of the first header is never shown. The first error from a table's
// rows is yielded and rendering stops.
func Render(t Template) iter.Seq2[[]any, error] {
	width := 1
	for _, tb := range t.Tables {
		width = max(width, len(tb.Headers))
	}

	return func(yield func([]any, error) bool) {
		emit := func(cells ...any) bool {
			return yield(pad(cells, width), nil)
		}

		if !emit(t.Name) || !emit() {
			return
		}
		for _, tb := range t.Tables {
			title := make([]any, width)
			title[0] = tb.Name
			for i := 1; i < width; i++ {
				title[i] = ""
				if i < len(tb.Headers) {
					title[i] = tb.Headers[i].Comment
				}
			}
			if !yield(title, nil) {
				return
			}

			types := make([]any, len(tb.Headers))
			names := make([]any, len(tb.Headers))
			for i, h := range tb.Headers {
				types[i], names[i] = string(h.Type), h.Name
			}
			if !emit(types...) || !emit(names...) {
				return
			}

			if tb.Rows != nil {
				for row, err := range tb.Rows {
					if err != nil {
						yield(nil, err)
						return
					}
					cells := make([]any, len(tb.Headers))
					for i, h := range tb.Headers {
						v, ok := row[h.Name]
						if !ok || v == nil {
							v = ""
						}
						cells[i] = v
					}
					if !emit(cells...) {
						return
					}
				}
			}

			if !emit() {
				return
			}
		}
	}
}

func pad(cells []any, width int) []any {
	for len(cells) < width {
		cells = append(cells, "")
	}
	return cells
}
