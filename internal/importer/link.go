package importer

import (
	"context"
	"maps"
	"slices"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-pilotlog-backend/internal/domain"
	"github.com/tbourn/go-pilotlog-backend/internal/repo"
)

// link is the second phase of collect-then-link. It runs after every table
// of the batch has been inserted, so a reference may point at a row from
// this batch (earlier or later in the input) or from a previous import.
// Values without a matching row stay NULL.
func (s *Saver) link(ctx context.Context, tx *gorm.DB, reg *Registry, p *plan, res *Result) error {
	lg := zerolog.Ctx(ctx)

	for _, t := range reg.Tables() {
		tp := p.tables[t]
		if tp == nil || len(tp.schema.References) == 0 || len(tp.pending) == 0 {
			continue
		}
		refs := tp.schema.References

		candidates := make(map[domain.TableType]map[string]struct{})
		for _, pr := range tp.pending {
			for _, ref := range refs {
				v, ok := pr.values[ref.Column]
				if !ok {
					continue
				}
				if candidates[ref.Target] == nil {
					candidates[ref.Target] = make(map[string]struct{})
				}
				candidates[ref.Target][v] = struct{}{}
			}
		}

		existing := make(map[domain.TableType]map[string]struct{}, len(candidates))
		for target, set := range candidates {
			ts, _ := reg.Lookup(target)
			found, err := repo.ExistingCodes(ctx, tx, ts.StorageTable, slices.Sorted(maps.Keys(set)), repo.ChunkSize(tx, s.batch(), 1))
			if err != nil {
				return &PersistenceError{Op: "lookup", Table: ts.StorageTable, Err: err}
			}
			existing[target] = found
		}

		counts := res.Tables[t]
		updates := make([]repo.ReferenceUpdate, 0, len(tp.pending))
		for _, pr := range tp.pending {
			u := repo.ReferenceUpdate{Code: pr.code, Values: make(map[string]string, len(refs))}
			for _, ref := range refs {
				v, ok := pr.values[ref.Column]
				if !ok {
					continue
				}
				if _, hit := existing[ref.Target][v]; hit {
					u.Values[ref.Column] = v
					counts.Resolved++
				} else {
					counts.Dangling++
				}
			}
			if len(u.Values) > 0 {
				updates = append(updates, u)
			}
		}

		cols := tp.schema.ReferenceColumns()
		chunk := repo.ChunkSize(tx, s.batch(), 2*len(cols)+1)
		if _, err := repo.SetReferences(ctx, tx, tp.schema.StorageTable, cols, updates, chunk); err != nil {
			return &PersistenceError{Op: "link", Table: tp.schema.StorageTable, Err: err}
		}
		res.Tables[t] = counts

		lg.Debug().
			Str("table", string(t)).
			Int64("resolved", counts.Resolved).
			Int64("dangling", counts.Dangling).
			Msg("import references linked")
	}
	return nil
}
