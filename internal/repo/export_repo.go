package repo

import (
	"context"
	"iter"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-pilotlog-backend/internal/domain"
)

// AircraftExport is the aircraft projection used by the logbook export.
type AircraftExport struct {
	Code          string
	Reference     string
	Make          string
	Model         string
	SubModel      string
	Category      int
	AircraftClass int
	EngType       *int
	Sea           bool
	TailWheel     bool
	Complex       bool
	HighPerf      bool
	Efis          bool
	FNPT          int
}

// FlightExport is a flight joined with its aircraft, airfields and crew.
type FlightExport struct {
	Code       string
	DateUTC    time.Time
	Route      string
	Remarks    string
	DepTimeUTC *int
	ArrTimeUTC *int
	ToTimeUTC  int
	LdgTimeUTC int
	MinTotal   int
	MinPIC     int
	MinNight   int
	MinXC      int
	MinInst    int
	MinDual    int
	MinExam    int
	ToDay      int
	ToNight    int
	LdgDay     int
	LdgNight   int
	Holding    int
	HobbsOut   int
	HobbsIn    int

	AircraftReference *string
	DepICAO           *string
	DepIATA           *string
	ArrICAO           *string
	ArrIATA           *string

	P1Name, P1Company, P1Email *string
	P2Name, P2Company, P2Email *string
	P3Name, P3Company, P3Email *string
	P4Name, P4Company, P4Email *string
}

// DefaultExportPageSize is used when a caller passes a non-positive page size.
const DefaultExportPageSize = 100

// ExportAircraft streams aircraft ordered by code, reading pageSize rows per
// query.
func ExportAircraft(ctx context.Context, db *gorm.DB, pageSize int) iter.Seq2[AircraftExport, error] {
	if pageSize <= 0 {
		pageSize = DefaultExportPageSize
	}
	return func(yield func(AircraftExport, error) bool) {
		after := ""
		for {
			var page []AircraftExport
			err := db.WithContext(ctx).
				Table(domain.Aircraft{}.TableName()).
				Select(`code, reference, make, model, sub_model, category, aircraft_class,
					eng_type, sea, tail_wheel, complex, high_perf, efis, fnpt`).
				Where("code > ?", after).
				Order("code").
				Limit(pageSize).
				Scan(&page).Error
			if err != nil {
				yield(AircraftExport{}, err)
				return
			}
			for _, a := range page {
				if !yield(a, nil) {
					return
				}
			}
			if len(page) < pageSize {
				return
			}
			after = page[len(page)-1].Code
		}
	}
}

const flightExportSelect = `f.code, f.date_utc, f.route, f.remarks,
	f.dep_time_utc, f.arr_time_utc, f.to_time_utc, f.ldg_time_utc,
	f.min_total, f.min_pic, f.min_night, f.min_xc, f.min_inst, f.min_dual, f.min_exam,
	f.to_day, f.to_night, f.ldg_day, f.ldg_night, f.holding, f.hobbs_out, f.hobbs_in,
	a.reference AS aircraft_reference,
	dep.aficao AS dep_icao, dep.afiata AS dep_iata,
	arr.aficao AS arr_icao, arr.afiata AS arr_iata,
	p1.pilot_name AS p1_name, p1.company AS p1_company, p1.pilot_email AS p1_email,
	p2.pilot_name AS p2_name, p2.company AS p2_company, p2.pilot_email AS p2_email,
	p3.pilot_name AS p3_name, p3.company AS p3_company, p3.pilot_email AS p3_email,
	p4.pilot_name AS p4_name, p4.company AS p4_company, p4.pilot_email AS p4_email`

// ExportFlights streams flights in (date_utc, code) order, reading pageSize
// rows per query. Unresolved references come back as NULL.
func ExportFlights(ctx context.Context, db *gorm.DB, pageSize int) iter.Seq2[FlightExport, error] {
	if pageSize <= 0 {
		pageSize = DefaultExportPageSize
	}
	return func(yield func(FlightExport, error) bool) {
		var last *FlightExport
		for {
			q := db.WithContext(ctx).
				Table("flights AS f").
				Select(flightExportSelect).
				Joins("LEFT JOIN aircraft a ON a.code = f.aircraft_id").
				Joins("LEFT JOIN airfields dep ON dep.code = f.dep_id").
				Joins("LEFT JOIN airfields arr ON arr.code = f.arr_id").
				Joins("LEFT JOIN pilots p1 ON p1.code = f.p1_id").
				Joins("LEFT JOIN pilots p2 ON p2.code = f.p2_id").
				Joins("LEFT JOIN pilots p3 ON p3.code = f.p3_id").
				Joins("LEFT JOIN pilots p4 ON p4.code = f.p4_id")
			if last != nil {
				q = q.Where("f.date_utc > ? OR (f.date_utc = ? AND f.code > ?)", last.DateUTC, last.DateUTC, last.Code)
			}

			var page []FlightExport
			if err := q.Order("f.date_utc, f.code").Limit(pageSize).Scan(&page).Error; err != nil {
				yield(FlightExport{}, err)
				return
			}
			for _, f := range page {
				if !yield(f, nil) {
					return
				}
			}
			if len(page) < pageSize {
				return
			}
			last = &page[len(page)-1]
		}
	}
}
