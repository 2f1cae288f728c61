package export

import (
	"context"
	"fmt"
	"iter"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-pilotlog-backend/internal/repo"
)

// Logbook template names.
const (
	LogbookTemplateName = "ForeFlight Logbook Import"
	AircraftTableName   = "Aircraft Table"
	FlightsTableName    = "Flights Table"
)

// AircraftHeaders are the columns of the aircraft block.
var AircraftHeaders = []Header{
	{Name: "AircraftID", Type: FieldText},
	{Name: "equipType (FAA)", Type: FieldText, Comment: "aircraft|ffs|ftd|batd|aatd"},
	{Name: "TypeCode", Type: FieldText},
	{Name: "Year", Type: FieldYear},
	{Name: "Make", Type: FieldText},
	{Name: "Model", Type: FieldText},
	{Name: "Category", Type: FieldText},
	{Name: "Class", Type: FieldText},
	{Name: "GearType", Type: FieldText, Comment: "fixed|retractable|floats|conventional"},
	{Name: "EngineType", Type: FieldText},
	{Name: "Complex", Type: FieldBoolean},
	{Name: "HighPerformance", Type: FieldBoolean},
	{Name: "Pressurized", Type: FieldBoolean},
	{Name: "TAA", Type: FieldBoolean},
}

// personComment documents the packed crew cells.
const personComment = "name;company;email"

// FlightHeaders are the columns of the flights block.
var FlightHeaders = []Header{
	{Name: "Date", Type: FieldDate},
	{Name: "AircraftID", Type: FieldText},
	{Name: "From", Type: FieldText},
	{Name: "To", Type: FieldText},
	{Name: "Route", Type: FieldText},
	{Name: "TimeOut", Type: FieldTime},
	{Name: "TimeOff", Type: FieldTime},
	{Name: "TimeOn", Type: FieldTime},
	{Name: "TimeIn", Type: FieldTime},
	{Name: "TotalTime", Type: FieldDecimal, Comment: "hours"},
	{Name: "PIC", Type: FieldDecimal},
	{Name: "Night", Type: FieldDecimal},
	{Name: "CrossCountry", Type: FieldDecimal},
	{Name: "ActualInstrument", Type: FieldDecimal},
	{Name: "DualGiven", Type: FieldDecimal},
	{Name: "DualReceived", Type: FieldDecimal},
	{Name: "DayTakeoffs", Type: FieldNumber},
	{Name: "DayLandingsFullStop", Type: FieldNumber},
	{Name: "NightTakeoffs", Type: FieldNumber},
	{Name: "NightLandingsFullStop", Type: FieldNumber},
	{Name: "AllLandings", Type: FieldNumber},
	{Name: "HobbsStart", Type: FieldDecimal},
	{Name: "HobbsEnd", Type: FieldDecimal},
	{Name: "Holds", Type: FieldNumber},
	{Name: "Person1", Type: FieldPackedDetail, Comment: personComment},
	{Name: "Person2", Type: FieldPackedDetail, Comment: personComment},
	{Name: "Person3", Type: FieldPackedDetail, Comment: personComment},
	{Name: "Person4", Type: FieldPackedDetail, Comment: personComment},
	{Name: "PilotComments", Type: FieldText},
}

// Assembler builds the logbook template from persisted rows.
type Assembler struct {
	DB       *gorm.DB
	PageSize int
	Name     string // template title; LogbookTemplateName when empty
}

// NewAssembler returns an Assembler reading pageSize rows per query.
func NewAssembler(db *gorm.DB, pageSize int) *Assembler {
	return &Assembler{DB: db, PageSize: pageSize}
}

// Logbook returns the export template. Rows are queried lazily, page by
// page, while the template is rendered.
func (a *Assembler) Logbook(ctx context.Context) Template {
	name := a.Name
	if name == "" {
		name = LogbookTemplateName
	}
	return Template{
		Name: name,
		Tables: []Table{
			{
				Name:    AircraftTableName,
				Headers: AircraftHeaders,
				Rows:    mapRows(repo.ExportAircraft(ctx, a.DB, a.PageSize), aircraftRow),
			},
			{
				Name:    FlightsTableName,
				Headers: FlightHeaders,
				Rows:    mapRows(repo.ExportFlights(ctx, a.DB, a.PageSize), flightRow),
			},
		},
	}
}

func mapRows[T any](src iter.Seq2[T, error], fn func(T) Row) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		for v, err := range src {
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(fn(v), nil) {
				return
			}
		}
	}
}

func aircraftRow(a repo.AircraftExport) Row {
	equip := "aircraft"
	if a.FNPT > 0 {
		equip = "ftd"
	}
	gear := ""
	switch {
	case a.Sea:
		gear = "floats"
	case a.TailWheel:
		gear = "conventional"
	}
	r := Row{
		"AircraftID":      a.Reference,
		"equipType (FAA)": equip,
		"TypeCode":        a.SubModel,
		"Make":            a.Make,
		"Model":           a.Model,
		"Category":        strconv.Itoa(a.Category),
		"Class":           strconv.Itoa(a.AircraftClass),
		"GearType":        gear,
		"Complex":         a.Complex,
		"HighPerformance": a.HighPerf,
		"TAA":             a.Efis,
	}
	if a.EngType != nil {
		r["EngineType"] = strconv.Itoa(*a.EngType)
	}
	return r
}

func flightRow(f repo.FlightExport) Row {
	return Row{
		"Date":                  f.DateUTC.Format("2006-01-02"),
		"AircraftID":            deref(f.AircraftReference),
		"From":                  firstSet(f.DepICAO, f.DepIATA),
		"To":                    firstSet(f.ArrICAO, f.ArrIATA),
		"Route":                 f.Route,
		"TimeOut":               hhmmPtr(f.DepTimeUTC),
		"TimeOff":               hhmm(f.ToTimeUTC),
		"TimeOn":                hhmm(f.LdgTimeUTC),
		"TimeIn":                hhmmPtr(f.ArrTimeUTC),
		"TotalTime":             hours(f.MinTotal),
		"PIC":                   hours(f.MinPIC),
		"Night":                 hours(f.MinNight),
		"CrossCountry":          hours(f.MinXC),
		"ActualInstrument":      hours(f.MinInst),
		"DualGiven":             hours(f.MinExam),
		"DualReceived":          hours(f.MinDual),
		"DayTakeoffs":           f.ToDay,
		"DayLandingsFullStop":   f.LdgDay,
		"NightTakeoffs":         f.ToNight,
		"NightLandingsFullStop": f.LdgNight,
		"AllLandings":           f.LdgDay + f.LdgNight,
		"HobbsStart":            tenths(f.HobbsOut),
		"HobbsEnd":              tenths(f.HobbsIn),
		"Holds":                 f.Holding,
		"Person1":               person(f.P1Name, f.P1Company, f.P1Email),
		"Person2":               person(f.P2Name, f.P2Company, f.P2Email),
		"Person3":               person(f.P3Name, f.P3Company, f.P3Email),
		"Person4":               person(f.P4Name, f.P4Company, f.P4Email),
		"PilotComments":         f.Remarks,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func firstSet(vals ...*string) string {
	for _, v := range vals {
		if v != nil && *v != "" {
			return *v
		}
	}
	return ""
}

// hhmm formats minutes after midnight UTC. Zero means not recorded.
func hhmm(minutes int) string {
	if minutes <= 0 {
		return ""
	}
	return fmt.Sprintf("%02d%02d", (minutes/60)%24, minutes%60)
}

func hhmmPtr(minutes *int) string {
	if minutes == nil {
		return ""
	}
	return hhmm(*minutes)
}

func hours(minutes int) string {
	if minutes == 0 {
		return ""
	}
	return strconv.FormatFloat(float64(minutes)/60, 'f', 2, 64)
}

// tenths formats a meter reading stored in tenths of an hour.
func tenths(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(float64(v)/10, 'f', 1, 64)
}

// person packs a crew member as name;company;email. A pilot that did not
// resolve has no name and yields an empty cell.
func person(name, company, email *string) string {
	if name == nil {
		return ""
	}
	return strings.Join([]string{deref(name), deref(company), deref(email)}, ";")
}
