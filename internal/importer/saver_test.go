package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/tbourn/go-pilotlog-backend/internal/domain"
)

func save(t *testing.T, s *Saver, raws []Raw) (*Result, error) {
	t.Helper()
	return s.Save(context.Background(), NewValidator(nil).Records(raws))
}

func TestSave_ForwardReferencesResolve(t *testing.T) {
	db := newImportDB(t)
	s := NewSaver(db, 0)

	aircraft, arr, dep, p1 := uuid.NewString(), uuid.NewString(), uuid.NewString(), uuid.NewString()
	flight := uuid.NewString()

	// The flight precedes everything it points at.
	raws := []Raw{
		rec(t, domain.TableFlight, map[string]any{
			"FlightCode":   flight,
			"AircraftCode": aircraft,
			"ArrCode":      arr,
			"DepCode":      dep,
			"P1Code":       p1,
		}),
		rec(t, domain.TableAircraft, map[string]any{"AircraftCode": aircraft}),
		rec(t, domain.TableAirfield, map[string]any{"AFCode": arr}),
		rec(t, domain.TableAirfield, map[string]any{"AFCode": dep}),
		rec(t, domain.TablePilot, map[string]any{"PilotCode": p1}),
	}

	res, err := save(t, s, raws)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if res.Records != 5 || res.EnvelopesInserted != 5 || res.EnvelopesIgnored != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	fc := res.Tables[domain.TableFlight]
	if fc.Received != 1 || fc.Inserted != 1 || fc.Resolved != 4 || fc.Dangling != 3 {
		t.Fatalf("flight counts = %+v", fc)
	}
	if res.Tables[domain.TableAirfield].Inserted != 2 {
		t.Fatalf("airfield counts = %+v", res.Tables[domain.TableAirfield])
	}

	var f domain.Flight
	if err := db.First(&f, "code = ?", flight).Error; err != nil {
		t.Fatalf("load flight: %v", err)
	}
	check := func(name string, got *string, want string) {
		t.Helper()
		if got == nil || *got != want {
			t.Fatalf("%s = %v; want %s", name, got, want)
		}
	}
	check("aircraft_id", f.AircraftID, aircraft)
	check("arr_id", f.ArrID, arr)
	check("dep_id", f.DepID, dep)
	check("p1_id", f.P1ID, p1)
	if f.P2ID != nil || f.P3ID != nil || f.P4ID != nil {
		t.Fatalf("dangling pilots should stay NULL: %v %v %v", f.P2ID, f.P3ID, f.P4ID)
	}
	if got := count(t, db, "log_records"); got != 5 {
		t.Fatalf("log_records = %d; want 5", got)
	}
}

func TestSave_ReferencesResolveAgainstEarlierImport(t *testing.T) {
	db := newImportDB(t)
	s := NewSaver(db, 0)

	query := uuid.NewString()
	if _, err := save(t, s, []Raw{rec(t, domain.TableMyQuery, map[string]any{"mQCode": query})}); err != nil {
		t.Fatalf("first Save: %v", err)
	}

	build := uuid.NewString()
	res, err := save(t, s, []Raw{rec(t, domain.TableMyQueryBuild, map[string]any{"mQBCode": build, "mQCode": query})})
	if err != nil {
		t.Fatalf("second Save: %v", err)
	}
	if c := res.Tables[domain.TableMyQueryBuild]; c.Resolved != 1 || c.Dangling != 0 {
		t.Fatalf("counts = %+v", c)
	}
	var b domain.MyQueryBuild
	if err := db.First(&b, "code = ?", build).Error; err != nil {
		t.Fatalf("load build: %v", err)
	}
	if b.MyQueryID == nil || *b.MyQueryID != query {
		t.Fatalf("my_query_id = %v; want %s", b.MyQueryID, query)
	}
}

func TestSave_ReimportIsIdempotent(t *testing.T) {
	db := newImportDB(t)
	s := NewSaver(db, 0)

	airfield := uuid.NewString()
	raws := []Raw{
		rec(t, domain.TableAirfield, map[string]any{"AFCode": airfield}),
		rec(t, domain.TableQualification, map[string]any{"RefAirfield": airfield, "DateValid": ""}),
		rec(t, domain.TableSettingConfig, map[string]any{"ConfigCode": 7.0}),
	}
	if _, err := save(t, s, raws); err != nil {
		t.Fatalf("first Save: %v", err)
	}

	res, err := save(t, s, raws)
	if err != nil {
		t.Fatalf("second Save: %v", err)
	}
	if res.EnvelopesInserted != 0 || res.EnvelopesIgnored != 3 {
		t.Fatalf("envelopes: %+v", res)
	}
	for _, tt := range []domain.TableType{domain.TableAirfield, domain.TableQualification, domain.TableSettingConfig} {
		if c := res.Tables[tt]; c.Inserted != 0 || c.Ignored != 1 {
			t.Fatalf("%s counts = %+v", tt, c)
		}
	}
	for table, want := range map[string]int64{"log_records": 3, "airfields": 1, "qualifications": 1, "setting_configs": 1} {
		if got := count(t, db, table); got != want {
			t.Fatalf("%s = %d; want %d", table, got, want)
		}
	}

	var q domain.Qualification
	if err := db.First(&q).Error; err != nil {
		t.Fatalf("load qualification: %v", err)
	}
	if q.RefAirfieldID == nil || *q.RefAirfieldID != airfield || q.DateValid != nil {
		t.Fatalf("qualification = %+v", q)
	}
}

func TestSave_ReimportLinksExistingRows(t *testing.T) {
	db := newImportDB(t)
	s := NewSaver(db, 0)

	pilot, flight := uuid.NewString(), uuid.NewString()
	fl := rec(t, domain.TableFlight, map[string]any{"FlightCode": flight, "P1Code": pilot, "Route": "EGLL-LFPG"})
	if _, err := save(t, s, []Raw{fl}); err != nil {
		t.Fatalf("first Save: %v", err)
	}

	again := rec(t, domain.TableFlight, map[string]any{"FlightCode": flight, "P1Code": pilot, "Route": "changed"})
	res, err := save(t, s, []Raw{again, rec(t, domain.TablePilot, map[string]any{"PilotCode": pilot})})
	if err != nil {
		t.Fatalf("second Save: %v", err)
	}
	if c := res.Tables[domain.TableFlight]; c.Inserted != 0 || c.Ignored != 1 || c.Resolved != 1 {
		t.Fatalf("flight counts = %+v", c)
	}

	var f domain.Flight
	if err := db.First(&f, "code = ?", flight).Error; err != nil {
		t.Fatalf("load flight: %v", err)
	}
	if f.P1ID == nil || *f.P1ID != pilot {
		t.Fatalf("p1_id = %v; want %s", f.P1ID, pilot)
	}
	if f.Route != "EGLL-LFPG" {
		t.Fatalf("route = %q; existing columns must not change", f.Route)
	}
}

func TestSave_SameGUIDDifferentTables(t *testing.T) {
	db := newImportDB(t)
	guid := uuid.NewString()
	a := rec(t, domain.TablePilot, nil)
	b := rec(t, domain.TableAircraft, nil)
	a["guid"], b["guid"] = guid, guid

	res, err := save(t, NewSaver(db, 0), []Raw{a, b})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if res.EnvelopesInserted != 2 {
		t.Fatalf("envelopes inserted = %d; want 2", res.EnvelopesInserted)
	}
}

func TestSave_DuplicateCodeRejectsBatch(t *testing.T) {
	db := newImportDB(t)
	code := uuid.NewString()
	raws := []Raw{
		rec(t, domain.TablePilot, nil),
		rec(t, domain.TablePilot, map[string]any{"PilotCode": code}),
		rec(t, domain.TablePilot, map[string]any{"PilotCode": code}),
	}
	_, err := save(t, NewSaver(db, 0), raws)
	ve := mustValidationError(t, err)
	if !errors.Is(err, ErrDuplicateCode) || ve.Index != 2 || ve.Field != "PilotCode" {
		t.Fatalf("unexpected error %v", err)
	}
	if got := count(t, db, "pilots"); got != 0 {
		t.Fatalf("pilots = %d; want 0", got)
	}
}

func TestSave_ValidationFailureWritesNothing(t *testing.T) {
	db := newImportDB(t)
	raws := []Raw{
		rec(t, domain.TablePilot, nil),
		rawRecord("unknownkind", map[string]any{}),
	}
	_, err := save(t, NewSaver(db, 0), raws)
	if !errors.Is(err, ErrUnknownTable) {
		t.Fatalf("want ErrUnknownTable, got %v", err)
	}
	if got := count(t, db, "log_records"); got != 0 {
		t.Fatalf("log_records = %d; want 0", got)
	}
}

func TestSave_StorageFailureRollsBack(t *testing.T) {
	db := newImportDB(t)
	if err := db.Migrator().DropTable(&domain.Pilot{}); err != nil {
		t.Fatalf("drop pilots: %v", err)
	}

	raws := []Raw{
		rec(t, domain.TableAircraft, nil),
		rec(t, domain.TablePilot, nil),
	}
	_, err := save(t, NewSaver(db, 0), raws)
	var pe *PersistenceError
	if !errors.As(err, &pe) || pe.Table != "pilots" {
		t.Fatalf("want *PersistenceError on pilots, got %v", err)
	}
	for _, table := range []string{"log_records", "aircraft"} {
		if got := count(t, db, table); got != 0 {
			t.Fatalf("%s = %d after rollback; want 0", table, got)
		}
	}
}

func TestSave_EmptyInput(t *testing.T) {
	db := newImportDB(t)
	res, err := save(t, NewSaver(db, 0), nil)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if res.Records != 0 || len(res.Tables) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestSave_SmallBatchesChunkStatements(t *testing.T) {
	db := newImportDB(t)
	s := NewSaver(db, 2)

	pilots := make([]string, 5)
	raws := make([]Raw, 0, 10)
	for i := range pilots {
		pilots[i] = uuid.NewString()
		raws = append(raws, rec(t, domain.TablePilot, map[string]any{"PilotCode": pilots[i]}))
	}
	for i := range pilots {
		raws = append(raws, rec(t, domain.TableFlight, map[string]any{"P1Code": pilots[i]}))
	}

	res, err := save(t, s, raws)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if res.EnvelopesInserted != 10 {
		t.Fatalf("envelopes inserted = %d", res.EnvelopesInserted)
	}
	if c := res.Tables[domain.TableFlight]; c.Inserted != 5 || c.Resolved != 5 {
		t.Fatalf("flight counts = %+v", c)
	}

	var linked int64
	if err := db.Model(&domain.Flight{}).Where("p1_id IS NOT NULL").Count(&linked).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if linked != 5 {
		t.Fatalf("linked flights = %d; want 5", linked)
	}
}
