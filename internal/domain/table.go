package domain

import (
	"strings"

	"golang.org/x/text/cases"
)

// TableType is the discriminator carried by every imported log record.
type TableType string

const (
	TableAirfield      TableType = "airfield"
	TableAircraft      TableType = "aircraft"
	TableAirport       TableType = "airport"
	TablePilot         TableType = "pilot"
	TableFlight        TableType = "flight"
	TableImagePic      TableType = "imagepic"
	TableLimitRules    TableType = "limitrules"
	TableMyQuery       TableType = "myquery"
	TableMyQueryBuild  TableType = "myquerybuild"
	TableQualification TableType = "qualification"
	TableSettingConfig TableType = "settingconfig"
)

// TableTypes lists every known discriminator in declaration order.
var TableTypes = []TableType{
	TableAirfield,
	TableAircraft,
	TableAirport,
	TablePilot,
	TableFlight,
	TableImagePic,
	TableLimitRules,
	TableMyQuery,
	TableMyQueryBuild,
	TableQualification,
	TableSettingConfig,
}

// NormalizeTable folds a raw discriminator into its canonical lowercase form.
// It is the only normalization applied to discriminators; both the schema
// lookup and the envelope check go through it. A Caser is stateful, so one
// is built per call.
func NormalizeTable(raw string) TableType {
	return TableType(cases.Fold().String(strings.TrimSpace(raw)))
}

// Valid reports whether t is one of the known discriminators.
func (t TableType) Valid() bool {
	for _, k := range TableTypes {
		if k == t {
			return true
		}
	}
	return false
}

func (t TableType) String() string { return string(t) }
