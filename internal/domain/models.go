// Package domain defines the persistence models for the pilot logbook. These
// types are mapped with GORM and shared by the repository, importer and
// export layers.
//
// Every entity table is keyed by the vendor-supplied `code`. Reference columns
// (`*_id`) are nullable and are only ever written by the import link pass.
package domain

import "time"

// LogRecord is the envelope stored for every imported line. The vendor guid is
// only unique per table, so the natural key is (guid, table_name).
type LogRecord struct {
	ID       uint      `json:"id"         gorm:"primaryKey;autoIncrement"`
	GUID     string    `json:"guid"       gorm:"column:guid;type:varchar(36);not null;uniqueIndex:ux_log_record_guid_table,priority:1"`
	Table    TableType `json:"table"      gorm:"column:table_name;type:varchar(25);not null;uniqueIndex:ux_log_record_guid_table,priority:2"`
	UserID   int64     `json:"user_id"    gorm:"column:user_id;not null;index"`
	Platform int64     `json:"platform"   gorm:"column:platform;not null"`
	Modified time.Time `json:"modified"   gorm:"column:modified;not null"`
}

// TableName returns the database table name for LogRecord.
func (LogRecord) TableName() string { return "log_records" }

// Aircraft is a logbook aircraft.
type Aircraft struct {
	Code           string    `json:"code"            gorm:"column:code;type:char(36);primaryKey"`
	RecordModified time.Time `json:"record_modified" gorm:"column:record_modified;not null"`

	Fin           string `json:"fin"            gorm:"column:fin;type:varchar(255)"`
	Sea           bool   `json:"sea"            gorm:"column:sea"`
	TMG           bool   `json:"tmg"            gorm:"column:tmg"`
	Efis          bool   `json:"efis"           gorm:"column:efis"`
	FNPT          int    `json:"fnpt"           gorm:"column:fnpt"`
	Make          string `json:"make"           gorm:"column:make;type:varchar(255)"`
	Run2          bool   `json:"run2"           gorm:"column:run2"`
	AircraftClass int    `json:"aircraft_class" gorm:"column:aircraft_class"`
	Model         string `json:"model"          gorm:"column:model;type:varchar(255)"`
	Power         int    `json:"power"          gorm:"column:power"`
	Seats         int    `json:"seats"          gorm:"column:seats"`
	Active        bool   `json:"active"         gorm:"column:active"`
	Kg5700        bool   `json:"kg5700"         gorm:"column:kg5700"`
	Rating        string `json:"rating"         gorm:"column:rating;type:varchar(255)"`
	Company       string `json:"company"        gorm:"column:company;type:varchar(255)"`
	Complex       bool   `json:"complex"        gorm:"column:complex"`
	CondLog       int    `json:"cond_log"       gorm:"column:cond_log"`
	FavList       bool   `json:"fav_list"       gorm:"column:fav_list"`
	Category      int    `json:"category"       gorm:"column:category"`
	HighPerf      bool   `json:"high_perf"      gorm:"column:high_perf"`
	SubModel      string `json:"sub_model"      gorm:"column:sub_model;type:varchar(255)"`
	Aerobatic     bool   `json:"aerobatic"      gorm:"column:aerobatic"`
	RefSearch     string `json:"ref_search"     gorm:"column:ref_search;type:varchar(255)"`
	Reference     string `json:"reference"      gorm:"column:reference;type:varchar(255)"`
	TailWheel     bool   `json:"tail_wheel"     gorm:"column:tail_wheel"`
	DefaultApp    int    `json:"default_app"    gorm:"column:default_app"`
	DefaultLog    int    `json:"default_log"    gorm:"column:default_log"`
	DefaultOps    int    `json:"default_ops"    gorm:"column:default_ops"`
	DeviceCode    int    `json:"device_code"    gorm:"column:device_code"`
	DefaultLaunch int    `json:"default_launch" gorm:"column:default_launch"`
	EngGroup      *int   `json:"eng_group"      gorm:"column:eng_group"`
	EngType       *int   `json:"eng_type"       gorm:"column:eng_type"`
}

// TableName returns the database table name for Aircraft.
func (Aircraft) TableName() string { return "aircraft" }

// AirField is an airport or landing site.
type AirField struct {
	Code           string    `json:"code"            gorm:"column:code;type:char(36);primaryKey"`
	RecordModified time.Time `json:"record_modified" gorm:"column:record_modified;not null"`

	AFCat       int     `json:"af_cat"       gorm:"column:af_cat"`
	AFIATA      string  `json:"afiata"       gorm:"column:afiata;type:varchar(255)"`
	AFICAO      string  `json:"aficao"       gorm:"column:aficao;type:varchar(255)"`
	AFName      string  `json:"af_name"      gorm:"column:af_name;type:varchar(255)"`
	TZCode      int     `json:"tz_code"      gorm:"column:tz_code"`
	Latitude    float64 `json:"latitude"     gorm:"column:latitude"`
	ShowList    bool    `json:"show_list"    gorm:"column:show_list"`
	AFCountry   int     `json:"af_country"   gorm:"column:af_country"`
	Longitude   float64 `json:"longitude"    gorm:"column:longitude"`
	NotesUser   string  `json:"notes_user"   gorm:"column:notes_user;type:varchar(255)"`
	RegionUser  int     `json:"region_user"  gorm:"column:region_user"`
	ElevationFT int     `json:"elevation_ft" gorm:"column:elevation_ft"`
	AFFAA       *string `json:"affaa"        gorm:"column:affaa;type:varchar(255)"`
	UserEdit    *bool   `json:"user_edit"    gorm:"column:user_edit"`
	City        *string `json:"city"         gorm:"column:city;type:varchar(255)"`
	Notes       *string `json:"notes"        gorm:"column:notes;type:varchar(255)"`
}

// TableName returns the database table name for AirField.
func (AirField) TableName() string { return "airfields" }

// Pilot is a crew member referenced by flights.
type Pilot struct {
	Code           string    `json:"code"            gorm:"column:code;type:char(36);primaryKey"`
	RecordModified time.Time `json:"record_modified" gorm:"column:record_modified;not null"`

	Notes       string  `json:"notes"        gorm:"column:notes;type:varchar(255)"`
	Active      bool    `json:"active"       gorm:"column:active"`
	Company     string  `json:"company"      gorm:"column:company;type:varchar(255)"`
	FavList     bool    `json:"fav_list"     gorm:"column:fav_list"`
	UserAPI     string  `json:"user_api"     gorm:"column:user_api;type:varchar(255)"`
	Facebook    string  `json:"facebook"     gorm:"column:facebook;type:varchar(255)"`
	LinkedIn    string  `json:"linkedin"     gorm:"column:linkedin;type:varchar(255)"`
	PilotRef    string  `json:"pilot_ref"    gorm:"column:pilot_ref;type:varchar(255)"`
	PilotName   string  `json:"pilot_name"   gorm:"column:pilot_name;type:varchar(255)"`
	PilotEmail  string  `json:"pilot_email"  gorm:"column:pilot_email;type:varchar(255)"`
	PilotPhone  string  `json:"pilot_phone"  gorm:"column:pilot_phone;type:varchar(255)"`
	Certificate string  `json:"certificate"  gorm:"column:certificate;type:varchar(255)"`
	PhoneSearch string  `json:"phone_search" gorm:"column:phone_search;type:varchar(255)"`
	PilotSearch string  `json:"pilot_search" gorm:"column:pilot_search;type:varchar(255)"`
	RosterAlias *string `json:"roster_alias" gorm:"column:roster_alias;type:varchar(255)"`
}

// TableName returns the database table name for Pilot.
func (Pilot) TableName() string { return "pilots" }

// Flight is a single logbook entry. The seven reference columns point at
// pilots, the aircraft and the departure/arrival airfields.
type Flight struct {
	Code           string    `json:"code"            gorm:"column:code;type:char(36);primaryKey"`
	RecordModified time.Time `json:"record_modified" gorm:"column:record_modified;not null"`

	PF           bool       `json:"pf"             gorm:"column:pf"`
	Pax          int        `json:"pax"            gorm:"column:pax"`
	Fuel         int        `json:"fuel"           gorm:"column:fuel"`
	DeIce        bool       `json:"de_ice"         gorm:"column:de_ice"`
	Route        string     `json:"route"          gorm:"column:route;type:varchar(255)"`
	ToDay        int        `json:"to_day"         gorm:"column:to_day"`
	MinU1        int        `json:"min_u1"         gorm:"column:min_u1"`
	MinU2        int        `json:"min_u2"         gorm:"column:min_u2"`
	MinU3        int        `json:"min_u3"         gorm:"column:min_u3"`
	MinU4        int        `json:"min_u4"         gorm:"column:min_u4"`
	MinXC        int        `json:"min_xc"         gorm:"column:min_xc"`
	ArrRwy       string     `json:"arr_rwy"        gorm:"column:arr_rwy;type:varchar(255)"`
	DepRwy       string     `json:"dep_rwy"        gorm:"column:dep_rwy;type:varchar(255)"`
	LdgDay       int        `json:"ldg_day"        gorm:"column:ldg_day"`
	LiftSW       int        `json:"lift_sw"        gorm:"column:lift_sw"`
	Report       string     `json:"report"         gorm:"column:report;type:varchar(255)"`
	TagOps       string     `json:"tag_ops"        gorm:"column:tag_ops;type:varchar(255)"`
	ToEdit       bool       `json:"to_edit"        gorm:"column:to_edit"`
	MinAir       int        `json:"min_air"        gorm:"column:min_air"`
	MinIFR       int        `json:"min_ifr"        gorm:"column:min_ifr"`
	MinPIC       int        `json:"min_pic"        gorm:"column:min_pic"`
	MinREL       int        `json:"min_rel"        gorm:"column:min_rel"`
	MinSFR       int        `json:"min_sfr"        gorm:"column:min_sfr"`
	DateUTC      time.Time  `json:"date_utc"       gorm:"column:date_utc;type:date"`
	HobbsIn      int        `json:"hobbs_in"       gorm:"column:hobbs_in"`
	Holding      int        `json:"holding"        gorm:"column:holding"`
	Pairing      string     `json:"pairing"        gorm:"column:pairing;type:varchar(255)"`
	Remarks      string     `json:"remarks"        gorm:"column:remarks;type:varchar(255)"`
	SignBox      int        `json:"sign_box"       gorm:"column:sign_box"`
	ToNight      int        `json:"to_night"       gorm:"column:to_night"`
	UserNum      int        `json:"user_num"       gorm:"column:user_num"`
	MinDual      int        `json:"min_dual"       gorm:"column:min_dual"`
	MinExam      int        `json:"min_exam"       gorm:"column:min_exam"`
	CrewList     string     `json:"crew_list"      gorm:"column:crew_list;type:varchar(255)"`
	DateBase     *time.Time `json:"date_base"      gorm:"column:date_base;type:date"`
	FuelUsed     int        `json:"fuel_used"      gorm:"column:fuel_used"`
	HobbsOut     int        `json:"hobbs_out"      gorm:"column:hobbs_out"`
	LdgNight     int        `json:"ldg_night"      gorm:"column:ldg_night"`
	NextPage     bool       `json:"next_page"      gorm:"column:next_page"`
	TagDelay     string     `json:"tag_delay"      gorm:"column:tag_delay;type:varchar(255)"`
	Training     string     `json:"training"       gorm:"column:training;type:varchar(255)"`
	UserBool     bool       `json:"user_bool"      gorm:"column:user_bool"`
	UserText     string     `json:"user_text"      gorm:"column:user_text;type:varchar(255)"`
	MinInst      int        `json:"min_inst"       gorm:"column:min_inst"`
	MinNight     int        `json:"min_night"      gorm:"column:min_night"`
	MinPICUS     int        `json:"min_picus"      gorm:"column:min_picus"`
	MinTotal     int        `json:"min_total"      gorm:"column:min_total"`
	ArrOffset    int        `json:"arr_offset"     gorm:"column:arr_offset"`
	DateLocal    *time.Time `json:"date_local"     gorm:"column:date_local;type:date"`
	DepOffset    int        `json:"dep_offset"     gorm:"column:dep_offset"`
	TagLaunch    string     `json:"tag_launch"     gorm:"column:tag_launch;type:varchar(255)"`
	TagLesson    string     `json:"tag_lesson"     gorm:"column:tag_lesson;type:varchar(255)"`
	ToTimeUTC    int        `json:"to_time_utc"    gorm:"column:to_time_utc"`
	BaseOffset   int        `json:"base_offset"    gorm:"column:base_offset"`
	LdgTimeUTC   int        `json:"ldg_time_utc"   gorm:"column:ldg_time_utc"`
	FuelPlanned  int        `json:"fuel_planned"   gorm:"column:fuel_planned"`
	NextSummary  bool       `json:"next_summary"   gorm:"column:next_summary"`
	TagApproach  string     `json:"tag_approach"   gorm:"column:tag_approach;type:varchar(255)"`
	ArrTimeSched int        `json:"arr_time_sched" gorm:"column:arr_time_sched"`
	DepTimeSched int        `json:"dep_time_sched" gorm:"column:dep_time_sched"`
	FlightNumber string     `json:"flight_number"  gorm:"column:flight_number;type:varchar(255)"`
	FlightSearch string     `json:"flight_search"  gorm:"column:flight_search;type:varchar(255)"`
	Cargo        *int       `json:"cargo"          gorm:"column:cargo"`
	ArrTimeUTC   *int       `json:"arr_time_utc"   gorm:"column:arr_time_utc"`
	DepTimeUTC   *int       `json:"dep_time_utc"   gorm:"column:dep_time_utc"`

	P1ID       *string `json:"p1_id"       gorm:"column:p1_id;type:char(36);index"`
	P2ID       *string `json:"p2_id"       gorm:"column:p2_id;type:char(36);index"`
	P3ID       *string `json:"p3_id"       gorm:"column:p3_id;type:char(36);index"`
	P4ID       *string `json:"p4_id"       gorm:"column:p4_id;type:char(36);index"`
	AircraftID *string `json:"aircraft_id" gorm:"column:aircraft_id;type:char(36);index"`
	ArrID      *string `json:"arr_id"      gorm:"column:arr_id;type:char(36);index"`
	DepID      *string `json:"dep_id"      gorm:"column:dep_id;type:char(36);index"`

	P1       *Pilot    `json:"-" gorm:"foreignKey:P1ID;references:Code;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	P2       *Pilot    `json:"-" gorm:"foreignKey:P2ID;references:Code;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	P3       *Pilot    `json:"-" gorm:"foreignKey:P3ID;references:Code;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	P4       *Pilot    `json:"-" gorm:"foreignKey:P4ID;references:Code;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	Aircraft *Aircraft `json:"-" gorm:"foreignKey:AircraftID;references:Code;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	Arr      *AirField `json:"-" gorm:"foreignKey:ArrID;references:Code;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	Dep      *AirField `json:"-" gorm:"foreignKey:DepID;references:Code;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

// TableName returns the database table name for Flight.
func (Flight) TableName() string { return "flights" }

// ImagePic is an attachment descriptor; LinkCode is informational only.
type ImagePic struct {
	Code           string    `json:"code"            gorm:"column:code;type:char(36);primaryKey"`
	RecordModified time.Time `json:"record_modified" gorm:"column:record_modified;not null"`

	FileExt     string `json:"file_ext"     gorm:"column:file_ext;type:varchar(10)"`
	FileName    string `json:"file_name"    gorm:"column:file_name;type:varchar(255)"`
	LinkCode    string `json:"link_code"    gorm:"column:link_code;type:char(36)"`
	ImgUpload   bool   `json:"img_upload"   gorm:"column:img_upload"`
	ImgDownload bool   `json:"img_download" gorm:"column:img_download"`
}

// TableName returns the database table name for ImagePic.
func (ImagePic) TableName() string { return "image_pics" }

// LimitRules is a flight-time limitation window.
type LimitRules struct {
	Code           string    `json:"code"            gorm:"column:code;type:char(36);primaryKey"`
	RecordModified time.Time `json:"record_modified" gorm:"column:record_modified;not null"`

	LTo         time.Time `json:"l_to"          gorm:"column:l_to;type:date"`
	LFrom       time.Time `json:"l_from"        gorm:"column:l_from;type:date"`
	LType       int       `json:"l_type"        gorm:"column:l_type"`
	LZone       int       `json:"l_zone"        gorm:"column:l_zone"`
	LMinutes    int       `json:"l_minutes"     gorm:"column:l_minutes"`
	LPeriodCode int       `json:"l_period_code" gorm:"column:l_period_code"`
}

// TableName returns the database table name for LimitRules.
func (LimitRules) TableName() string { return "limit_rules" }

// MyQuery is a saved logbook query.
type MyQuery struct {
	Code           string    `json:"code"            gorm:"column:code;type:char(36);primaryKey"`
	RecordModified time.Time `json:"record_modified" gorm:"column:record_modified;not null"`

	Name      string `json:"name"       gorm:"column:name;type:varchar(255)"`
	QuickView bool   `json:"quick_view" gorm:"column:quick_view"`
	ShortName string `json:"short_name" gorm:"column:short_name;type:varchar(255)"`
}

// TableName returns the database table name for MyQuery.
func (MyQuery) TableName() string { return "my_queries" }

// MyQueryBuild is one clause of a saved query.
type MyQueryBuild struct {
	Code           string    `json:"code"            gorm:"column:code;type:char(36);primaryKey"`
	RecordModified time.Time `json:"record_modified" gorm:"column:record_modified;not null"`

	Build1 string `json:"build_1" gorm:"column:build_1;type:varchar(255)"`
	Build2 int    `json:"build_2" gorm:"column:build_2"`
	Build3 int    `json:"build_3" gorm:"column:build_3"`
	Build4 string `json:"build_4" gorm:"column:build_4;type:varchar(255)"`

	MyQueryID *string  `json:"my_query_id" gorm:"column:my_query_id;type:char(36);index"`
	MyQuery   *MyQuery `json:"-"           gorm:"foreignKey:MyQueryID;references:Code;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

// TableName returns the database table name for MyQueryBuild.
func (MyQueryBuild) TableName() string { return "my_query_builds" }

// Qualification is a rating, medical or recency item.
type Qualification struct {
	Code           string    `json:"code"            gorm:"column:code;type:char(36);primaryKey"`
	RecordModified time.Time `json:"record_modified" gorm:"column:record_modified;not null"`

	RefExtra      int        `json:"ref_extra"      gorm:"column:ref_extra"`
	RefModel      string     `json:"ref_model"      gorm:"column:ref_model;type:varchar(255)"`
	Validity      int        `json:"validity"       gorm:"column:validity"`
	DateValid     *time.Time `json:"date_valid"     gorm:"column:date_valid;type:date"`
	QTypeCode     int        `json:"q_type_code"    gorm:"column:q_type_code"`
	DateIssued    *time.Time `json:"date_issued"    gorm:"column:date_issued;type:date"`
	MinimumQty    int        `json:"minimum_qty"    gorm:"column:minimum_qty"`
	NotifyDays    int        `json:"notify_days"    gorm:"column:notify_days"`
	MinimumPeriod int        `json:"minimum_period" gorm:"column:minimum_period"`
	NotifyComment string     `json:"notify_comment" gorm:"column:notify_comment;type:varchar(255)"`

	RefAirfieldID *string   `json:"ref_airfield_id" gorm:"column:ref_airfield_id;type:char(36);index"`
	RefAirfield   *AirField `json:"-"               gorm:"foreignKey:RefAirfieldID;references:Code;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

// TableName returns the database table name for Qualification.
func (Qualification) TableName() string { return "qualifications" }

// SettingConfig is an application setting; unlike the other tables its code
// is an integer.
type SettingConfig struct {
	Code           int64     `json:"code"            gorm:"column:code;primaryKey;autoIncrement:false"`
	RecordModified time.Time `json:"record_modified" gorm:"column:record_modified;not null"`

	Data  string `json:"data"  gorm:"column:data;type:varchar(255)"`
	Name  string `json:"name"  gorm:"column:name;type:varchar(255)"`
	Group string `json:"group" gorm:"column:group;type:varchar(255)"`
}

// TableName returns the database table name for SettingConfig.
func (SettingConfig) TableName() string { return "setting_configs" }

// Models returns every logbook model in migration order (referenced tables
// first).
func Models() []any {
	return []any{
		&LogRecord{},
		&Aircraft{},
		&AirField{},
		&Pilot{},
		&MyQuery{},
		&Flight{},
		&ImagePic{},
		&LimitRules{},
		&MyQueryBuild{},
		&Qualification{},
		&SettingConfig{},
		&ImportRun{},
	}
}
