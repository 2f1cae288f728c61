package importer

import "github.com/tbourn/go-pilotlog-backend/internal/domain"

func req(ext, in string, t FieldType) Field {
	return Field{External: ext, Internal: in, Type: t, Required: true}
}

func opt(ext, in string, t FieldType) Field {
	return Field{External: ext, Internal: in, Type: t}
}

var recordModified = req("Record_Modified", ModifiedField, TypeDateTime)

// LogbookSchemas returns the vendor schemas, one per importable table.
// airport is a known discriminator without a schema.
func LogbookSchemas() []Schema {
	return []Schema{
		airfieldSchema(),
		aircraftSchema(),
		pilotSchema(),
		myQuerySchema(),
		flightSchema(),
		imagePicSchema(),
		limitRulesSchema(),
		myQueryBuildSchema(),
		qualificationSchema(),
		settingConfigSchema(),
	}
}

func aircraftSchema() Schema {
	return Schema{
		Table:        domain.TableAircraft,
		StorageTable: domain.Aircraft{}.TableName(),
		Model:        &domain.Aircraft{},
		Fields: []Field{
			req("AircraftCode", "code", TypeUUID),
			recordModified,
			req("Fin", "fin", TypeString),
			req("Sea", "sea", TypeBoolean),
			req("TMG", "tmg", TypeBoolean),
			req("Efis", "efis", TypeBoolean),
			req("FNPT", "fnpt", TypeInteger),
			req("Make", "make", TypeString),
			req("Run2", "run2", TypeBoolean),
			req("Class", "aircraft_class", TypeInteger),
			req("Model", "model", TypeString),
			req("Power", "power", TypeInteger),
			req("Seats", "seats", TypeInteger),
			req("Active", "active", TypeBoolean),
			req("Kg5700", "kg5700", TypeBoolean),
			req("Rating", "rating", TypeString),
			req("Company", "company", TypeString),
			req("Complex", "complex", TypeBoolean),
			req("CondLog", "cond_log", TypeInteger),
			req("FavList", "fav_list", TypeBoolean),
			req("Category", "category", TypeInteger),
			req("HighPerf", "high_perf", TypeBoolean),
			req("SubModel", "sub_model", TypeString),
			req("Aerobatic", "aerobatic", TypeBoolean),
			req("RefSearch", "ref_search", TypeString),
			req("Reference", "reference", TypeString),
			req("Tailwheel", "tail_wheel", TypeBoolean),
			req("DefaultApp", "default_app", TypeInteger),
			req("DefaultLog", "default_log", TypeInteger),
			req("DefaultOps", "default_ops", TypeInteger),
			req("DeviceCode", "device_code", TypeInteger),
			req("DefaultLaunch", "default_launch", TypeInteger),
			opt("EngGroup", "eng_group", TypeInteger),
			opt("EngType", "eng_type", TypeInteger),
		},
	}
}

func airfieldSchema() Schema {
	return Schema{
		Table:        domain.TableAirfield,
		StorageTable: domain.AirField{}.TableName(),
		Model:        &domain.AirField{},
		Fields: []Field{
			req("AFCode", "code", TypeUUID),
			recordModified,
			req("AFCat", "af_cat", TypeInteger),
			req("AFIATA", "afiata", TypeString),
			req("AFICAO", "aficao", TypeString),
			req("AFName", "af_name", TypeString),
			req("TZCode", "tz_code", TypeInteger),
			req("Latitude", "latitude", TypeFloat),
			req("ShowList", "show_list", TypeBoolean),
			req("AFCountry", "af_country", TypeInteger),
			req("Longitude", "longitude", TypeFloat),
			req("NotesUser", "notes_user", TypeString),
			req("RegionUser", "region_user", TypeInteger),
			req("ElevationFT", "elevation_ft", TypeInteger),
			opt("AFFAA", "affaa", TypeString),
			opt("UserEdit", "user_edit", TypeBoolean),
			opt("City", "city", TypeString),
			opt("Notes", "notes", TypeString),
		},
	}
}

func pilotSchema() Schema {
	return Schema{
		Table:        domain.TablePilot,
		StorageTable: domain.Pilot{}.TableName(),
		Model:        &domain.Pilot{},
		Fields: []Field{
			req("PilotCode", "code", TypeUUID),
			recordModified,
			req("Notes", "notes", TypeString),
			req("Active", "active", TypeBoolean),
			req("Company", "company", TypeString),
			req("FavList", "fav_list", TypeBoolean),
			req("UserAPI", "user_api", TypeString),
			req("Facebook", "facebook", TypeString),
			req("LinkedIn", "linkedin", TypeString),
			req("PilotRef", "pilot_ref", TypeString),
			req("PilotName", "pilot_name", TypeString),
			req("PilotEMail", "pilot_email", TypeString),
			req("PilotPhone", "pilot_phone", TypeString),
			req("Certificate", "certificate", TypeString),
			req("PhoneSearch", "phone_search", TypeString),
			req("PilotSearch", "pilot_search", TypeString),
			opt("RosterAlias", "roster_alias", TypeString),
		},
	}
}

func flightSchema() Schema {
	return Schema{
		Table:        domain.TableFlight,
		StorageTable: domain.Flight{}.TableName(),
		Model:        &domain.Flight{},
		Fields: []Field{
			req("FlightCode", "code", TypeUUID),
			recordModified,
			req("PF", "pf", TypeBoolean),
			req("Pax", "pax", TypeInteger),
			req("Fuel", "fuel", TypeInteger),
			req("DeIce", "de_ice", TypeBoolean),
			req("Route", "route", TypeString),
			req("ToDay", "to_day", TypeInteger),
			req("minU1", "min_u1", TypeInteger),
			req("minU2", "min_u2", TypeInteger),
			req("minU3", "min_u3", TypeInteger),
			req("minU4", "min_u4", TypeInteger),
			req("minXC", "min_xc", TypeInteger),
			req("ArrRwy", "arr_rwy", TypeString),
			req("DepRwy", "dep_rwy", TypeString),
			req("LdgDay", "ldg_day", TypeInteger),
			req("LiftSW", "lift_sw", TypeInteger),
			req("Report", "report", TypeString),
			req("TagOps", "tag_ops", TypeString),
			req("ToEdit", "to_edit", TypeBoolean),
			req("minAIR", "min_air", TypeInteger),
			req("minIFR", "min_ifr", TypeInteger),
			req("minPIC", "min_pic", TypeInteger),
			req("minREL", "min_rel", TypeInteger),
			req("minSFR", "min_sfr", TypeInteger),
			req("DateUTC", "date_utc", TypeDate),
			req("HobbsIn", "hobbs_in", TypeInteger),
			req("Holding", "holding", TypeInteger),
			req("Pairing", "pairing", TypeString),
			req("Remarks", "remarks", TypeString),
			req("SignBox", "sign_box", TypeInteger),
			req("ToNight", "to_night", TypeInteger),
			req("UserNum", "user_num", TypeInteger),
			req("minDUAL", "min_dual", TypeInteger),
			req("minEXAM", "min_exam", TypeInteger),
			req("CrewList", "crew_list", TypeString),
			opt("DateBASE", "date_base", TypeDate),
			req("FuelUsed", "fuel_used", TypeInteger),
			req("HobbsOut", "hobbs_out", TypeInteger),
			req("LdgNight", "ldg_night", TypeInteger),
			req("NextPage", "next_page", TypeBoolean),
			req("TagDelay", "tag_delay", TypeString),
			req("Training", "training", TypeString),
			req("UserBool", "user_bool", TypeBoolean),
			req("UserText", "user_text", TypeString),
			req("minINSTR", "min_inst", TypeInteger),
			req("minNIGHT", "min_night", TypeInteger),
			req("minPICUS", "min_picus", TypeInteger),
			req("minTOTAL", "min_total", TypeInteger),
			req("ArrOffset", "arr_offset", TypeInteger),
			opt("DateLocal", "date_local", TypeDate),
			req("DepOffset", "dep_offset", TypeInteger),
			req("TagLaunch", "tag_launch", TypeString),
			req("TagLesson", "tag_lesson", TypeString),
			req("ToTimeUTC", "to_time_utc", TypeInteger),
			req("BaseOffset", "base_offset", TypeInteger),
			req("LdgTimeUTC", "ldg_time_utc", TypeInteger),
			req("FuelPlanned", "fuel_planned", TypeInteger),
			req("NextSummary", "next_summary", TypeBoolean),
			req("TagApproach", "tag_approach", TypeString),
			req("ArrTimeSCHED", "arr_time_sched", TypeInteger),
			req("DepTimeSCHED", "dep_time_sched", TypeInteger),
			req("FlightNumber", "flight_number", TypeString),
			req("FlightSearch", "flight_search", TypeString),
			opt("Cargo", "cargo", TypeInteger),
			opt("ArrTimeUTC", "arr_time_utc", TypeInteger),
			opt("DepTimeUTC", "dep_time_utc", TypeInteger),
			req("P1Code", "p1_code", TypeUUID),
			req("P2Code", "p2_code", TypeUUID),
			req("P3Code", "p3_code", TypeUUID),
			req("P4Code", "p4_code", TypeUUID),
			opt("AircraftCode", "aircraft_code", TypeUUID),
			req("ArrCode", "arr_code", TypeUUID),
			req("DepCode", "dep_code", TypeUUID),
		},
		References: []Reference{
			{Field: "aircraft_code", Column: "aircraft_id", Target: domain.TableAircraft},
			{Field: "arr_code", Column: "arr_id", Target: domain.TableAirfield},
			{Field: "dep_code", Column: "dep_id", Target: domain.TableAirfield},
			{Field: "p1_code", Column: "p1_id", Target: domain.TablePilot},
			{Field: "p2_code", Column: "p2_id", Target: domain.TablePilot},
			{Field: "p3_code", Column: "p3_id", Target: domain.TablePilot},
			{Field: "p4_code", Column: "p4_id", Target: domain.TablePilot},
		},
	}
}

func imagePicSchema() Schema {
	return Schema{
		Table:        domain.TableImagePic,
		StorageTable: domain.ImagePic{}.TableName(),
		Model:        &domain.ImagePic{},
		Fields: []Field{
			req("ImgCode", "code", TypeUUID),
			recordModified,
			req("FileExt", "file_ext", TypeString),
			req("FileName", "file_name", TypeString),
			req("LinkCode", "link_code", TypeUUID),
			req("Img_Upload", "img_upload", TypeBoolean),
			req("Img_Download", "img_download", TypeBoolean),
		},
	}
}

func limitRulesSchema() Schema {
	return Schema{
		Table:        domain.TableLimitRules,
		StorageTable: domain.LimitRules{}.TableName(),
		Model:        &domain.LimitRules{},
		Fields: []Field{
			req("LimitCode", "code", TypeUUID),
			recordModified,
			req("LTo", "l_to", TypeDate),
			req("LFrom", "l_from", TypeDate),
			req("LType", "l_type", TypeInteger),
			req("LZone", "l_zone", TypeInteger),
			req("LMinutes", "l_minutes", TypeInteger),
			req("LPeriodCode", "l_period_code", TypeInteger),
		},
	}
}

func myQuerySchema() Schema {
	return Schema{
		Table:        domain.TableMyQuery,
		StorageTable: domain.MyQuery{}.TableName(),
		Model:        &domain.MyQuery{},
		Fields: []Field{
			req("mQCode", "code", TypeUUID),
			recordModified,
			req("Name", "name", TypeString),
			req("QuickView", "quick_view", TypeBoolean),
			req("ShortName", "short_name", TypeString),
		},
	}
}

func myQueryBuildSchema() Schema {
	return Schema{
		Table:        domain.TableMyQueryBuild,
		StorageTable: domain.MyQueryBuild{}.TableName(),
		Model:        &domain.MyQueryBuild{},
		Fields: []Field{
			req("mQBCode", "code", TypeUUID),
			recordModified,
			req("Build1", "build_1", TypeString),
			req("Build2", "build_2", TypeInteger),
			req("Build3", "build_3", TypeInteger),
			req("Build4", "build_4", TypeString),
			req("mQCode", "my_query_code", TypeUUID),
		},
		References: []Reference{
			{Field: "my_query_code", Column: "my_query_id", Target: domain.TableMyQuery},
		},
	}
}

func qualificationSchema() Schema {
	dateValid := req("DateValid", "date_valid", TypeDate)
	dateValid.Nullable, dateValid.EmptyAsNull = true, true
	dateIssued := req("DateIssued", "date_issued", TypeDate)
	dateIssued.Nullable, dateIssued.EmptyAsNull = true, true

	return Schema{
		Table:        domain.TableQualification,
		StorageTable: domain.Qualification{}.TableName(),
		Model:        &domain.Qualification{},
		Fields: []Field{
			req("QCode", "code", TypeUUID),
			recordModified,
			req("RefExtra", "ref_extra", TypeInteger),
			req("RefModel", "ref_model", TypeString),
			req("Validity", "validity", TypeInteger),
			dateValid,
			req("QTypeCode", "q_type_code", TypeInteger),
			dateIssued,
			req("MinimumQty", "minimum_qty", TypeInteger),
			req("NotifyDays", "notify_days", TypeInteger),
			req("MinimumPeriod", "minimum_period", TypeInteger),
			req("NotifyComment", "notify_comment", TypeString),
			req("RefAirfield", "ref_airfield_code", TypeUUID),
		},
		References: []Reference{
			{Field: "ref_airfield_code", Column: "ref_airfield_id", Target: domain.TableAirfield},
		},
	}
}

func settingConfigSchema() Schema {
	return Schema{
		Table:        domain.TableSettingConfig,
		StorageTable: domain.SettingConfig{}.TableName(),
		Model:        &domain.SettingConfig{},
		Fields: []Field{
			req("ConfigCode", "code", TypeInteger),
			recordModified,
			req("Data", "data", TypeString),
			req("Name", "name", TypeString),
			req("Group", "group", TypeString),
		},
	}
}
