package importer

import (
	"errors"
	"fmt"
	"iter"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tbourn/go-pilotlog-backend/internal/domain"
)

// Envelope keys of a raw log record.
const (
	keyUserID   = "user_id"
	keyGUID     = "guid"
	keyTable    = "table"
	keyMeta     = "meta"
	keyPlatform = "platform"
	keyModified = "_modified"
)

// Record is a validated log record: the envelope plus the coerced payload.
type Record struct {
	Index    int
	UserID   int64
	GUID     string
	Table    domain.TableType
	Platform int64
	Modified time.Time

	// Code is the payload code: a canonical UUID string, or an int64 for
	// settingconfig.
	Code any
	// Values holds every declared payload field by internal name. Absent
	// optional fields are present with a nil value.
	Values map[string]any
}

// envelope is checked by the outer validation pass. Table keeps the raw
// discriminator so the check normalizes it on its own.
type envelope struct {
	UserID   int64     `json:"user_id"   validate:"gte=0"`
	GUID     string    `json:"guid"      validate:"required,max=36"`
	Table    string    `json:"table"     validate:"required,tabletype"`
	Platform int64     `json:"platform"  validate:"gte=0"`
	Modified time.Time `json:"_modified" validate:"required"`
}

// Validator dispatches raw records to their schema and coerces them.
type Validator struct {
	registry *Registry
	check    *validator.Validate
}

// NewValidator returns a Validator over reg, or over DefaultRegistry when
// reg is nil.
func NewValidator(reg *Registry) *Validator {
	if reg == nil {
		reg = DefaultRegistry()
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	_ = v.RegisterValidation("tabletype", func(fl validator.FieldLevel) bool {
		return domain.NormalizeTable(fl.Field().String()).Valid()
	})
	return &Validator{registry: reg, check: v}
}

// Validate checks a single record.
func (v *Validator) Validate(raw Raw) (Record, error) {
	return v.validate(0, raw)
}

// Records validates raws lazily, in order. The first failure is yielded with
// a zero Record and iteration stops.
func (v *Validator) Records(raws []Raw) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for i, raw := range raws {
			rec, err := v.validate(i, raw)
			if err != nil {
				yield(Record{}, err)
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

func (v *Validator) validate(idx int, raw Raw) (Record, error) {
	fail := func(table domain.TableType, field string, err error) (Record, error) {
		return Record{}, &ValidationError{Index: idx, Table: table, Field: field, Err: err}
	}

	rawTable, present := raw[keyTable]
	if !present || rawTable == nil {
		return fail("", keyTable, ErrMissingField)
	}
	tableStr, ok := rawTable.(string)
	if !ok {
		return fail("", keyTable, invalid("expected string, got %s", kindOf(rawTable)))
	}
	table := domain.NormalizeTable(tableStr)
	schema, ok := v.registry.Lookup(table)
	if !ok {
		return fail(table, keyTable, fmt.Errorf("%w: %q", ErrUnknownTable, tableStr))
	}

	// Inner pass: payload.
	meta, present := raw[keyMeta]
	if !present || meta == nil {
		return fail(table, keyMeta, ErrMissingField)
	}
	payload, ok := meta.(map[string]any)
	if !ok {
		return fail(table, keyMeta, ErrNotObject)
	}
	values := make(map[string]any, len(schema.Fields))
	for _, f := range schema.Fields {
		rv, present := payload[f.External]
		if !present {
			if f.Required {
				return fail(table, f.External, ErrMissingField)
			}
			values[f.Internal] = nil
			continue
		}
		cv, err := coerce(f, rv)
		if err != nil {
			return fail(table, f.External, err)
		}
		values[f.Internal] = cv
	}

	// Outer pass: envelope.
	env := envelope{Table: tableStr}
	for _, ef := range []struct {
		key string
		f   Field
		set func(any)
	}{
		{keyUserID, req(keyUserID, keyUserID, TypeInteger), func(x any) { env.UserID = x.(int64) }},
		{keyGUID, req(keyGUID, keyGUID, TypeString), func(x any) { env.GUID = x.(string) }},
		{keyPlatform, req(keyPlatform, keyPlatform, TypeInteger), func(x any) { env.Platform = x.(int64) }},
		{keyModified, req(keyModified, keyModified, TypeDateTime), func(x any) { env.Modified = x.(time.Time) }},
	} {
		rv, present := raw[ef.key]
		if !present {
			return fail(table, ef.key, ErrMissingField)
		}
		cv, err := coerce(ef.f, rv)
		if err != nil {
			return fail(table, ef.key, err)
		}
		ef.set(cv)
	}
	if err := v.check.Struct(env); err != nil {
		var ves validator.ValidationErrors
		if errors.As(err, &ves) && len(ves) > 0 {
			fe := ves[0]
			return fail(table, fe.Field(), invalid("failed %q check", fe.Tag()))
		}
		return fail(table, "", err)
	}

	return Record{
		Index:    idx,
		UserID:   env.UserID,
		GUID:     env.GUID,
		Table:    domain.NormalizeTable(env.Table),
		Platform: env.Platform,
		Modified: env.Modified,
		Code:     values[CodeField],
		Values:   values,
	}, nil
}
