package database

import (
	"database/sql"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"
	"github.com/zatekoja/healthatlas/internal/domain/entities"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// entityTable describes how a directory entry maps onto its table
type entityTable[T entities.DirectoryEntry] struct {
	name    string
	kind    entities.EntityKind
	columns []string
	newItem func() T
	targets func(T, *recordNulls) []any
	apply   func(T, *recordNulls)
	record  func(T) goqu.Record
}

// recordNulls collects the nullable columns of a row until they are copied onto the entity
type recordNulls struct {
	locationID sql.NullString
	text       [6]sql.NullString
	reportedAt sql.NullTime
}

func (n *recordNulls) applyRecord(r *entities.Record) {
	r.LocationID = nil
	if n.locationID.Valid {
		id := n.locationID.String
		r.LocationID = &id
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullLocation(r *entities.Record) sql.NullString {
	return nullString(r.LocationRef())
}

func recordColumns(extra ...string) []string {
	columns := []string{"id", "status", "location_id", "created_at", "updated_at"}
	return append(columns, extra...)
}

func recordTargets(r *entities.Record, n *recordNulls) []any {
	return []any{&r.ID, &r.Status, &n.locationID, &r.CreatedAt, &r.UpdatedAt}
}

func baseRecord(r *entities.Record) goqu.Record {
	return goqu.Record{
		"id":          r.ID,
		"status":      r.Status,
		"location_id": nullLocation(r),
		"created_at":  r.CreatedAt,
		"updated_at":  r.UpdatedAt,
	}
}

var facilityTable = entityTable[*entities.Facility]{
	name: "facilities",
	kind: entities.KindFacility,
	columns: recordColumns(
		"name", "address", "phone", "email", "description",
		"facility_type_id", "province_id", "services",
	),
	newItem: func() *entities.Facility { return &entities.Facility{} },
	targets: func(f *entities.Facility, n *recordNulls) []any {
		return append(recordTargets(&f.Record, n),
			&f.Name, &n.text[0], &n.text[1], &n.text[2], &n.text[3],
			&n.text[4], &n.text[5], pq.Array(&f.Services),
		)
	},
	apply: func(f *entities.Facility, n *recordNulls) {
		n.applyRecord(&f.Record)
		f.Address = n.text[0].String
		f.Phone = n.text[1].String
		f.Email = n.text[2].String
		f.Description = n.text[3].String
		f.FacilityTypeID = n.text[4].String
		f.ProvinceID = n.text[5].String
		if f.Services == nil {
			f.Services = []string{}
		}
	},
	record: func(f *entities.Facility) goqu.Record {
		r := baseRecord(&f.Record)
		r["name"] = f.Name
		r["address"] = nullString(f.Address)
		r["phone"] = nullString(f.Phone)
		r["email"] = nullString(f.Email)
		r["description"] = nullString(f.Description)
		r["facility_type_id"] = nullString(f.FacilityTypeID)
		r["province_id"] = nullString(f.ProvinceID)
		r["services"] = pq.Array(nonNilStrings(f.Services))
		return r
	},
}

var pharmacyTable = entityTable[*entities.Pharmacy]{
	name: "pharmacies",
	kind: entities.KindPharmacy,
	columns: recordColumns(
		"name", "address", "phone", "license_number", "opening_hours", "province_id",
	),
	newItem: func() *entities.Pharmacy { return &entities.Pharmacy{} },
	targets: func(p *entities.Pharmacy, n *recordNulls) []any {
		return append(recordTargets(&p.Record, n),
			&p.Name, &n.text[0], &n.text[1], &n.text[2], &n.text[3], &n.text[4],
		)
	},
	apply: func(p *entities.Pharmacy, n *recordNulls) {
		n.applyRecord(&p.Record)
		p.Address = n.text[0].String
		p.Phone = n.text[1].String
		p.LicenseNumber = n.text[2].String
		p.OpeningHours = n.text[3].String
		p.ProvinceID = n.text[4].String
	},
	record: func(p *entities.Pharmacy) goqu.Record {
		r := baseRecord(&p.Record)
		r["name"] = p.Name
		r["address"] = nullString(p.Address)
		r["phone"] = nullString(p.Phone)
		r["license_number"] = nullString(p.LicenseNumber)
		r["opening_hours"] = nullString(p.OpeningHours)
		r["province_id"] = nullString(p.ProvinceID)
		return r
	},
}

var outbreakTable = entityTable[*entities.OutbreakZone]{
	name: "outbreak_zones",
	kind: entities.KindOutbreak,
	columns: recordColumns(
		"name", "disease", "severity", "case_count", "province_id", "description", "reported_at",
	),
	newItem: func() *entities.OutbreakZone { return &entities.OutbreakZone{} },
	targets: func(o *entities.OutbreakZone, n *recordNulls) []any {
		return append(recordTargets(&o.Record, n),
			&o.Name, &o.Disease, &n.text[0], &o.CaseCount, &n.text[1], &n.text[2], &n.reportedAt,
		)
	},
	apply: func(o *entities.OutbreakZone, n *recordNulls) {
		n.applyRecord(&o.Record)
		o.Severity = n.text[0].String
		o.ProvinceID = n.text[1].String
		o.Description = n.text[2].String
		o.ReportedAt = nil
		if n.reportedAt.Valid {
			t := n.reportedAt.Time
			o.ReportedAt = &t
		}
	},
	record: func(o *entities.OutbreakZone) goqu.Record {
		r := baseRecord(&o.Record)
		r["name"] = o.Name
		r["disease"] = o.Disease
		r["severity"] = nullString(o.Severity)
		r["case_count"] = o.CaseCount
		r["province_id"] = nullString(o.ProvinceID)
		r["description"] = nullString(o.Description)
		reportedAt := sql.NullTime{}
		if o.ReportedAt != nil {
			reportedAt = sql.NullTime{Time: *o.ReportedAt, Valid: true}
		}
		r["reported_at"] = reportedAt
		return r
	},
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
