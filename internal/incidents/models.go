package incidents

import (
	"database/sql/driver"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
)

// DefaultTable is the table the loader clears and fills.
const DefaultTable = "incidents"

// Incident is one cleaned row of the SFPD export. Field order is insert
// column order. Nullable columns use pgtype so a missing value is never
// confused with a zero.
type Incident struct {
	ID                     int64            `gorm:"column:id;primaryKey;autoIncrement"`
	IncidentDatetime       pgtype.Timestamp `gorm:"column:incident_datetime"`
	IncidentDayOfWeek      pgtype.Text      `gorm:"column:incident_day_of_week"`
	ReportDatetime         pgtype.Timestamp `gorm:"column:report_datetime"`
	ReportTypeDescription  pgtype.Text      `gorm:"column:report_type_description"`
	IncidentCode           pgtype.Int8      `gorm:"column:incident_code"`
	IncidentCategoryCustom Category         `gorm:"column:incident_category_custom"`
	IncidentCategory       string           `gorm:"column:incident_category"`
	IncidentSubcategory    pgtype.Text      `gorm:"column:incident_subcategory"`
	IncidentDescription    pgtype.Text      `gorm:"column:incident_description"`
	Resolution             pgtype.Text      `gorm:"column:resolution"`
	Intersection           pgtype.Text      `gorm:"column:intersection"`
	Latitude               pgtype.Float8    `gorm:"column:latitude"`
	Longitude              pgtype.Float8    `gorm:"column:longitude"`
	PoliceDistrict         pgtype.Text      `gorm:"column:police_district"`
	AnalysisNeighborhood   pgtype.Text      `gorm:"column:analysis_neighborhood"`
	SupervisorDistrict     pgtype.Int8      `gorm:"column:supervisor_district"`
}

func (Incident) TableName() string { return DefaultTable }

// HasLocation reports whether both coordinates parsed.
func (i Incident) HasLocation() bool {
	return i.Latitude.Valid && i.Longitude.Valid
}

func (c Category) Value() (driver.Value, error) {
	return string(c), nil
}

func (c *Category) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*c = ""
	case string:
		*c = Category(v)
	case []byte:
		*c = Category(v)
	default:
		return fmt.Errorf("scan category: unsupported type %T", src)
	}
	return nil
}
