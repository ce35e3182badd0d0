package model

// AcademicCalendarID is the fixed id of the single settings document.
const AcademicCalendarID = "academicCalendar"

// AcademicCalendar is the institution-wide term setting the semester
// rollover is computed from.
type AcademicCalendar struct {
	ID               string `bson:"_id" json:"-"`
	ActiveBatchYear  int    `bson:"activeBatchYear" json:"active_batch_year"`
	AcademicSemester int    `bson:"academicSemester" json:"academic_semester"` // 1 odd, 2 even
	BaseModel        `bson:",inline"`
}
