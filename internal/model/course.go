package model

import (
	"strconv"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/workflow"
)

// Course is one curriculum unit of a programme under a regulation. A nil
// Semester groups the course by category instead.
type Course struct {
	ID                  string                    `bson:"_id" json:"id"`
	RegulationID        string                    `bson:"regulationId" json:"regulation_id"`
	Programme           ProgrammeInfo             `bson:"programme" json:"programme"`
	Department          DepartmentInfo            `bson:"department" json:"department"`
	Semester            *int                      `bson:"semester" json:"semester"`
	Code                string                    `bson:"code" json:"code"`
	Title               string                    `bson:"title" json:"title"`
	Type                string                    `bson:"type" json:"type"`
	Category            string                    `bson:"category" json:"category"`
	EvaluationPatternID string                    `bson:"evaluationPatternId" json:"evaluation_pattern_id"`
	Ltpc                Ltpc                      `bson:"ltpc" json:"ltpc"`
	Prerequisites       []Prerequisite            `bson:"prerequisites" json:"prerequisites"`
	Vertical            string                    `bson:"vertical,omitempty" json:"vertical,omitempty"`
	Status              workflow.Status           `bson:"status" json:"status"`
	Reason              string                    `bson:"reason,omitempty" json:"reason,omitempty"`
	MappingStatus       workflow.Status           `bson:"mappingStatus" json:"mapping_status"`
	MappingReason       string                    `bson:"mappingReason,omitempty" json:"mapping_reason,omitempty"`
	Co                  map[string]string         `bson:"co" json:"co"`
	Mapping             map[string]map[string]int `bson:"mapping" json:"mapping"`
	BaseModel           `bson:",inline"`
}

// Ltpc is the credit pattern: lecture, tutorial, practical hours and credits.
type Ltpc struct {
	ID string  `bson:"id" json:"id"`
	L  int     `bson:"l" json:"l"`
	T  int     `bson:"t" json:"t"`
	P  int     `bson:"p" json:"p"`
	C  float64 `bson:"c" json:"c"`
}

// Prerequisite references another course of the same scheme.
type Prerequisite struct {
	CourseID   string `bson:"courseId" json:"course_id"`
	CourseCode string `bson:"courseCode" json:"course_code"`
}

// SemesterLabel is the grouping key used by listings and exports.
func (c *Course) SemesterLabel() string {
	if c.Semester == nil {
		return c.Category
	}
	return "Semester " + strconv.Itoa(*c.Semester)
}

// CourseFilter narrows course queries. Zero values are ignored; a non-nil
// Semester pointing at 0 matches courses without a semester.
type CourseFilter struct {
	RegulationID string
	ProgrammeID  string
	Code         string
	Semester     *int
	Status       workflow.Status
	Vertical     string
	Search       string
	IDs          []string
	Page         int
	PageSize     int
}

// CoursePatch is a partial update; nil fields are left alone.
type CoursePatch struct {
	Title               *string
	Code                *string
	Type                *string
	Category            *string
	Semester            **int
	EvaluationPatternID *string
	Ltpc                *Ltpc
	Prerequisites       []Prerequisite
	Vertical            *string
	Status              *workflow.Status
	Reason              *string
	MappingStatus       *workflow.Status
	MappingReason       *string
	Co                  map[string]string
	Mapping             map[string]map[string]int
	UpdatedBy           string
}
