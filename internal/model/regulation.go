package model

import "github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/workflow"

// Regulation is a versioned curriculum policy for one year.
type Regulation struct {
	ID            string          `bson:"_id" json:"id"`
	Title         string          `bson:"title" json:"title"`
	Year          int             `bson:"year" json:"year"`
	Version       int             `bson:"version" json:"version"`
	Status        workflow.Status `bson:"status" json:"status"`
	Reason        string          `bson:"reason,omitempty" json:"reason,omitempty"`
	ProgrammeIDs  []string        `bson:"programmeIds" json:"programme_ids"`
	CreditIDs     []string        `bson:"creditIds" json:"credit_ids"`
	GradeIDs      []string        `bson:"gradeIds" json:"grade_ids"`
	EvaluationIDs []string        `bson:"evaluationIds" json:"evaluation_ids"`
	Attachments   []Attachment    `bson:"attachments" json:"attachments"`
	ClonedFrom    string          `bson:"clonedFrom,omitempty" json:"cloned_from,omitempty"`
	BaseModel     `bson:",inline"`
}

// Attachment is metadata of an uploaded regulation document.
type Attachment struct {
	Name        string `bson:"name" json:"name"`
	URL         string `bson:"url" json:"url"`
	ContentType string `bson:"contentType" json:"content_type"`
	Size        int64  `bson:"size" json:"size"`
}

// Info is the regulation descriptor copied into batch-year bindings.
func (r *Regulation) Info() RegulationInfo {
	return RegulationInfo{ID: r.ID, Title: r.Title, Year: r.Year, Version: r.Version}
}

// RegulationInfo denormalized regulation descriptor.
type RegulationInfo struct {
	ID      string `bson:"id" json:"id"`
	Title   string `bson:"title" json:"title"`
	Year    int    `bson:"year" json:"year"`
	Version int    `bson:"version" json:"version"`
}

// RegulationFilter narrows List.
type RegulationFilter struct {
	Status   workflow.Status
	Year     int
	Search   string
	Page     int
	PageSize int
}
