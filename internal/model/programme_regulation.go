package model

import "github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/workflow"

// ProgrammeRegulation binds one programme to one regulation and carries the
// programme's outcomes and course-scheme settings under that regulation.
type ProgrammeRegulation struct {
	ID               string                    `bson:"_id" json:"id"`
	RegulationID     string                    `bson:"regulationId" json:"regulation_id"`
	Programme        ProgrammeInfo             `bson:"programme" json:"programme"`
	Department       DepartmentInfo            `bson:"department" json:"department"`
	PoStatus         workflow.Status           `bson:"poStatus" json:"po_status"`
	Reason           string                    `bson:"reason,omitempty" json:"reason,omitempty"`
	Po               map[string]string         `bson:"po" json:"po"`
	Pso              map[string]string         `bson:"pso" json:"pso"`
	Peo              map[string]string         `bson:"peo" json:"peo"`
	PeoPoMapping     map[string]map[string]int `bson:"peoPoMapping" json:"peo_po_mapping"`
	Freeze           []int                     `bson:"freeze" json:"freeze"`
	Verticals        []string                  `bson:"verticals" json:"verticals"`
	MinCredits       MinCredits                `bson:"minCredits" json:"min_credits"`
	CourseCodeSubStr string                    `bson:"courseCodeSubStr" json:"course_code_sub_str"`
	BaseModel        `bson:",inline"`
}

// MinCredits are the credit thresholds for regular and lateral entry.
type MinCredits struct {
	Regular int `bson:"regular" json:"regular"`
	Lateral int `bson:"lateral" json:"lateral"`
}

// IsFrozen reports whether a semester is already locked.
func (p *ProgrammeRegulation) IsFrozen(semester int) bool {
	for _, s := range p.Freeze {
		if s == semester {
			return true
		}
	}
	return false
}

// OutcomesComplete is the precondition for approving the mapping.
func (p *ProgrammeRegulation) OutcomesComplete() bool {
	return len(p.Po) > 0 && len(p.Pso) > 0 && len(p.Peo) > 0
}

// ProgrammeRegulationPatch is a partial update; nil fields are left alone.
type ProgrammeRegulationPatch struct {
	PoStatus     *workflow.Status
	Reason       *string
	Po           map[string]string
	Pso          map[string]string
	Peo          map[string]string
	PeoPoMapping map[string]map[string]int
	Verticals    []string
	MinCredits   *MinCredits
	AddFreeze    *int
	UpdatedBy    string
}

// MappingFilter narrows the programme listing of a regulation.
type MappingFilter struct {
	PoStatus workflow.Status
	Search   string
	Page     int
	PageSize int
}

// MappingPage is one page of programme regulations with the total count.
type MappingPage struct {
	Records []ProgrammeRegulation `bson:"records" json:"records"`
	Total   int64                 `bson:"total" json:"total"`
}
