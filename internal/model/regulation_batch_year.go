package model

// RegulationBatchYear binds a cohort section to a regulation for one
// semester.
type RegulationBatchYear struct {
	ID               string         `bson:"_id" json:"id"`
	BatchYearID      string         `bson:"batchYearId" json:"batch_year_id"`
	Regulation       RegulationInfo `bson:"regulation" json:"regulation"`
	Programme        ProgrammeInfo  `bson:"programme" json:"programme"`
	Department       DepartmentInfo `bson:"department" json:"department"`
	PrgmRegulationID string         `bson:"prgmRegulationId" json:"prgm_regulation_id"`
	Semester         int            `bson:"semester" json:"semester"`
	BatchYear        int            `bson:"batchYear" json:"batch_year"`
	SectionName      string         `bson:"sectionName" json:"section_name"`
	BaseModel        `bson:",inline"`
}

// PendingProgramme is a (programme, batch year, semester) group whose
// cohorts have no binding for the semester yet while the target scheme is
// frozen for it.
type PendingProgramme struct {
	ProgrammeID      string         `bson:"programmeId" json:"programme_id"`
	Programme        ProgrammeInfo  `bson:"programme" json:"programme"`
	Department       DepartmentInfo `bson:"department" json:"department"`
	BatchYear        int            `bson:"batchYear" json:"batch_year"`
	Semester         int            `bson:"semester" json:"semester"`
	BatchYearIDs     []string       `bson:"batchYearIds" json:"batch_year_ids"`
	SectionNames     []string       `bson:"sectionNames" json:"section_names"`
	PrgmRegulationID string         `bson:"prgmRegulationId" json:"prgm_regulation_id"`
	RegulationID     string         `bson:"regulationId" json:"regulation_id"`
}

// RegulationBatchYearFilter narrows List.
type RegulationBatchYearFilter struct {
	RegulationID string
	ProgrammeID  string
	BatchYearID  string
	Semester     int
	Page         int
	PageSize     int
}
