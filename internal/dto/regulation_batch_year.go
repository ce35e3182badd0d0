package dto

// ── batch year DTO ──

// BindBatchRequest binds cohorts to a programme scheme for one semester.
// Assign creates the bindings, reassign repoints existing ones.
type BindBatchRequest struct {
	PrgmRegulationID string   `json:"prgm_regulation_id" binding:"required"`
	BatchYearIDs     []string `json:"batch_year_ids"     binding:"required,min=1,dive,required"`
	Semester         int      `json:"semester"           binding:"required,min=1,max=20"`
}

// BatchListQuery list filters
type BatchListQuery struct {
	RegulationID string `form:"regulation_id"`
	ProgrammeID  string `form:"programme_id"`
	BatchYearID  string `form:"batch_year_id"`
	Semester     int    `form:"semester"`
	Page         int    `form:"page"`
	PageSize     int    `form:"page_size"`
}

// ReassignResponse result of a reassignment
type ReassignResponse struct {
	Modified int64 `json:"modified"`
}
