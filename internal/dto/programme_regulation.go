package dto

// ── programme regulation DTO ──

// UpdateOutcomesRequest replaces po, pso and peo.
type UpdateOutcomesRequest struct {
	Po  map[string]string `json:"po"  binding:"required,dive,keys,required,endkeys,required"`
	Pso map[string]string `json:"pso" binding:"required,dive,keys,required,endkeys,required"`
	Peo map[string]string `json:"peo" binding:"required,dive,keys,required,endkeys,required"`
}

// UpdatePeoPoMappingRequest peo code → po code → correlation level (1-3)
type UpdatePeoPoMappingRequest struct {
	Mapping map[string]map[string]int `json:"mapping" binding:"required"`
}

// UpdateVerticalsRequest replaces the vertical names.
type UpdateVerticalsRequest struct {
	Verticals []string `json:"verticals" binding:"omitempty,dive,max=100"`
}

// UpdateMinCreditsRequest credit thresholds
type UpdateMinCreditsRequest struct {
	Regular int `json:"regular" binding:"min=0,max=500"`
	Lateral int `json:"lateral" binding:"min=0,max=500"`
}

// FreezeSemesterRequest locks a confirmed semester.
type FreezeSemesterRequest struct {
	Semester int `json:"semester" binding:"required,min=1,max=20"`
}

// CloneSchemeRequest copies the course scheme of another programme
// regulation.
type CloneSchemeRequest struct {
	SourceID string `json:"source_id" binding:"required"`
}

// CloneSchemeResponse result of a scheme clone
type CloneSchemeResponse struct {
	Courses   int      `json:"courses"`
	Verticals []string `json:"verticals"`
}

// MappingListQuery programme listing of a regulation
type MappingListQuery struct {
	PoStatus string `form:"po_status"`
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}
