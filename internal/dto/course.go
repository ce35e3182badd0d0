package dto

// ── course DTO ──

// LtpcRequest credit pattern
type LtpcRequest struct {
	ID string  `json:"id"`
	L  int     `json:"l" binding:"min=0,max=20"`
	T  int     `json:"t" binding:"min=0,max=20"`
	P  int     `json:"p" binding:"min=0,max=40"`
	C  float64 `json:"c" binding:"min=0,max=40"`
}

// CourseFields are the editable fields of a course.
type CourseFields struct {
	Semester            *int        `json:"semester"              binding:"omitempty,min=1,max=20"` // null groups by category
	Code                string      `json:"code"                  binding:"required,min=2,max=20"`
	Title               string      `json:"title"                 binding:"required,min=2,max=200"`
	Type                string      `json:"type"                  binding:"required,max=50"`
	Category            string      `json:"category"              binding:"required,max=50"`
	EvaluationPatternID string      `json:"evaluation_pattern_id" binding:"omitempty,max=64"`
	Ltpc                LtpcRequest `json:"ltpc"`
	Prerequisites       []string    `json:"prerequisites"         binding:"omitempty,dive,required"` // course ids
	Vertical            string      `json:"vertical"              binding:"omitempty,max=100"`
}

// CreateCourseRequest adds a course to a programme scheme.
type CreateCourseRequest struct {
	RegulationID string `json:"regulation_id" binding:"required"`
	ProgrammeID  string `json:"programme_id"  binding:"required"`
	CourseFields
}

// UpdateCourseRequest replaces the editable fields of a course.
type UpdateCourseRequest struct {
	CourseFields
}

// CourseStatusRequest moves several courses of one scheme together.
type CourseStatusRequest struct {
	RegulationID string   `json:"regulation_id" binding:"required"`
	ProgrammeID  string   `json:"programme_id"  binding:"required"`
	CourseIDs    []string `json:"course_ids"    binding:"required,min=1,dive,required"`
	Status       string   `json:"status"        binding:"required"`
	Reason       string   `json:"reason"        binding:"max=1000"`
}

// UpdateCourseOutcomesRequest course outcomes and their CO → PO mapping
type UpdateCourseOutcomesRequest struct {
	Co      map[string]string         `json:"co"      binding:"required,min=1,dive,keys,required,endkeys,required"`
	Mapping map[string]map[string]int `json:"mapping"`
}

// CourseListQuery list filters
type CourseListQuery struct {
	RegulationID string `form:"regulation_id"`
	ProgrammeID  string `form:"programme_id"`
	Semester     *int   `form:"semester"` // 0 lists category courses
	Status       string `form:"status"`
	Vertical     string `form:"vertical"`
	Search       string `form:"search"`
	Page         int    `form:"page"`
	PageSize     int    `form:"page_size"`
}

// BulkStatusResponse result of a bulk course status change
type BulkStatusResponse struct {
	Modified int64 `json:"modified"`
}
