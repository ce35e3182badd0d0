package dto

// ── reference data sync DTO ──

// DepartmentRecord one department from the master system
type DepartmentRecord struct {
	ID        string `json:"id"         binding:"required"`
	Name      string `json:"name"       binding:"required,max=200"`
	Category  string `json:"category"   binding:"max=50"`
	ShortName string `json:"short_name" binding:"max=20"`
}

// ProgrammeRecord one programme from the master system
type ProgrammeRecord struct {
	ID           string `json:"id"            binding:"required"`
	Category     string `json:"category"      binding:"required,max=50"`
	Name         string `json:"name"          binding:"required,max=200"`
	Type         string `json:"type"          binding:"max=50"`
	Mode         string `json:"mode"          binding:"max=50"`
	Duration     int    `json:"duration"      binding:"required,min=1,max=10"`
	Stream       string `json:"stream"        binding:"max=100"`
	ShortName    string `json:"short_name"    binding:"max=20"`
	DepartmentID string `json:"department_id" binding:"required"`
}

// BatchYearRecord one cohort section from the master system
type BatchYearRecord struct {
	ID          string `json:"id"           binding:"required"`
	Year        int    `json:"year"         binding:"required,min=2000,max=2100"`
	ProgrammeID string `json:"programme_id" binding:"required"`
	SectionName string `json:"section_name" binding:"required,max=20"`
}

// SyncDepartmentsRequest full department list
type SyncDepartmentsRequest struct {
	Departments []DepartmentRecord `json:"departments" binding:"required,min=1,dive"`
}

// SyncProgrammesRequest full programme list
type SyncProgrammesRequest struct {
	Programmes []ProgrammeRecord `json:"programmes" binding:"required,min=1,dive"`
}

// SyncBatchYearsRequest full cohort list
type SyncBatchYearsRequest struct {
	BatchYears []BatchYearRecord `json:"batch_years" binding:"required,min=1,dive"`
}
