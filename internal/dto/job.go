package dto

import "github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/model"

// ── job / audit / calendar DTO ──

// JobListQuery list filters
type JobListQuery struct {
	Name     string `form:"name"`
	Status   string `form:"status"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// JobResponse a job record merged with its live progress.
type JobResponse struct {
	model.Job
	Live bool `json:"live"` // progress read from the cache
}

// AuditListQuery list filters
type AuditListQuery struct {
	Entity   string `form:"entity"`
	EntityID string `form:"entity_id"`
	ActorID  string `form:"actor_id"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// UpdateAcademicCalendarRequest term settings for the rollover
type UpdateAcademicCalendarRequest struct {
	ActiveBatchYear  int `json:"active_batch_year" binding:"required,min=2000,max=2100"`
	AcademicSemester int `json:"academic_semester" binding:"required,oneof=1 2"`
}
