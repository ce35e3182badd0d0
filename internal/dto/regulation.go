package dto

import (
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/model"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/workflow"
)

// ── regulation DTO ──

// AttachmentRequest metadata of an uploaded regulation document
type AttachmentRequest struct {
	Name        string `json:"name"         binding:"required,max=255"`
	URL         string `json:"url"          binding:"required,url"`
	ContentType string `json:"content_type" binding:"omitempty,max=100"`
	Size        int64  `json:"size"         binding:"min=0"`
}

// RegulationRequest is the full editable body of a regulation. Create and
// update share it.
type RegulationRequest struct {
	Title         string              `json:"title"          binding:"required,min=2,max=200"`
	Year          int                 `json:"year"           binding:"required,min=2000,max=2100"`
	ProgrammeIDs  []string            `json:"programme_ids"  binding:"required,min=1,dive,required"`
	CreditIDs     []string            `json:"credit_ids"     binding:"required,min=1,dive,required"`
	GradeIDs      []string            `json:"grade_ids"      binding:"required,min=1,dive,required"`
	EvaluationIDs []string            `json:"evaluation_ids" binding:"required,min=1,dive,required"`
	Attachments   []AttachmentRequest `json:"attachments"    binding:"omitempty,dive"`
}

// CreateRegulationRequest creates a DRAFT regulation.
type CreateRegulationRequest = RegulationRequest

// UpdateRegulationRequest replaces the editable fields of a regulation.
type UpdateRegulationRequest = RegulationRequest

// CloneRegulationRequest copies a regulation into a new DRAFT one.
type CloneRegulationRequest struct {
	Title        string   `json:"title"         binding:"required,min=2,max=200"`
	Year         int      `json:"year"          binding:"required,min=2000,max=2100"`
	ProgrammeIDs []string `json:"programme_ids" binding:"omitempty,dive,required"` // empty keeps the source set
}

// ChangeStatusRequest moves an entity along its status table.
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason" binding:"max=1000"`
}

// RegulationListQuery list filters
type RegulationListQuery struct {
	Status   string `form:"status"`
	Year     int    `form:"year"`
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// ProgrammeSummary one programme of a regulation with its derived course
// status.
type ProgrammeSummary struct {
	PrgmRegulationID string              `json:"prgm_regulation_id"`
	Programme        model.ProgrammeInfo `json:"programme"`
	PoStatus         workflow.Status     `json:"po_status"`
	CourseStatus     workflow.Status     `json:"course_status"`
	CourseStatusText string              `json:"course_status_text"`
	Freeze           []int               `json:"freeze"`
}

// RegulationDetail regulation with its programme summaries
type RegulationDetail struct {
	model.Regulation
	StatusText string             `json:"status_text"`
	Programmes []ProgrammeSummary `json:"programmes"`
}
