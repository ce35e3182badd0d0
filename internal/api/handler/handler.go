package handler

import "github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/service"

// Handler groups the HTTP handlers.
type Handler struct {
	Regulation          *RegulationHandler
	ProgrammeRegulation *ProgrammeRegulationHandler
	Course              *CourseHandler
	BatchYear           *BatchYearHandler
	Sync                *SyncHandler
	Job                 *JobHandler
	Calendar            *AcademicCalendarHandler
	Export              *ExportHandler
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Regulation:          NewRegulationHandler(svc.Regulation),
		ProgrammeRegulation: NewProgrammeRegulationHandler(svc.ProgrammeRegulation),
		Course:              NewCourseHandler(svc.Course),
		BatchYear:           NewBatchYearHandler(svc.BatchYear),
		Sync:                NewSyncHandler(svc.Sync),
		Job:                 NewJobHandler(svc.Job, svc.Audit),
		Calendar:            NewAcademicCalendarHandler(svc.Calendar),
		Export:              NewExportHandler(svc.Export),
	}
}
