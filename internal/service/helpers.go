package service

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/model"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/repository"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/workflow"
	apperrors "github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/errors"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/metrics"
)

// ── shared errors ──

var ErrReasonRequired = apperrors.Validation("A reason is required when requesting changes.")

// notFoundOr maps a repository miss onto the module's sentinel.
func notFoundOr(err error, notFound error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound
	}
	return err
}

// parseStatus accepts only storable lifecycle states.
func parseStatus(s string) (workflow.Status, error) {
	status := workflow.Status(s)
	if !status.Valid() {
		return "", apperrors.Validation("Unknown status %q.", s)
	}
	return status, nil
}

// transitioned counts a status change attempt by outcome.
func transitioned(t *workflow.Table, to workflow.Status, err error) {
	outcome := "admitted"
	switch {
	case err == nil:
	case apperrors.HasKind(err, apperrors.KindDenied):
		outcome = "denied"
	default:
		outcome = "failed"
	}
	metrics.TransitionsTotal.WithLabelValues(t.Name(), string(to), outcome).Inc()
}

func requireReason(to workflow.Status, reason string) error {
	if to == workflow.RequestedChanges && reason == "" {
		return ErrReasonRequired
	}
	return nil
}

// cloneCourses copies a course set with fresh ids. Prerequisites pointing
// inside the set follow the copies, the rest are dropped. Both lifecycles
// restart at DRAFT.
func cloneCourses(src []model.Course, actor model.Actor, now time.Time, retarget func(*model.Course)) []model.Course {
	ids := make(map[string]string, len(src))
	for _, c := range src {
		ids[c.ID] = uuid.NewString()
	}

	out := make([]model.Course, 0, len(src))
	for _, c := range src {
		clone := c
		clone.ID = ids[c.ID]
		clone.Status = workflow.Draft
		clone.Reason = ""
		clone.MappingStatus = workflow.Draft
		clone.MappingReason = ""
		clone.BaseModel = model.BaseModel{}
		clone.Stamp(actor, now)

		clone.Prerequisites = make([]model.Prerequisite, 0, len(c.Prerequisites))
		for _, p := range c.Prerequisites {
			if id, ok := ids[p.CourseID]; ok {
				clone.Prerequisites = append(clone.Prerequisites, model.Prerequisite{CourseID: id, CourseCode: p.CourseCode})
			}
		}
		if retarget != nil {
			retarget(&clone)
		}
		out = append(out, clone)
	}
	return out
}

// newProgrammeRegulation is the empty DRAFT record spawned for a programme
// added to a regulation.
func newProgrammeRegulation(regulationID string, p model.Programme, actor model.Actor, now time.Time) model.ProgrammeRegulation {
	rec := model.ProgrammeRegulation{
		ID:           uuid.NewString(),
		RegulationID: regulationID,
		Programme:    p.Info(),
		Department:   p.Department,
		PoStatus:     workflow.Draft,
		Po:           map[string]string{},
		Pso:          map[string]string{},
		Peo:          map[string]string{},
		PeoPoMapping: map[string]map[string]int{},
		Freeze:       []int{},
		Verticals:    []string{},
	}
	rec.Stamp(actor, now)
	return rec
}
