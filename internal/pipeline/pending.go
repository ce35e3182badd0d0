package pipeline

import (
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/model"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/mongodb"
)

// ComputeSemester is the semester a cohort admitted in batchYear is in when
// the institution is in activeBatchYear's academicSemester.
func ComputeSemester(activeBatchYear, batchYear, academicSemester int) int {
	return 2*(activeBatchYear-batchYear) + academicSemester
}

// InProgress is true for a semester a cohort of a programme lasting
// durationYears is still studying in.
func InProgress(semester, durationYears int) bool {
	return semester > 0 && semester < 2*durationYears
}

// PendingProgrammes runs on the batchYears collection and yields
// model.PendingProgramme documents: cohorts whose computed semester is in
// progress, that have no binding for it yet, and whose current scheme has
// that semester frozen. Groups are keyed by (programme, batch year,
// semester).
func PendingProgrammes(activeBatchYear, academicSemester int) mongo.Pipeline {
	semester := bson.M{"$add": bson.A{
		bson.M{"$multiply": bson.A{2, bson.M{"$subtract": bson.A{activeBatchYear, "$year"}}}},
		academicSemester,
	}}

	return mongo.Pipeline{
		{{Key: "$addFields", Value: bson.M{"semester": semester}}},
		{{Key: "$match", Value: bson.M{"$expr": bson.M{"$and": bson.A{
			bson.M{"$gt": bson.A{"$semester", 0}},
			bson.M{"$lt": bson.A{"$semester", bson.M{"$multiply": bson.A{2, "$programme.duration"}}}},
		}}}}},
		// drop cohorts already bound for the computed semester
		{{Key: "$lookup", Value: bson.M{
			"from": mongodb.CollRegulationBatchYears,
			"let":  bson.M{"batchId": "$_id", "sem": "$semester"},
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"$expr": bson.M{"$and": bson.A{
					bson.M{"$eq": bson.A{"$batchYearId", "$$batchId"}},
					bson.M{"$eq": bson.A{"$semester", "$$sem"}},
				}}}},
				bson.M{"$limit": 1},
			},
			"as": "current",
		}}},
		{{Key: "$match", Value: bson.M{"current": bson.M{"$size": 0}}}},
		// the latest binding names the scheme the cohort follows
		{{Key: "$lookup", Value: bson.M{
			"from": mongodb.CollRegulationBatchYears,
			"let":  bson.M{"batchId": "$_id"},
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"$expr": bson.M{"$eq": bson.A{"$batchYearId", "$$batchId"}}}},
				bson.M{"$sort": bson.D{{Key: "semester", Value: -1}}},
				bson.M{"$limit": 1},
			},
			"as": "previous",
		}}},
		{{Key: "$unwind", Value: "$previous"}},
		{{Key: "$lookup", Value: bson.M{
			"from":         mongodb.CollProgrammeRegulations,
			"localField":   "previous.prgmRegulationId",
			"foreignField": "_id",
			"as":           "prgmReg",
		}}},
		{{Key: "$unwind", Value: "$prgmReg"}},
		{{Key: "$match", Value: bson.M{"$expr": bson.M{
			"$in": bson.A{"$semester", bson.M{"$ifNull": bson.A{"$prgmReg.freeze", bson.A{}}}},
		}}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{
				"programmeId": "$programme.id",
				"batchYear":   "$year",
				"semester":    "$semester",
			},
			"programme":        bson.M{"$first": "$programme"},
			"department":       bson.M{"$first": "$department"},
			"batchYearIds":     bson.M{"$push": "$_id"},
			"sectionNames":     bson.M{"$push": "$sectionName"},
			"prgmRegulationId": bson.M{"$first": "$prgmReg._id"},
			"regulationId":     bson.M{"$first": "$prgmReg.regulationId"},
		}}},
		{{Key: "$project", Value: bson.M{
			"_id":              0,
			"programmeId":      "$_id.programmeId",
			"batchYear":        "$_id.batchYear",
			"semester":         "$_id.semester",
			"programme":        1,
			"department":       1,
			"batchYearIds":     1,
			"sectionNames":     1,
			"prgmRegulationId": 1,
			"regulationId":     1,
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "programme.name", Value: 1},
			{Key: "batchYear", Value: 1},
		}}},
	}
}

// PendingCandidate is one cohort with its computed semester and the scheme
// its latest binding points at.
type PendingCandidate struct {
	Batch    model.BatchYear
	Semester int
	Scheme   *model.ProgrammeRegulation
}

// GroupPending applies the grouping stage of PendingProgrammes to
// candidates that already passed the semester, binding and freeze filters.
func GroupPending(candidates []PendingCandidate) []model.PendingProgramme {
	type key struct {
		programmeID string
		batchYear   int
		semester    int
	}
	groups := make(map[key]*model.PendingProgramme)
	var order []key

	for _, c := range candidates {
		k := key{c.Batch.Programme.ID, c.Batch.Year, c.Semester}
		g, ok := groups[k]
		if !ok {
			g = &model.PendingProgramme{
				ProgrammeID:      c.Batch.Programme.ID,
				Programme:        c.Batch.Programme,
				Department:       c.Batch.Department,
				BatchYear:        c.Batch.Year,
				Semester:         c.Semester,
				PrgmRegulationID: c.Scheme.ID,
				RegulationID:     c.Scheme.RegulationID,
			}
			groups[k] = g
			order = append(order, k)
		}
		g.BatchYearIDs = append(g.BatchYearIDs, c.Batch.ID)
		g.SectionNames = append(g.SectionNames, c.Batch.SectionName)
	}

	out := make([]model.PendingProgramme, 0, len(order))
	for _, k := range order {
		out = append(out, *groups[k])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Programme.Name != out[j].Programme.Name {
			return out[i].Programme.Name < out[j].Programme.Name
		}
		return out[i].BatchYear < out[j].BatchYear
	})
	return out
}
