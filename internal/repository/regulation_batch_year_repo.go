package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/model"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/pipeline"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/mongodb"
)

// RegulationBatchYearRepository cohort binding data access.
type RegulationBatchYearRepository interface {
	CreateMany(ctx context.Context, recs []model.RegulationBatchYear) ([]string, error)
	List(ctx context.Context, f model.RegulationBatchYearFilter) ([]model.RegulationBatchYear, int64, error)
	// Bound returns the batch ids among batchYearIDs that already have a
	// binding for semester.
	Bound(ctx context.Context, batchYearIDs []string, semester int) ([]string, error)
	// Rebind points the bindings of the batches for semester at another
	// scheme.
	Rebind(ctx context.Context, batchYearIDs []string, semester int, reg model.RegulationInfo, prgmRegulationID, actor string) (int64, error)
	DeleteByRegulation(ctx context.Context, regulationID string, programmeIDs []string) (int64, error)
	// PendingProgrammes lists cohorts due for a binding in the given term.
	PendingProgrammes(ctx context.Context, activeBatchYear, academicSemester int) ([]model.PendingProgramme, error)
	PropagateProgramme(ctx context.Context, p model.ProgrammeInfo) (int64, error)
	PropagateDepartment(ctx context.Context, d model.DepartmentInfo) (int64, error)
}

type regulationBatchYearRepo struct {
	mongoColl
	batchYears mongoColl
}

func NewRegulationBatchYearRepo(client *mongodb.Client) RegulationBatchYearRepository {
	return &regulationBatchYearRepo{
		mongoColl:  newMongoColl(client, mongodb.CollRegulationBatchYears),
		batchYears: newMongoColl(client, mongodb.CollBatchYears),
	}
}

func (r *regulationBatchYearRepo) CreateMany(ctx context.Context, recs []model.RegulationBatchYear) ([]string, error) {
	if len(recs) == 0 {
		return nil, nil
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	res, err := r.coll.InsertMany(ctx, toDocs(recs))
	if err != nil {
		return nil, wrapError(err)
	}
	return insertedIDs(res), nil
}

func (r *regulationBatchYearRepo) List(ctx context.Context, f model.RegulationBatchYearFilter) ([]model.RegulationBatchYear, int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	filter := bson.M{}
	if f.RegulationID != "" {
		filter["regulation.id"] = f.RegulationID
	}
	if f.ProgrammeID != "" {
		filter["programme.id"] = f.ProgrammeID
	}
	if f.BatchYearID != "" {
		filter["batchYearId"] = f.BatchYearID
	}
	if f.Semester > 0 {
		filter["semester"] = f.Semester
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, wrapError(err)
	}
	skip, limit := pipeline.Paginate(f.Page, f.PageSize)
	opts := options.Find().
		SetSort(bson.D{{Key: "batchYear", Value: -1}, {Key: "programme.name", Value: 1}, {Key: "semester", Value: 1}}).
		SetSkip(skip).
		SetLimit(limit)
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, wrapError(err)
	}
	recs, err := findAll[model.RegulationBatchYear](ctx, cursor)
	return recs, total, wrapError(err)
}

func (r *regulationBatchYearRepo) Bound(ctx context.Context, batchYearIDs []string, semester int) ([]string, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	values, err := r.coll.Distinct(ctx, "batchYearId", bson.M{
		"batchYearId": bson.M{"$in": batchYearIDs},
		"semester":    semester,
	})
	if err != nil {
		return nil, wrapError(err)
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *regulationBatchYearRepo) Rebind(ctx context.Context, batchYearIDs []string, semester int, reg model.RegulationInfo, prgmRegulationID, actor string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"batchYearId": bson.M{"$in": batchYearIDs}, "semester": semester},
		bson.M{"$set": bson.M{
			"regulation":       reg,
			"prgmRegulationId": prgmRegulationID,
			"updatedAt":        time.Now(),
			"updatedBy":        actor,
		}},
	)
	if err != nil {
		return 0, wrapError(err)
	}
	return res.ModifiedCount, nil
}

func (r *regulationBatchYearRepo) DeleteByRegulation(ctx context.Context, regulationID string, programmeIDs []string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	filter := bson.M{"regulation.id": regulationID}
	if programmeIDs != nil {
		filter["programme.id"] = bson.M{"$in": programmeIDs}
	}
	res, err := r.coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, wrapError(err)
	}
	return res.DeletedCount, nil
}

func (r *regulationBatchYearRepo) PendingProgrammes(ctx context.Context, activeBatchYear, academicSemester int) ([]model.PendingProgramme, error) {
	ctx, cancel := r.batchYears.withTimeout(ctx)
	defer cancel()
	cursor, err := r.batchYears.coll.Aggregate(ctx, pipeline.PendingProgrammes(activeBatchYear, academicSemester))
	if err != nil {
		return nil, wrapError(err)
	}
	pending, err := findAll[model.PendingProgramme](ctx, cursor)
	return pending, wrapError(err)
}

func (r *regulationBatchYearRepo) PropagateProgramme(ctx context.Context, p model.ProgrammeInfo) (int64, error) {
	return propagate(ctx, r.mongoColl, "programme", p.ID, p)
}

func (r *regulationBatchYearRepo) PropagateDepartment(ctx context.Context, d model.DepartmentInfo) (int64, error) {
	return propagate(ctx, r.mongoColl, "department", d.ID, d)
}
