package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/model"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/pipeline"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/workflow"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/mongodb"
)

// ProgrammeRegulationRepository programme regulation data access.
type ProgrammeRegulationRepository interface {
	CreateMany(ctx context.Context, recs []model.ProgrammeRegulation) ([]string, error)
	Get(ctx context.Context, id string) (*model.ProgrammeRegulation, error)
	GetByRegulationProgramme(ctx context.Context, regulationID, programmeID string) (*model.ProgrammeRegulation, error)
	ListByRegulation(ctx context.Context, regulationID string) ([]model.ProgrammeRegulation, error)
	Page(ctx context.Context, regulationID string, f model.MappingFilter) (*model.MappingPage, error)
	Update(ctx context.Context, id string, patch model.ProgrammeRegulationPatch) (int64, error)
	// UpdateStatus moves poStatus only if it is still in from.
	UpdateStatus(ctx context.Context, id string, from, to workflow.Status, reason, actor string) (int64, error)
	// DeleteByRegulation removes the rows of the given programmes, or all
	// rows of the regulation when programmeIDs is nil.
	DeleteByRegulation(ctx context.Context, regulationID string, programmeIDs []string) (int64, error)
	PropagateProgramme(ctx context.Context, p model.ProgrammeInfo) (int64, error)
	PropagateDepartment(ctx context.Context, d model.DepartmentInfo) (int64, error)
}

type programmeRegulationRepo struct {
	mongoColl
}

func NewProgrammeRegulationRepo(client *mongodb.Client) ProgrammeRegulationRepository {
	return &programmeRegulationRepo{newMongoColl(client, mongodb.CollProgrammeRegulations)}
}

func (r *programmeRegulationRepo) CreateMany(ctx context.Context, recs []model.ProgrammeRegulation) ([]string, error) {
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

func (r *programmeRegulationRepo) Get(ctx context.Context, id string) (*model.ProgrammeRegulation, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	var rec model.ProgrammeRegulation
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rec); err != nil {
		return nil, wrapError(err)
	}
	return &rec, nil
}

func (r *programmeRegulationRepo) GetByRegulationProgramme(ctx context.Context, regulationID, programmeID string) (*model.ProgrammeRegulation, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	var rec model.ProgrammeRegulation
	err := r.coll.FindOne(ctx, bson.M{"regulationId": regulationID, "programme.id": programmeID}).Decode(&rec)
	if err != nil {
		return nil, wrapError(err)
	}
	return &rec, nil
}

func (r *programmeRegulationRepo) ListByRegulation(ctx context.Context, regulationID string) ([]model.ProgrammeRegulation, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	opts := options.Find().SetSort(bson.D{{Key: "programme.name", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"regulationId": regulationID}, opts)
	if err != nil {
		return nil, wrapError(err)
	}
	recs, err := findAll[model.ProgrammeRegulation](ctx, cursor)
	return recs, wrapError(err)
}

func (r *programmeRegulationRepo) Page(ctx context.Context, regulationID string, f model.MappingFilter) (*model.MappingPage, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	cursor, err := r.coll.Aggregate(ctx, pipeline.MappingPage(regulationID, f))
	if err != nil {
		return nil, wrapError(err)
	}
	pages, err := findAll[model.MappingPage](ctx, cursor)
	if err != nil {
		return nil, wrapError(err)
	}
	if len(pages) == 0 {
		return &model.MappingPage{Records: []model.ProgrammeRegulation{}}, nil
	}
	return &pages[0], nil
}

func (r *programmeRegulationRepo) Update(ctx context.Context, id string, patch model.ProgrammeRegulationPatch) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	set := bson.M{"updatedAt": time.Now(), "updatedBy": patch.UpdatedBy}
	if patch.PoStatus != nil {
		set["poStatus"] = string(*patch.PoStatus)
	}
	if patch.Reason != nil {
		set["reason"] = *patch.Reason
	}
	if patch.Po != nil {
		set["po"] = patch.Po
	}
	if patch.Pso != nil {
		set["pso"] = patch.Pso
	}
	if patch.Peo != nil {
		set["peo"] = patch.Peo
	}
	if patch.PeoPoMapping != nil {
		set["peoPoMapping"] = patch.PeoPoMapping
	}
	if patch.Verticals != nil {
		set["verticals"] = patch.Verticals
	}
	if patch.MinCredits != nil {
		set["minCredits"] = *patch.MinCredits
	}

	update := bson.M{"$set": set}
	filter := bson.M{"_id": id}
	if patch.AddFreeze != nil {
		update["$addToSet"] = bson.M{"freeze": *patch.AddFreeze}
		filter["freeze"] = bson.M{"$ne": *patch.AddFreeze}
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return 0, wrapError(err)
	}
	return res.ModifiedCount, nil
}

func (r *programmeRegulationRepo) UpdateStatus(ctx context.Context, id string, from, to workflow.Status, reason, actor string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	update := statusUpdate("poStatus", "reason", to, reason, actor)
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id, "poStatus": string(from)}, update)
	if err != nil {
		return 0, wrapError(err)
	}
	return res.ModifiedCount, nil
}

func (r *programmeRegulationRepo) DeleteByRegulation(ctx context.Context, regulationID string, programmeIDs []string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	res, err := r.coll.DeleteMany(ctx, byRegulationProgrammes(regulationID, programmeIDs))
	if err != nil {
		return 0, wrapError(err)
	}
	return res.DeletedCount, nil
}

func (r *programmeRegulationRepo) PropagateProgramme(ctx context.Context, p model.ProgrammeInfo) (int64, error) {
	return propagate(ctx, r.mongoColl, "programme", p.ID, p)
}

func (r *programmeRegulationRepo) PropagateDepartment(ctx context.Context, d model.DepartmentInfo) (int64, error) {
	return propagate(ctx, r.mongoColl, "department", d.ID, d)
}

// byRegulationProgrammes scopes dependents of a regulation, optionally to a
// subset of its programmes.
func byRegulationProgrammes(regulationID string, programmeIDs []string) bson.M {
	filter := bson.M{"regulationId": regulationID}
	if programmeIDs != nil {
		filter["programme.id"] = bson.M{"$in": programmeIDs}
	}
	return filter
}

// propagate rewrites an embedded descriptor in every dependent document.
func propagate(ctx context.Context, m mongoColl, field, id string, value interface{}) (int64, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	res, err := m.coll.UpdateMany(ctx,
		bson.M{field + ".id": id},
		bson.M{"$set": bson.M{field: value}},
	)
	if err != nil {
		return 0, wrapError(err)
	}
	return res.ModifiedCount, nil
}
