package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/model"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/mongodb"
)

// ProgrammeRepository programme reference data.
type ProgrammeRepository interface {
	Get(ctx context.Context, id string) (*model.Programme, error)
	FindByIDs(ctx context.Context, ids []string) ([]model.Programme, error)
	List(ctx context.Context) ([]model.Programme, error)
	// Sync upserts every programme and removes the ones not listed.
	Sync(ctx context.Context, programmes []model.Programme) (SyncCounts, error)
	PropagateDepartment(ctx context.Context, d model.DepartmentInfo) (int64, error)
}

// DepartmentRepository department reference data.
type DepartmentRepository interface {
	Get(ctx context.Context, id string) (*model.Department, error)
	List(ctx context.Context) ([]model.Department, error)
	Sync(ctx context.Context, departments []model.Department) (SyncCounts, error)
}

// BatchYearRepository cohort reference data.
type BatchYearRepository interface {
	FindByIDs(ctx context.Context, ids []string) ([]model.BatchYear, error)
	List(ctx context.Context, programmeID string) ([]model.BatchYear, error)
	Sync(ctx context.Context, batches []model.BatchYear) (SyncCounts, error)
	PropagateProgramme(ctx context.Context, p model.ProgrammeInfo) (int64, error)
	PropagateDepartment(ctx context.Context, d model.DepartmentInfo) (int64, error)
}

// ── programmes ──

type programmeRepo struct {
	mongoColl
}

func NewProgrammeRepo(client *mongodb.Client) ProgrammeRepository {
	return &programmeRepo{newMongoColl(client, mongodb.CollProgrammes)}
}

func (r *programmeRepo) Get(ctx context.Context, id string) (*model.Programme, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	var p model.Programme
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, wrapError(err)
	}
	return &p, nil
}

func (r *programmeRepo) FindByIDs(ctx context.Context, ids []string) ([]model.Programme, error) {
	return findByIDs[model.Programme](ctx, r.mongoColl, ids)
}

func (r *programmeRepo) List(ctx context.Context) ([]model.Programme, error) {
	return listSorted[model.Programme](ctx, r.mongoColl, bson.M{}, "name")
}

func (r *programmeRepo) Sync(ctx context.Context, programmes []model.Programme) (SyncCounts, error) {
	ids := make([]string, len(programmes))
	models := make([]mongo.WriteModel, len(programmes))
	for i := range programmes {
		ids[i] = programmes[i].ID
		models[i] = mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": programmes[i].ID}).
			SetReplacement(programmes[i]).
			SetUpsert(true)
	}
	return syncCollection(ctx, r.mongoColl, ids, models)
}

func (r *programmeRepo) PropagateDepartment(ctx context.Context, d model.DepartmentInfo) (int64, error) {
	return propagate(ctx, r.mongoColl, "department", d.ID, d)
}

// ── departments ──

type departmentRepo struct {
	mongoColl
}

func NewDepartmentRepo(client *mongodb.Client) DepartmentRepository {
	return &departmentRepo{newMongoColl(client, mongodb.CollDepartments)}
}

func (r *departmentRepo) Get(ctx context.Context, id string) (*model.Department, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	var d model.Department
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return nil, wrapError(err)
	}
	return &d, nil
}

func (r *departmentRepo) List(ctx context.Context) ([]model.Department, error) {
	return listSorted[model.Department](ctx, r.mongoColl, bson.M{}, "name")
}

func (r *departmentRepo) Sync(ctx context.Context, departments []model.Department) (SyncCounts, error) {
	ids := make([]string, len(departments))
	models := make([]mongo.WriteModel, len(departments))
	for i := range departments {
		ids[i] = departments[i].ID
		models[i] = mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": departments[i].ID}).
			SetReplacement(departments[i]).
			SetUpsert(true)
	}
	return syncCollection(ctx, r.mongoColl, ids, models)
}

// ── batch years ──

type batchYearRepo struct {
	mongoColl
}

func NewBatchYearRepo(client *mongodb.Client) BatchYearRepository {
	return &batchYearRepo{newMongoColl(client, mongodb.CollBatchYears)}
}

func (r *batchYearRepo) FindByIDs(ctx context.Context, ids []string) ([]model.BatchYear, error) {
	return findByIDs[model.BatchYear](ctx, r.mongoColl, ids)
}

func (r *batchYearRepo) List(ctx context.Context, programmeID string) ([]model.BatchYear, error) {
	filter := bson.M{}
	if programmeID != "" {
		filter["programme.id"] = programmeID
	}
	return listSorted[model.BatchYear](ctx, r.mongoColl, filter, "year")
}

func (r *batchYearRepo) Sync(ctx context.Context, batches []model.BatchYear) (SyncCounts, error) {
	ids := make([]string, len(batches))
	models := make([]mongo.WriteModel, len(batches))
	for i := range batches {
		ids[i] = batches[i].ID
		models[i] = mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": batches[i].ID}).
			SetReplacement(batches[i]).
			SetUpsert(true)
	}
	return syncCollection(ctx, r.mongoColl, ids, models)
}

func (r *batchYearRepo) PropagateProgramme(ctx context.Context, p model.ProgrammeInfo) (int64, error) {
	return propagate(ctx, r.mongoColl, "programme", p.ID, p)
}

func (r *batchYearRepo) PropagateDepartment(ctx context.Context, d model.DepartmentInfo) (int64, error) {
	return propagate(ctx, r.mongoColl, "department", d.ID, d)
}

// ── shared ──

func findByIDs[T any](ctx context.Context, m mongoColl, ids []string) ([]T, error) {
	if len(ids) == 0 {
		return []T{}, nil
	}
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	cursor, err := m.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, wrapError(err)
	}
	out, err := findAll[T](ctx, cursor)
	return out, wrapError(err)
}

func listSorted[T any](ctx context.Context, m mongoColl, filter bson.M, sortField string) ([]T, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	cursor, err := m.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: sortField, Value: 1}}))
	if err != nil {
		return nil, wrapError(err)
	}
	out, err := findAll[T](ctx, cursor)
	return out, wrapError(err)
}

// syncCollection bulk-upserts the listed documents and removes the rest.
func syncCollection(ctx context.Context, m mongoColl, ids []string, models []mongo.WriteModel) (SyncCounts, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	var counts SyncCounts
	if len(models) > 0 {
		res, err := m.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
		if err != nil {
			return counts, wrapError(err)
		}
		counts.Inserted = res.UpsertedCount
		counts.Modified = res.ModifiedCount
		counts.Matched = res.MatchedCount
	}

	res, err := m.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$nin": ids}})
	if err != nil {
		return counts, wrapError(err)
	}
	counts.Removed = res.DeletedCount
	return counts, nil
}
