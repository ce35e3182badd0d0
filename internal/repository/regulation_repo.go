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

// RegulationRepository regulation data access.
type RegulationRepository interface {
	Create(ctx context.Context, reg *model.Regulation) error
	Get(ctx context.Context, id string) (*model.Regulation, error)
	List(ctx context.Context, f model.RegulationFilter) ([]model.Regulation, int64, error)
	// Replace overwrites the document and returns the modified count.
	Replace(ctx context.Context, reg *model.Regulation) (int64, error)
	// UpdateStatus moves the regulation only if it is still in from.
	UpdateStatus(ctx context.Context, id string, from, to workflow.Status, reason, actor string) (int64, error)
	Delete(ctx context.Context, id string) (int64, error)
	// MaxVersion is 0 when no peer exists.
	MaxVersion(ctx context.Context, year int, programmeIDs []string, excludeID string) (int, error)
}

type regulationRepo struct {
	mongoColl
}

func NewRegulationRepo(client *mongodb.Client) RegulationRepository {
	return &regulationRepo{newMongoColl(client, mongodb.CollRegulations)}
}

func (r *regulationRepo) Create(ctx context.Context, reg *model.Regulation) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	_, err := r.coll.InsertOne(ctx, reg)
	return wrapError(err)
}

func (r *regulationRepo) Get(ctx context.Context, id string) (*model.Regulation, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	var reg model.Regulation
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&reg); err != nil {
		return nil, wrapError(err)
	}
	return &reg, nil
}

func (r *regulationRepo) List(ctx context.Context, f model.RegulationFilter) ([]model.Regulation, int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}
	if f.Year > 0 {
		filter["year"] = f.Year
	}
	if f.Search != "" {
		filter["title"] = pipeline.SearchRegex(f.Search)
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, wrapError(err)
	}

	skip, limit := pipeline.Paginate(f.Page, f.PageSize)
	opts := options.Find().
		SetSort(bson.D{{Key: "year", Value: -1}, {Key: "version", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, wrapError(err)
	}
	regs, err := findAll[model.Regulation](ctx, cursor)
	return regs, total, wrapError(err)
}

func (r *regulationRepo) Replace(ctx context.Context, reg *model.Regulation) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": reg.ID}, reg)
	if err != nil {
		return 0, wrapError(err)
	}
	return res.ModifiedCount, nil
}

func (r *regulationRepo) UpdateStatus(ctx context.Context, id string, from, to workflow.Status, reason, actor string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	update := statusUpdate("status", "reason", to, reason, actor)
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id, "status": string(from)}, update)
	if err != nil {
		return 0, wrapError(err)
	}
	return res.ModifiedCount, nil
}

func (r *regulationRepo) Delete(ctx context.Context, id string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, wrapError(err)
	}
	return res.DeletedCount, nil
}

func (r *regulationRepo) MaxVersion(ctx context.Context, year int, programmeIDs []string, excludeID string) (int, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	cursor, err := r.coll.Aggregate(ctx, pipeline.MaxVersion(year, programmeIDs, excludeID))
	if err != nil {
		return 0, wrapError(err)
	}
	rows, err := findAll[struct {
		Version int `bson:"version"`
	}](ctx, cursor)
	if err != nil {
		return 0, wrapError(err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Version, nil
}

// statusUpdate sets a status field and its reason. The reason is kept only
// when the destination is REQUESTED_CHANGES or WAITING_FOR_APPROVAL.
func statusUpdate(statusField, reasonField string, to workflow.Status, reason, actor string) bson.M {
	set := bson.M{
		statusField: string(to),
		"updatedAt": time.Now(),
		"updatedBy": actor,
	}
	update := bson.M{"$set": set}
	switch {
	case to == workflow.RequestedChanges:
		set[reasonField] = reason
	case to == workflow.WaitingForApproval && reason != "":
		set[reasonField] = reason
	case to == workflow.WaitingForApproval:
		// carried through from the previous REQUESTED_CHANGES
	default:
		update["$unset"] = bson.M{reasonField: ""}
	}
	return update
}
