package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/model"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/pipeline"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/mongodb"
)

// JobRepository background job records.
type JobRepository interface {
	Create(ctx context.Context, job *model.Job) error
	Get(ctx context.Context, id string) (*model.Job, error)
	List(ctx context.Context, f model.JobFilter) ([]model.Job, int64, error)
	Save(ctx context.Context, job *model.Job) error
}

type jobRepo struct {
	mongoColl
}

func NewJobRepo(client *mongodb.Client) JobRepository {
	return &jobRepo{newMongoColl(client, mongodb.CollJobs)}
}

func (r *jobRepo) Create(ctx context.Context, job *model.Job) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	_, err := r.coll.InsertOne(ctx, job)
	return wrapError(err)
}

func (r *jobRepo) Get(ctx context.Context, id string) (*model.Job, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	var job model.Job
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&job); err != nil {
		return nil, wrapError(err)
	}
	return &job, nil
}

func (r *jobRepo) List(ctx context.Context, f model.JobFilter) ([]model.Job, int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	filter := bson.M{}
	if f.Name != "" {
		filter["name"] = string(f.Name)
	}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, wrapError(err)
	}

	skip, limit := pipeline.Paginate(f.Page, f.PageSize)
	opts := options.Find().
		SetSort(bson.D{{Key: "dates.created", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, wrapError(err)
	}
	jobs, err := findAll[model.Job](ctx, cursor)
	return jobs, total, wrapError(err)
}

func (r *jobRepo) Save(ctx context.Context, job *model.Job) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": job.ID}, job)
	return wrapError(err)
}
