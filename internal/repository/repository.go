package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/mongodb"
)

// ErrNotFound is returned by single-document reads that match nothing.
var ErrNotFound = errors.New("record not found")

// Repository aggregates every data access interface.
type Repository struct {
	Regulation          RegulationRepository
	ProgrammeRegulation ProgrammeRegulationRepository
	Course              CourseRepository
	RegulationBatchYear RegulationBatchYearRepository
	BatchYear           BatchYearRepository
	Programme           ProgrammeRepository
	Department          DepartmentRepository
	Job                 JobRepository
	Settings            SettingsRepository
	Audit               AuditRepository
}

// NewRepository wires the mongo-backed repositories and the gorm audit log.
func NewRepository(client *mongodb.Client, db *gorm.DB) *Repository {
	return &Repository{
		Regulation:          NewRegulationRepo(client),
		ProgrammeRegulation: NewProgrammeRegulationRepo(client),
		Course:              NewCourseRepo(client),
		RegulationBatchYear: NewRegulationBatchYearRepo(client),
		BatchYear:           NewBatchYearRepo(client),
		Programme:           NewProgrammeRepo(client),
		Department:          NewDepartmentRepo(client),
		Job:                 NewJobRepo(client),
		Settings:            NewSettingsRepo(client),
		Audit:               NewAuditRepo(db),
	}
}

// SyncCounts reports a reference-data bulk upsert.
type SyncCounts struct {
	Inserted int64
	Modified int64
	Matched  int64
	Removed  int64
}

// ── mongo helpers ──

type mongoColl struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func newMongoColl(client *mongodb.Client, name string) mongoColl {
	return mongoColl{coll: client.Collection(name), timeout: client.QueryTimeout()}
}

// withTimeout bounds one call. The session carried by ctx survives, so calls
// made inside a transaction stay in it.
func (m mongoColl) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.timeout)
}

func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

// findAll decodes every document of a cursor.
func findAll[T any](ctx context.Context, cursor *mongo.Cursor) ([]T, error) {
	defer func() { _ = cursor.Close(ctx) }()
	out := make([]T, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func toDocs[T any](items []T) []interface{} {
	docs := make([]interface{}, len(items))
	for i := range items {
		docs[i] = items[i]
	}
	return docs
}

func insertedIDs(res *mongo.InsertManyResult) []string {
	ids := make([]string, 0, len(res.InsertedIDs))
	for _, id := range res.InsertedIDs {
		if s, ok := id.(string); ok {
			ids = append(ids, s)
		}
	}
	return ids
}
