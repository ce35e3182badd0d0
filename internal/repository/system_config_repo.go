package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/model"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/mongodb"
)

// SettingsRepository holds the single academic calendar document.
type SettingsRepository interface {
	GetCalendar(ctx context.Context) (*model.AcademicCalendar, error)
	SaveCalendar(ctx context.Context, cal *model.AcademicCalendar) error
}

type settingsRepo struct {
	mongoColl
}

func NewSettingsRepo(client *mongodb.Client) SettingsRepository {
	return &settingsRepo{newMongoColl(client, mongodb.CollSettings)}
}

func (r *settingsRepo) GetCalendar(ctx context.Context) (*model.AcademicCalendar, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	var cal model.AcademicCalendar
	if err := r.coll.FindOne(ctx, bson.M{"_id": model.AcademicCalendarID}).Decode(&cal); err != nil {
		return nil, wrapError(err)
	}
	return &cal, nil
}

func (r *settingsRepo) SaveCalendar(ctx context.Context, cal *model.AcademicCalendar) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	cal.ID = model.AcademicCalendarID
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": cal.ID}, cal, options.Replace().SetUpsert(true))
	return wrapError(err)
}
