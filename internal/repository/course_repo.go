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

// CourseRepository course data access.
type CourseRepository interface {
	Create(ctx context.Context, c *model.Course) error
	CreateMany(ctx context.Context, courses []model.Course) ([]string, error)
	Get(ctx context.Context, id string) (*model.Course, error)
	Find(ctx context.Context, f model.CourseFilter) ([]model.Course, error)
	List(ctx context.Context, f model.CourseFilter) ([]model.Course, int64, error)
	Count(ctx context.Context, f model.CourseFilter) (int64, error)
	// DistinctStatuses of the courses matching f.
	DistinctStatuses(ctx context.Context, f model.CourseFilter) ([]workflow.Status, error)
	// ProgrammeStatuses is the summary status per programme of a regulation.
	ProgrammeStatuses(ctx context.Context, regulationID string, programmeIDs []string) (map[string]workflow.Status, error)
	// SchemeConfirmed reports, per pair, whether the semester is fully
	// CONFIRMED.
	SchemeConfirmed(ctx context.Context, pairs []pipeline.RegProgramme, semester int) (map[pipeline.RegProgramme]bool, error)
	Update(ctx context.Context, id string, patch model.CoursePatch) (int64, error)
	// UpdateStatusMany moves the listed courses that are still in from.
	UpdateStatusMany(ctx context.Context, ids []string, from, to workflow.Status, reason, actor string) (int64, error)
	// UpdateMappingStatus moves mappingStatus only if it is still in from.
	UpdateMappingStatus(ctx context.Context, id string, from, to workflow.Status, reason, actor string) (int64, error)
	Delete(ctx context.Context, id string) (int64, error)
	// RemovePrerequisite pulls a deleted course from every prerequisite list.
	RemovePrerequisite(ctx context.Context, courseID string) (int64, error)
	DeleteByRegulation(ctx context.Context, regulationID string, programmeIDs []string) (int64, error)
	PropagateProgramme(ctx context.Context, p model.ProgrammeInfo) (int64, error)
	PropagateDepartment(ctx context.Context, d model.DepartmentInfo) (int64, error)
}

type courseRepo struct {
	mongoColl
}

func NewCourseRepo(client *mongodb.Client) CourseRepository {
	return &courseRepo{newMongoColl(client, mongodb.CollCourses)}
}

func courseFilter(f model.CourseFilter) bson.M {
	filter := bson.M{}
	if f.RegulationID != "" {
		filter["regulationId"] = f.RegulationID
	}
	if f.ProgrammeID != "" {
		filter["programme.id"] = f.ProgrammeID
	}
	if f.Code != "" {
		filter["code"] = f.Code
	}
	if f.Semester != nil {
		if *f.Semester == 0 {
			filter["semester"] = nil
		} else {
			filter["semester"] = *f.Semester
		}
	}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}
	if f.Vertical != "" {
		filter["vertical"] = pipeline.ExactFold(f.Vertical)
	}
	if len(f.IDs) > 0 {
		filter["_id"] = bson.M{"$in": f.IDs}
	}
	if f.Search != "" {
		re := pipeline.SearchRegex(f.Search)
		filter["$or"] = bson.A{bson.M{"code": re}, bson.M{"title": re}}
	}
	return filter
}

func (r *courseRepo) Create(ctx context.Context, c *model.Course) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	_, err := r.coll.InsertOne(ctx, c)
	return wrapError(err)
}

func (r *courseRepo) CreateMany(ctx context.Context, courses []model.Course) ([]string, error) {
	if len(courses) == 0 {
		return nil, nil
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	res, err := r.coll.InsertMany(ctx, toDocs(courses))
	if err != nil {
		return nil, wrapError(err)
	}
	return insertedIDs(res), nil
}

func (r *courseRepo) Get(ctx context.Context, id string) (*model.Course, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	var c model.Course
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, wrapError(err)
	}
	return &c, nil
}

func (r *courseRepo) Find(ctx context.Context, f model.CourseFilter) ([]model.Course, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	opts := options.Find().SetSort(bson.D{{Key: "semester", Value: 1}, {Key: "code", Value: 1}})
	cursor, err := r.coll.Find(ctx, courseFilter(f), opts)
	if err != nil {
		return nil, wrapError(err)
	}
	courses, err := findAll[model.Course](ctx, cursor)
	return courses, wrapError(err)
}

func (r *courseRepo) List(ctx context.Context, f model.CourseFilter) ([]model.Course, int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	filter := courseFilter(f)
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, wrapError(err)
	}

	skip, limit := pipeline.Paginate(f.Page, f.PageSize)
	opts := options.Find().
		SetSort(bson.D{{Key: "semester", Value: 1}, {Key: "code", Value: 1}}).
		SetSkip(skip).
		SetLimit(limit)
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, wrapError(err)
	}
	courses, err := findAll[model.Course](ctx, cursor)
	return courses, total, wrapError(err)
}

func (r *courseRepo) Count(ctx context.Context, f model.CourseFilter) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	n, err := r.coll.CountDocuments(ctx, courseFilter(f))
	return n, wrapError(err)
}

func (r *courseRepo) DistinctStatuses(ctx context.Context, f model.CourseFilter) ([]workflow.Status, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	values, err := r.coll.Distinct(ctx, "status", courseFilter(f))
	if err != nil {
		return nil, wrapError(err)
	}
	out := make([]workflow.Status, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, workflow.Status(s))
		}
	}
	return out, nil
}

func (r *courseRepo) ProgrammeStatuses(ctx context.Context, regulationID string, programmeIDs []string) (map[string]workflow.Status, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	cursor, err := r.coll.Aggregate(ctx, pipeline.ProgrammeStatus(regulationID, programmeIDs))
	if err != nil {
		return nil, wrapError(err)
	}
	rows, err := findAll[struct {
		ProgrammeID string          `bson:"_id"`
		Status      workflow.Status `bson:"status"`
	}](ctx, cursor)
	if err != nil {
		return nil, wrapError(err)
	}
	out := make(map[string]workflow.Status, len(rows))
	for _, row := range rows {
		out[row.ProgrammeID] = row.Status
	}
	return out, nil
}

func (r *courseRepo) SchemeConfirmed(ctx context.Context, pairs []pipeline.RegProgramme, semester int) (map[pipeline.RegProgramme]bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	cursor, err := r.coll.Aggregate(ctx, pipeline.SchemeConfirmation(pairs, semester))
	if err != nil {
		return nil, wrapError(err)
	}
	rows, err := findAll[struct {
		Key       pipeline.RegProgramme `bson:"_id"`
		Confirmed bool                  `bson:"confirmed"`
	}](ctx, cursor)
	if err != nil {
		return nil, wrapError(err)
	}
	out := make(map[pipeline.RegProgramme]bool, len(pairs))
	for _, p := range pairs {
		out[p] = false
	}
	for _, row := range rows {
		out[row.Key] = row.Confirmed
	}
	return out, nil
}

func (r *courseRepo) Update(ctx context.Context, id string, patch model.CoursePatch) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	set := bson.M{"updatedAt": time.Now(), "updatedBy": patch.UpdatedBy}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Code != nil {
		set["code"] = *patch.Code
	}
	if patch.Type != nil {
		set["type"] = *patch.Type
	}
	if patch.Category != nil {
		set["category"] = *patch.Category
	}
	if patch.Semester != nil {
		set["semester"] = *patch.Semester
	}
	if patch.EvaluationPatternID != nil {
		set["evaluationPatternId"] = *patch.EvaluationPatternID
	}
	if patch.Ltpc != nil {
		set["ltpc"] = *patch.Ltpc
	}
	if patch.Prerequisites != nil {
		set["prerequisites"] = patch.Prerequisites
	}
	if patch.Vertical != nil {
		set["vertical"] = *patch.Vertical
	}
	if patch.Status != nil {
		set["status"] = string(*patch.Status)
	}
	if patch.Reason != nil {
		set["reason"] = *patch.Reason
	}
	if patch.MappingStatus != nil {
		set["mappingStatus"] = string(*patch.MappingStatus)
	}
	if patch.MappingReason != nil {
		set["mappingReason"] = *patch.MappingReason
	}
	if patch.Co != nil {
		set["co"] = patch.Co
	}
	if patch.Mapping != nil {
		set["mapping"] = patch.Mapping
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return 0, wrapError(err)
	}
	return res.ModifiedCount, nil
}

func (r *courseRepo) UpdateStatusMany(ctx context.Context, ids []string, from, to workflow.Status, reason, actor string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	update := statusUpdate("status", "reason", to, reason, actor)
	res, err := r.coll.UpdateMany(ctx, bson.M{"_id": bson.M{"$in": ids}, "status": string(from)}, update)
	if err != nil {
		return 0, wrapError(err)
	}
	return res.ModifiedCount, nil
}

func (r *courseRepo) UpdateMappingStatus(ctx context.Context, id string, from, to workflow.Status, reason, actor string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	update := statusUpdate("mappingStatus", "mappingReason", to, reason, actor)
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id, "mappingStatus": string(from)}, update)
	if err != nil {
		return 0, wrapError(err)
	}
	return res.ModifiedCount, nil
}

func (r *courseRepo) Delete(ctx context.Context, id string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, wrapError(err)
	}
	return res.DeletedCount, nil
}

func (r *courseRepo) RemovePrerequisite(ctx context.Context, courseID string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"prerequisites.courseId": courseID},
		bson.M{"$pull": bson.M{"prerequisites": bson.M{"courseId": courseID}}},
	)
	if err != nil {
		return 0, wrapError(err)
	}
	return res.ModifiedCount, nil
}

func (r *courseRepo) DeleteByRegulation(ctx context.Context, regulationID string, programmeIDs []string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	res, err := r.coll.DeleteMany(ctx, byRegulationProgrammes(regulationID, programmeIDs))
	if err != nil {
		return 0, wrapError(err)
	}
	return res.DeletedCount, nil
}

func (r *courseRepo) PropagateProgramme(ctx context.Context, p model.ProgrammeInfo) (int64, error) {
	return propagate(ctx, r.mongoColl, "programme", p.ID, p)
}

func (r *courseRepo) PropagateDepartment(ctx context.Context, d model.DepartmentInfo) (int64, error) {
	return propagate(ctx, r.mongoColl, "department", d.ID, d)
}
