package pipeline

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/workflow"
)

// RegProgramme identifies the course set of one programme under one
// regulation.
type RegProgramme struct {
	RegulationID string `bson:"regulationId" json:"regulationId"`
	ProgrammeID  string `bson:"programmeId" json:"programmeId"`
}

// uniform lists, in priority order, the summaries produced when every course
// shares one status.
var uniform = []workflow.Status{
	workflow.Approved,
	workflow.Confirmed,
	workflow.Draft,
	workflow.WaitingForApproval,
	workflow.RequestedChanges,
}

var verified = []workflow.Status{workflow.Approved, workflow.Confirmed}

// AggregateStatus derives the programme summary from the distinct course
// statuses. Rules are tried in order and the first match wins: a single
// shared status is reported as is, a mix drawn only from APPROVED and
// CONFIRMED is PARTIALLY_VERIFIED, anything else is PENDING.
func AggregateStatus(distinct []workflow.Status) workflow.Status {
	set := make(map[workflow.Status]struct{}, len(distinct))
	for _, s := range distinct {
		set[s] = struct{}{}
	}

	if len(set) == 1 {
		for _, s := range uniform {
			if _, ok := set[s]; ok {
				return s
			}
		}
	}

	if len(set) > 0 {
		onlyVerified := true
		for s := range set {
			if s != workflow.Approved && s != workflow.Confirmed {
				onlyVerified = false
				break
			}
		}
		if onlyVerified {
			return workflow.PartiallyVerified
		}
	}

	return workflow.Pending
}

// StatusSwitch is the $switch expression equivalent of AggregateStatus over
// an array field of distinct statuses.
func StatusSwitch(field string) bson.M {
	branches := make(bson.A, 0, len(uniform)+1)
	for _, s := range uniform {
		branches = append(branches, bson.M{
			"case": bson.M{"$setEquals": bson.A{field, bson.A{string(s)}}},
			"then": string(s),
		})
	}
	branches = append(branches, bson.M{
		"case": bson.M{"$and": bson.A{
			bson.M{"$gt": bson.A{bson.M{"$size": field}, 0}},
			bson.M{"$setIsSubset": bson.A{field, statusArray(verified)}},
		}},
		"then": string(workflow.PartiallyVerified),
	})

	return bson.M{"$switch": bson.M{
		"branches": branches,
		"default":  string(workflow.Pending),
	}}
}

// ProgrammeStatus groups a regulation's courses by programme and labels each
// group with its summary status. Output documents: {_id: programmeId,
// statuses: [...], status: "..."}.
func ProgrammeStatus(regulationID string, programmeIDs []string) mongo.Pipeline {
	match := bson.M{"regulationId": regulationID}
	if len(programmeIDs) > 0 {
		match["programme.id"] = bson.M{"$in": programmeIDs}
	}
	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":      "$programme.id",
			"statuses": bson.M{"$addToSet": "$status"},
		}}},
		{{Key: "$addFields", Value: bson.M{"status": StatusSwitch("$statuses")}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
}

// IsSchemeConfirmed is true only when there is exactly one distinct status
// and it is CONFIRMED.
func IsSchemeConfirmed(distinct []workflow.Status) bool {
	if len(distinct) == 0 {
		return false
	}
	for _, s := range distinct {
		if s != workflow.Confirmed {
			return false
		}
	}
	return true
}

// SchemeConfirmation reports, per (regulation, programme), whether every
// course of the semester is CONFIRMED. Output documents:
// {_id: {regulationId, programmeId}, statuses: [...], confirmed: bool}.
func SchemeConfirmation(pairs []RegProgramme, semester int) mongo.Pipeline {
	or := make(bson.A, 0, len(pairs))
	for _, p := range pairs {
		or = append(or, bson.M{"regulationId": p.RegulationID, "programme.id": p.ProgrammeID})
	}
	match := bson.M{"semester": semester}
	if len(or) > 0 {
		match["$or"] = or
	}

	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":      bson.M{"regulationId": "$regulationId", "programmeId": "$programme.id"},
			"statuses": bson.M{"$addToSet": "$status"},
		}}},
		{{Key: "$addFields", Value: bson.M{
			"confirmed": bson.M{"$and": bson.A{
				bson.M{"$eq": bson.A{bson.M{"$size": "$statuses"}, 1}},
				bson.M{"$eq": bson.A{bson.M{"$arrayElemAt": bson.A{"$statuses", 0}}, string(workflow.Confirmed)}},
			}},
		}}},
	}
}

func statusArray(statuses []workflow.Status) bson.A {
	out := make(bson.A, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
