package pipeline

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/model"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Paginate normalizes page parameters into skip and limit.
func Paginate(page, pageSize int) (skip, limit int64) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return int64((page - 1) * pageSize), int64(pageSize)
}

// SearchRegex is a case-insensitive literal match.
func SearchRegex(search string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(search), "$options": "i"}
}

// ExactFold matches the whole value ignoring case.
func ExactFold(value string) bson.M {
	return bson.M{"$regex": "^" + regexp.QuoteMeta(value) + "$", "$options": "i"}
}

// MappingPage pages the programme regulations of one regulation. The single
// output document decodes into model.MappingPage.
func MappingPage(regulationID string, f model.MappingFilter) mongo.Pipeline {
	match := bson.M{"regulationId": regulationID}
	if f.PoStatus != "" {
		match["poStatus"] = string(f.PoStatus)
	}
	if f.Search != "" {
		re := SearchRegex(f.Search)
		match["$or"] = bson.A{
			bson.M{"programme.name": re},
			bson.M{"programme.shortName": re},
			bson.M{"department.name": re},
		}
	}
	skip, limit := Paginate(f.Page, f.PageSize)

	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "programme.name", Value: 1}, {Key: "_id", Value: 1}}}},
		{{Key: "$facet", Value: bson.M{
			"records": bson.A{
				bson.M{"$skip": skip},
				bson.M{"$limit": limit},
			},
			"total": bson.A{
				bson.M{"$count": "count"},
			},
		}}},
		{{Key: "$project", Value: bson.M{
			"records": 1,
			"total": bson.M{"$ifNull": bson.A{
				bson.M{"$arrayElemAt": bson.A{"$total.count", 0}}, 0,
			}},
		}}},
	}
}

// MaxVersion finds the highest version among regulations of year that share
// at least one programme. Output: at most one {version: n}.
func MaxVersion(year int, programmeIDs []string, excludeID string) mongo.Pipeline {
	match := bson.M{
		"year":         year,
		"programmeIds": bson.M{"$in": programmeIDs},
	}
	if excludeID != "" {
		match["_id"] = bson.M{"$ne": excludeID}
	}
	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": nil, "version": bson.M{"$max": "$version"}}}},
	}
}

// NextVersion returns the version a regulation gets given the versions of
// its year-and-programme peers.
func NextVersion(peerVersions []int) int {
	highest := 0
	for _, v := range peerVersions {
		if v > highest {
			highest = v
		}
	}
	return highest + 1
}
