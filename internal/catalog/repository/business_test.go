package repository

import (
	"testing"

	"bizqueue/pkg/geo"
	"bizqueue/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
)

func TestBuildAttributeFilter(t *testing.T) {
	carWash := model.BusinessTypeCarWash
	query := buildAttributeFilter(model.BusinessFilter{Type: &carWash, Text: "a.b"})

	if query["is_active"] != true {
		t.Error("filter must restrict to active businesses")
	}
	if query["type"] != "car_wash" {
		t.Errorf("expected type filter, got %v", query["type"])
	}
	assertTextClause(t, query, `a\.b`)
}

func TestBuildAttributeFilter_NoText(t *testing.T) {
	query := buildAttributeFilter(model.BusinessFilter{})
	if _, ok := query["$and"]; ok {
		t.Error("did not expect a text clause without text")
	}
}

// assertTextClause checks for one $and entry matching name or description.
func assertTextClause(t *testing.T, query bson.M, wantRegex string) {
	t.Helper()
	and, ok := query["$and"].([]bson.M)
	if !ok || len(and) != 1 {
		t.Fatalf("expected one $and clause, got %v", query["$and"])
	}
	alternatives, ok := and[0]["$or"].([]bson.M)
	if !ok || len(alternatives) != 2 {
		t.Fatalf("expected name/description alternatives, got %v", and[0])
	}
	for i, field := range []string{"name", "description"} {
		re, ok := alternatives[i][field].(bson.M)
		if !ok {
			t.Fatalf("expected %s regex, got %v", field, alternatives[i])
		}
		if re["$regex"] != wantRegex || re["$options"] != "i" {
			t.Errorf("%s: expected case-insensitive escaped regex %q, got %v", field, wantRegex, re)
		}
	}
}

func TestBuildBoxFilter_SingleRange(t *testing.T) {
	box := geo.BoxAround(geo.Point{Lat: 57.114, Lon: 65.555}, 1)
	query := buildBoxFilter(box, model.BusinessFilter{})

	if _, ok := query["location.lon"]; !ok {
		t.Error("expected a direct longitude range")
	}
	if _, ok := query["$or"]; ok {
		t.Error("did not expect $or for a box not crossing the antimeridian")
	}
}

func TestBuildBoxFilter_Antimeridian(t *testing.T) {
	box := geo.BoxAround(geo.Point{Lat: -17.7, Lon: 179.99}, 10)
	query := buildBoxFilter(box, model.BusinessFilter{})

	ranges, ok := query["$or"].([]bson.M)
	if !ok || len(ranges) != 2 {
		t.Fatalf("expected two longitude ranges, got %v", query["$or"])
	}
}

func TestBuildBoxFilter_AntimeridianWithText(t *testing.T) {
	box := geo.BoxAround(geo.Point{Lat: -17.7, Lon: 179.99}, 10)
	query := buildBoxFilter(box, model.BusinessFilter{Text: "wash"})

	ranges, ok := query["$or"].([]bson.M)
	if !ok || len(ranges) != 2 {
		t.Fatalf("text search must not replace the longitude ranges, got %v", query["$or"])
	}
	for _, r := range ranges {
		if _, ok := r["location.lon"]; !ok {
			t.Errorf("expected a longitude range, got %v", r)
		}
	}
	assertTextClause(t, query, "wash")
}

func TestToObjectIDs_SkipsInvalidAndDuplicates(t *testing.T) {
	ids := []string{
		"64b000000000000000000001",
		"not-an-id",
		"64b000000000000000000001",
		"64b000000000000000000002",
	}
	got := toObjectIDs(ids)
	if len(got) != 2 {
		t.Fatalf("expected 2 object ids, got %d", len(got))
	}
}
