package validators

import "go.mongodb.org/mongo-driver/bson"

var AvailabilityStatusValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"state", "estimated_wait_minutes", "current_queue_count", "updated_at", "version"},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},

			"state": bson.M{
				"bsonType": "string",
			},

			"estimated_wait_minutes": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"current_queue_count": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},

			"version": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
			},
		},
	},
}

var SlotLockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"expires_at"},
		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},
			"expires_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
