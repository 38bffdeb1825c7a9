package validators

import "go.mongodb.org/mongo-driver/bson"

// Enumerated fields are checked as strings only: newer writers may add values.

var BusinessValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"name", "type", "location", "is_active"},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 200,
			},

			"type": bson.M{
				"bsonType": "string",
			},

			"address": bson.M{
				"bsonType": "string",
			},

			"location": bson.M{
				"bsonType": "object",
				"required": []string{"lat", "lon"},
				"properties": bson.M{
					"lat": bson.M{"bsonType": "double", "minimum": -90, "maximum": 90},
					"lon": bson.M{"bsonType": "double", "minimum": -180, "maximum": 180},
				},
			},

			"is_active": bson.M{
				"bsonType": "bool",
			},
		},
	},
}

var ServiceValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"business_id", "name", "is_active"},
		"additionalProperties": true,

		"properties": bson.M{
			"business_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 200,
			},

			"price": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"duration_minutes": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"is_active": bson.M{
				"bsonType": "bool",
			},
		},
	},
}

var EmployeeValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"business_id", "name", "is_active"},
		"additionalProperties": true,

		"properties": bson.M{
			"business_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 200,
			},

			"is_active": bson.M{
				"bsonType": "bool",
			},
		},
	},
}
