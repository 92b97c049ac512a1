package validators

import "go.mongodb.org/mongo-driver/bson"

var SlotValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"date",
			"time",
			"duration_minutes",
			"category",
			"is_available",
			"is_booked",
			"source",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"date": bson.M{
				"bsonType": "date",
			},

			"time": bson.M{
				"bsonType": "string",
				"pattern":  hhmmPattern,
			},

			"duration_minutes": bson.M{
				"bsonType": "int",
				"minimum":  5,
				"maximum":  1440,
			},

			"category": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 50,
			},

			"is_available": bson.M{
				"bsonType": "bool",
			},

			"is_booked": bson.M{
				"bsonType": "bool",
			},

			"source": bson.M{
				"enum": []string{"manual", "bulk"},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
