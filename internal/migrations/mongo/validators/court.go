package validators

import "go.mongodb.org/mongo-driver/bson"

var CourtValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"nombre",
			"deporte",
			"precio",
			"horaDesde",
			"horaHasta",
			"clubEmail",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{"bsonType": "objectId"},

			"nombre": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"deporte": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 40,
			},

			"precio": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"horaDesde": bson.M{
				"bsonType": "string",
				"pattern":  "^([01][0-9]|2[0-3]):[0-5][0-9]$",
			},

			"horaHasta": bson.M{
				"bsonType": "string",
				"pattern":  "^([01][0-9]|2[0-3]):[0-5][0-9]$",
			},

			"diasDisponibles": bson.M{
				"bsonType": "array",
				"items":    bson.M{"bsonType": "string"},
			},

			"clubEmail": bson.M{"bsonType": "string"},

			"duracionTurno": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
				"maximum":  480,
			},

			"nocturnoDesde": bson.M{
				"bsonType": []string{"int", "long", "null"},
				"minimum":  0,
				"maximum":  23,
			},

			"precioNocturno": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal", "null"},
				"minimum":  0,
			},
		},
	},
}
