package validators

import "go.mongodb.org/mongo-driver/bson"

var HoldValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"canchaId",
			"fecha",
			"hora",
			"estado",
			"expiresAt",
			"emailContacto",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{"bsonType": "objectId"},

			"canchaId": bson.M{"bsonType": "string"},

			"fecha": bson.M{
				"bsonType": "string",
				"pattern":  "^\\d{4}-\\d{2}-\\d{2}$",
			},

			"hora": bson.M{
				"bsonType": "string",
				"pattern":  "^([01][0-9]|2[0-3]):[0-5][0-9]$",
			},

			"estado": bson.M{
				"enum": []string{"PENDING", "CONFIRMED", "CANCELLED", "EXPIRED"},
			},

			"codigoOTP": bson.M{
				"bsonType": []string{"string", "null"},
			},

			"expiresAt":     bson.M{"bsonType": "date"},
			"emailContacto": bson.M{"bsonType": "string"},
			"usuarioId":     bson.M{"bsonType": []string{"string", "null"}},
			"createdAt":     bson.M{"bsonType": "date"},
		},
	},
}
