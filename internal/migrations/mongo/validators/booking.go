package validators

import "go.mongodb.org/mongo-driver/bson"

// BookingValidator leaves "fecha" as a free-form string: documents written by
// earlier versions of the system carry DD/MM/YYYY dates alongside the ISO
// dates written today.
var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"deporte",
			"fecha",
			"hora",
			"club",
			"canchaId",
			"precio",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{"bsonType": "objectId"},

			"deporte": bson.M{"bsonType": "string"},

			"fecha": bson.M{"bsonType": "string"},

			"hora": bson.M{
				"bsonType": "string",
				"pattern":  "^([01][0-9]|2[0-3]):[0-5][0-9]$",
			},

			"club":     bson.M{"bsonType": "string"},
			"canchaId": bson.M{"bsonType": "string"},

			"precio": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"usuarioReservado":  bson.M{"bsonType": []string{"string", "null"}},
			"emailReservado":    bson.M{"bsonType": []string{"string", "null"}},
			"telefonoReservado": bson.M{"bsonType": []string{"string", "null"}},
			"usuarioId":         bson.M{"bsonType": []string{"string", "null"}},

			"pagado":     bson.M{"bsonType": "bool"},
			"pagoId":     bson.M{"bsonType": []string{"string", "null"}},
			"pagoMetodo": bson.M{"bsonType": []string{"string", "null"}},
			"fechaPago":  bson.M{"bsonType": []string{"date", "null"}},
		},
	},
}
