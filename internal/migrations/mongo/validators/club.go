package validators

import "go.mongodb.org/mongo-driver/bson"

var ClubValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"nombre",
			"email",
			"telefono",
			"provincia",
			"localidad",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{"bsonType": "objectId"},

			"nombre": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"email":    bson.M{"bsonType": "string"},
			"telefono": bson.M{"bsonType": "string"},

			"latitud":  bson.M{"bsonType": []string{"double", "int", "long", "null"}},
			"longitud": bson.M{"bsonType": []string{"double", "int", "long", "null"}},

			"provincia": bson.M{"bsonType": "string"},
			"localidad": bson.M{"bsonType": "string"},

			"mercadoPagoAccessToken": bson.M{"bsonType": "string"},

			"destacado":           bson.M{"bsonType": "bool"},
			"destacadoHasta":      bson.M{"bsonType": []string{"date", "null"}},
			"idUltimaTransaccion": bson.M{"bsonType": "string"},

			"activo": bson.M{"bsonType": "bool"},
		},
	},
}
