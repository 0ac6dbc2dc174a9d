package validators

import "go.mongodb.org/mongo-driver/bson"

var PaymentEventValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"paymentId", "processedAt"},
		"additionalProperties": true,

		"properties": bson.M{
			"_id":         bson.M{"bsonType": "objectId"},
			"paymentId":   bson.M{"bsonType": "string", "minLength": 1},
			"processedAt": bson.M{"bsonType": "date"},
		},
	},
}
