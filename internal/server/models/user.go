package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// User is an identity record in the users collection. Email is the unique
// identity key and never changes after creation. Password holds an opaque
// bcrypt hash; this layer does not interpret it.
type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Email       string             `bson:"email" json:"email"`
	Name        string             `bson:"name" json:"name"`
	Password    string             `bson:"password" json:"-"`
	Preferences map[string]any     `bson:"preferences,omitempty" json:"preferences,omitempty"`
}
