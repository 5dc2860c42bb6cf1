package models

// Session binds a user identity to its current bearer token. At most one
// session document exists per user_id; the token itself is opaque here.
type Session struct {
	UserID string `bson:"user_id" json:"user_id"`
	JWT    string `bson:"jwt" json:"jwt"`
}
