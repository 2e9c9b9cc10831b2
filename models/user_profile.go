package models

// UserProfile defines the slice of the profile the spark engine reads:
// identity, the public summary shown to peers, and the discovery controls
// the matcher must honor. Profile writes are owned elsewhere.
type UserProfile struct {
	UserID       string   `dynamodbav:"userId" json:"userId"` // ✅ Partition Key
	Name         string   `dynamodbav:"name,omitempty" json:"name,omitempty"`
	Photos       []string `dynamodbav:"photos,omitempty" json:"photos,omitempty"` // S3 object keys
	Discoverable bool     `dynamodbav:"discoverable" json:"discoverable"`         // opted in to proximity discovery
	Blocked      []string `dynamodbav:"blocked,omitempty" json:"blocked,omitempty"`
}

// UserProfilesTable is the DynamoDB table name for user profiles
const UserProfilesTable = "UserProfiles"
