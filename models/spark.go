package models

import "time"

// Spark represents a detected encounter between two users. Created exactly
// once per qualifying proximity event (subject to the pair cooldown) and
// mutated only by explicit responses or the expiry sweep.
type Spark struct {
	SparkID   string  `dynamodbav:"sparkId" json:"sparkId"` // ✅ Partition Key
	PairKey   string  `dynamodbav:"pairKey" json:"pairKey"` // ✅ Indexed via GSI
	UserAID   string  `dynamodbav:"userAId" json:"userAId"` // lexicographically smaller ID
	UserBID   string  `dynamodbav:"userBId" json:"userBId"`
	Type      string  `dynamodbav:"type" json:"type"`     // proximity, interest, location, activity, manual
	Status    string  `dynamodbav:"status" json:"status"` // pending, accepted, declined, matched, rejected, expired
	Message   *string `dynamodbav:"message,omitempty" json:"message,omitempty"`
	AResponse string  `dynamodbav:"aResponse,omitempty" json:"aResponse,omitempty"` // accept or decline, once given
	BResponse string  `dynamodbav:"bResponse,omitempty" json:"bResponse,omitempty"`

	CreatedAt   time.Time `dynamodbav:"createdAt" json:"createdAt"`
	ExpiresAt   time.Time `dynamodbav:"expiresAt" json:"expiresAt"`
	LastUpdated time.Time `dynamodbav:"lastUpdated" json:"lastUpdated"`
}

// SparkWithProfile combines a Spark with the peer's public profile summary
// for list/detail responses.
type SparkWithProfile struct {
	Spark

	PeerID     string   `json:"peerId"`
	PeerName   string   `json:"peerName,omitempty"`
	PeerPhotos []string `json:"peerPhotos,omitempty"`
}

// SparksTable is the DynamoDB table name for sparks
const SparksTable = "Sparks"

// GSI names for spark lookups
const (
	SparkPairKeyIndex = "pairKey-index" // PK: pairKey
	SparkUserAIndex   = "userAId-index" // PK: userAId
	SparkUserBIndex   = "userBId-index" // PK: userBId
	SparkStatusIndex  = "status-index"  // PK: status (expiry sweep)
)

// Spark types
const (
	SparkTypeProximity = "proximity"
	SparkTypeInterest  = "interest"
	SparkTypeLocation  = "location"
	SparkTypeActivity  = "activity"
	SparkTypeManual    = "manual"
)

// Spark statuses
const (
	SparkStatusPending  = "pending"
	SparkStatusAccepted = "accepted"
	SparkStatusDeclined = "declined"
	SparkStatusMatched  = "matched"
	SparkStatusRejected = "rejected"
	SparkStatusExpired  = "expired"
)

// Response actions
const (
	ActionAccept  = "accept"
	ActionDecline = "decline"
)

// TerminalStatus reports whether a spark in the given status can never
// transition again.
func TerminalStatus(status string) bool {
	switch status {
	case SparkStatusDeclined, SparkStatusMatched, SparkStatusRejected, SparkStatusExpired:
		return true
	}
	return false
}

// ValidSparkType reports whether t is one of the recognized spark types.
func ValidSparkType(t string) bool {
	switch t {
	case SparkTypeProximity, SparkTypeInterest, SparkTypeLocation, SparkTypeActivity, SparkTypeManual:
		return true
	}
	return false
}

// Participant reports whether userID is one of the spark's two users.
func (s *Spark) Participant(userID string) bool {
	return userID == s.UserAID || userID == s.UserBID
}

// PeerOf returns the other participant's ID, or "" if userID is not a participant.
func (s *Spark) PeerOf(userID string) string {
	switch userID {
	case s.UserAID:
		return s.UserBID
	case s.UserBID:
		return s.UserAID
	}
	return ""
}
