package models

import "time"

// CooldownEntry is the serialization point for spark creation: one logical
// row per unordered user pair, only ever mutated through conditional writes.
// An entry outlives the spark it guarded so the pair cannot re-spark inside
// the cooldown window even after the spark is resolved.
type CooldownEntry struct {
	PairKey         string    `dynamodbav:"pairKey" json:"pairKey"` // ✅ Partition Key (unique)
	LastEncounterAt time.Time `dynamodbav:"lastEncounterAt,unixtime" json:"lastEncounterAt"`
	LockToken       string    `dynamodbav:"lockToken" json:"lockToken"` // rotated on every successful claim
}

// SparkCooldownsTable is the DynamoDB table name for the cooldown ledger
const SparkCooldownsTable = "SparkCooldowns"
