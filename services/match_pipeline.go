package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"spark_server/models"
	"spark_server/utils"
)

// MatchPipeline is the worker-side glue: store the sample, find nearby
// candidates, and for each candidate pair claim the cooldown ledger and
// create a spark. Runs synchronously inside an ingest worker; the job is
// acked only when the whole pass succeeds.
type MatchPipeline struct {
	Locations LocationStore
	Matcher   *ProximityService
	Cooldowns *CooldownService
	Sparks    *SparkService

	Now func() time.Time // defaults to time.Now
}

// ProcessSample handles one location update end to end. Any returned error
// sends the job back through the queue's retry path; the cooldown entry
// written by an earlier success makes such retries idempotent: a retried
// job that already produced a spark cannot produce a second one.
func (p *MatchPipeline) ProcessSample(ctx context.Context, sample models.LocationSample) error {
	if err := utils.ValidateCoordinates(sample.Latitude, sample.Longitude); err != nil {
		// Rejected at ingress normally; a bad sample that slipped through is
		// dropped here rather than retried forever.
		log.Printf("dropping sample with invalid coordinates for user %s", sample.UserID)
		return nil
	}

	if err := p.Locations.SaveSample(ctx, sample); err != nil {
		return fmt.Errorf("failed to persist sample: %w", err)
	}

	candidates, err := p.Matcher.FindCandidates(ctx, sample)
	if err != nil {
		return fmt.Errorf("failed to find candidates: %w", err)
	}

	now := p.nowFunc()
	for _, candidate := range candidates {
		pairKey := utils.PairKey(sample.UserID, candidate.UserID)

		result, err := p.Cooldowns.TryClaim(ctx, pairKey, now)
		if err != nil {
			return fmt.Errorf("claim for %s: %w", pairKey, err)
		}
		if !result.Claimed {
			// Lost the race or inside the cooldown window: successful
			// de-duplication, not a failure.
			continue
		}

		if _, err := p.Sparks.CreateSpark(ctx, sample.UserID, candidate.UserID, models.SparkTypeProximity, nil); err != nil {
			return fmt.Errorf("create spark for %s: %w", pairKey, err)
		}
	}
	return nil
}

func (p *MatchPipeline) nowFunc() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}
