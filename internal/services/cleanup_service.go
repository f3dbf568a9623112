package services

import (
	"context"
	"log"
	"time"

	"wifisub_app/internal/models"
	"wifisub_app/internal/repository"
)

const DefaultScreenshotRetention = 15 * 24 * time.Hour

// CleanupResult counts the outcome of one cleanup run
type CleanupResult struct {
	Success int `json:"success"`
	Errors  int `json:"errors"`
}

// CleanupService enforces screenshot retention: proofs of approved payments
// are deleted once the plan ended more than the retention period ago.
type CleanupService struct {
	payments  repository.PaymentRepository
	blobs     BlobStore
	retention time.Duration
	now       func() time.Time
}

func NewCleanupService(payments repository.PaymentRepository, blobs BlobStore, retention time.Duration) *CleanupService {
	if retention <= 0 {
		retention = DefaultScreenshotRetention
	}
	return &CleanupService{
		payments:  payments,
		blobs:     blobs,
		retention: retention,
		now:       time.Now,
	}
}

// Eligible reports whether the payment's screenshot may be removed at now
func Eligible(p models.Payment, now time.Time, retention time.Duration) bool {
	return p.Status == models.PaymentStatusApproved &&
		p.HasScreenshot() &&
		p.EndDate.Before(now.Add(-retention))
}

// CleanupScreenshots deletes every eligible screenshot. A failing item is
// logged and counted; the rest of the batch still runs.
func (s *CleanupService) CleanupScreenshots(ctx context.Context) (CleanupResult, error) {
	now := s.now()
	candidates, err := s.payments.FindScreenshotsExpiredBefore(ctx, now.Add(-s.retention))
	if err != nil {
		return CleanupResult{}, err
	}

	var result CleanupResult
	for _, p := range candidates {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if !Eligible(p, now, s.retention) {
			continue
		}
		if err := s.cleanupOne(ctx, p); err != nil {
			log.Printf("[cleanup] payment %s: %v", p.ID, err)
			result.Errors++
			continue
		}
		result.Success++
	}

	log.Printf("[cleanup] screenshots removed=%d errors=%d", result.Success, result.Errors)
	return result, nil
}

func (s *CleanupService) cleanupOne(ctx context.Context, p models.Payment) error {
	key, err := s.blobs.KeyFromURL(*p.ScreenshotURL)
	if err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, key); err != nil {
		return err
	}
	return s.payments.ClearScreenshot(ctx, p.ID)
}
