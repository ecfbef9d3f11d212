package services

import (
	"context"
	"sort"

	"github.com/lodgekey/lodgekey/models"
	"github.com/lodgekey/lodgekey/schedule"
)

// Cleanup sweeps every mapped device and removes codes whose end time
// is older than now minus the grace period. It is the backstop for
// bookings whose cancellation event was lost or malformed. With dry-run
// enabled it reports what would be deleted without issuing any delete.
func (r *Reconciler) Cleanup(ctx context.Context) models.CleanupResult {
	cutoff := r.clock().Add(-r.cfg.Cleanup.GracePeriod())
	dryRun := r.cfg.Cleanup.DryRun

	deviceIDs := r.mappedDevices()
	result := models.CleanupResult{DryRun: dryRun}

	for _, deviceID := range deviceIDs {
		for _, code := range r.provider.ListCodes(ctx, deviceID) {
			result.Checked++

			if r.cfg.Cleanup.OnlyManaged && code.Unmanaged() {
				continue
			}
			if r.cfg.Cleanup.OnlyTimeBound && !code.TimeBound() {
				continue
			}

			end, ok := schedule.ParseRemoteTime(code.EndsAt)
			if !ok {
				continue
			}
			if end.After(cutoff) {
				continue
			}

			if code.RemoteID == "" {
				continue
			}

			if dryRun {
				r.logger.Info(ctx, "DRY_RUN: would delete access code", map[string]interface{}{
					"access_code_id": code.RemoteID, "device_id": deviceID, "ends_at": code.EndsAt,
				})
				result.Deleted++
				continue
			}

			if err := r.provider.DeleteCode(ctx, code.RemoteID, deviceID); err == nil {
				result.Deleted++
			}
		}
	}

	if r.metrics != nil && !dryRun {
		r.metrics.RecordCodeDeleted(result.Deleted)
	}

	r.logger.Info(ctx, "Cleanup complete", map[string]interface{}{
		"checked": result.Checked, "deleted": result.Deleted, "dry_run": dryRun,
	})
	return result
}

func (r *Reconciler) mappedDevices() []string {
	seen := make(map[string]bool, len(r.cfg.Provisioning.PropertyLocks))
	var deviceIDs []string
	for _, deviceID := range r.cfg.Provisioning.PropertyLocks {
		if deviceID == "" || seen[deviceID] {
			continue
		}
		seen[deviceID] = true
		deviceIDs = append(deviceIDs, deviceID)
	}
	sort.Strings(deviceIDs)
	return deviceIDs
}
