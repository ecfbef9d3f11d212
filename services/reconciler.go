package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lodgekey/lodgekey/config"
	"github.com/lodgekey/lodgekey/models"
	"github.com/lodgekey/lodgekey/monitoring"
	"github.com/lodgekey/lodgekey/providers"
	"github.com/lodgekey/lodgekey/schedule"
	"github.com/lodgekey/lodgekey/stores"
	"github.com/lodgekey/lodgekey/utils"
)

// Reconciler drives a booking event to its required lock-service state:
// create, replace, leave alone, or delete. Processing is synchronous
// and single-event; correctness under re-delivery comes from the
// idempotency record plus duplicate classification, not locking.
type Reconciler struct {
	cfg      *config.Config
	provider providers.LockProvider
	store    stores.RecordStore
	notifier Notifier
	metrics  *monitoring.Metrics
	logger   *utils.Logger
	nameToID map[string]string
	checkin  schedule.Clock
	checkout schedule.Clock
	clock    func() time.Time
}

func NewReconciler(cfg *config.Config, provider providers.LockProvider, store stores.RecordStore, notifier Notifier, metrics *monitoring.Metrics) *Reconciler {
	return &Reconciler{
		cfg:      cfg,
		provider: provider,
		store:    store,
		notifier: notifier,
		metrics:  metrics,
		logger:   utils.NewLogger("reconciler"),
		nameToID: cfg.Provisioning.NameToID(),
		checkin:  schedule.ParseClock(cfg.Provisioning.CheckinTime, schedule.Clock{Hour: 12, Minute: 30}),
		checkout: schedule.ParseClock(cfg.Provisioning.CheckoutTime, schedule.Clock{Hour: 13, Minute: 0}),
		clock:    time.Now,
	}
}

// HandleEvent routes one inbound booking event. Cancellation intent
// wins over status; non-actionable statuses are skipped, not rejected.
func (r *Reconciler) HandleEvent(ctx context.Context, env *models.EventEnvelope) models.EventResult {
	booking := models.NormalizeBooking(env, r.nameToID)

	r.logger.Info(ctx, "Event received", map[string]interface{}{
		"action":     booking.Action,
		"booking_id": booking.ID,
		"status":     booking.Status,
		"phone":      utils.MaskPhone(booking.GuestPhone),
	})

	if env.IsCancelMode() ||
		r.cfg.Provisioning.IsCancelledStatus(booking.Status) ||
		r.cfg.Provisioning.IsCancelAction(booking.Action) {
		return r.count(r.Cancel(ctx, booking))
	}

	if !isConfirmed(booking.Status) {
		r.logger.Info(ctx, "Skipping non-confirmed booking", map[string]interface{}{
			"booking_id": booking.ID, "status": booking.Status,
		})
		return models.Accepted("Skipped non-confirmed booking")
	}

	return r.count(r.Provision(ctx, booking))
}

func isConfirmed(status string) bool {
	return status == "booked" || status == "confirmed"
}

func (r *Reconciler) count(result models.EventResult) models.EventResult {
	if r.metrics != nil {
		r.metrics.RecordEvent(string(result.Status))
	}
	return result
}

// Provision converges a confirmed booking onto its desired access code.
func (r *Reconciler) Provision(ctx context.Context, booking models.Booking) models.EventResult {
	if booking.PropertyID == "" {
		return models.Rejected(utils.ErrMissingPropertyID.Error())
	}
	deviceID := r.cfg.Provisioning.PropertyLocks[booking.PropertyID]
	if deviceID == "" {
		return models.Rejected(utils.ErrNoLockMapping.Error())
	}

	code, source, ok := models.DeriveCode(booking.GuestPhone, booking.ID)
	if !ok {
		return models.Rejected(utils.ErrNoDerivableCode.Error())
	}
	fallbackCode, _, _ := models.DeriveCode("", booking.ID)

	window, result := r.buildWindow(booking)
	if result != nil {
		return *result
	}

	desired := &models.AccessCode{
		Code:     code,
		DeviceID: deviceID,
		Window:   window,
		Source:   source,
	}

	record := r.getRecord(ctx, booking.ID)
	state, action := NextTransition(record, desired, r.cfg.Provisioning.Tolerance())

	if action == ActionNone {
		r.logger.Info(ctx, "Idempotent hit; no update needed", map[string]interface{}{
			"booking_id": booking.ID,
		})
		return models.Accepted("Access code already up to date")
	}

	if action == ActionReplace {
		r.logger.Info(ctx, "Booking change detected; replacing code", map[string]interface{}{
			"booking_id": booking.ID, "state": state.String(),
		})
		// best effort: a failed delete must not block re-provisioning
		r.deleteRecordedCode(ctx, record, deviceID)
	}

	r.logger.Info(ctx, "Creating access code", map[string]interface{}{
		"booking_id":  booking.ID,
		"property_id": booking.PropertyID,
		"guest":       booking.GuestName,
		"phone":       utils.MaskPhone(booking.GuestPhone),
		"code":        code,
		"source":      string(source),
		"checkin":     window.Start.Format(time.RFC3339),
		"checkout":    window.End.Format(time.RFC3339),
	})

	creation := r.createWithFallback(ctx, booking, desired, fallbackCode)
	if !creation.ok {
		return models.RemoteFailure(creation.message)
	}

	r.putRecord(ctx, r.buildRecord(booking, deviceID, creation))
	if r.metrics != nil {
		r.metrics.RecordCodeCreated()
	}

	if creation.isDuplicate {
		r.logger.Info(ctx, "Access code already exists; skipping notification", map[string]interface{}{
			"booking_id": booking.ID,
		})
		return models.Accepted("Access code already exists")
	}

	r.notifyGuest(ctx, booking, creation.code, window)
	return models.Accepted("Access code created successfully")
}

func (r *Reconciler) buildWindow(booking models.Booking) (schedule.Window, *models.EventResult) {
	if booking.ArrivalRaw == "" || booking.DepartureRaw == "" {
		result := models.Rejected(utils.ErrMissingDates.Error())
		return schedule.Window{}, &result
	}

	loc, err := r.cfg.Provisioning.LocationFor(booking.PropertyID)
	if err != nil {
		result := models.Rejected(fmt.Sprintf("Invalid timezone for property %s.", booking.PropertyID))
		return schedule.Window{}, &result
	}

	window, err := schedule.BuildWindow(booking.ArrivalRaw, booking.DepartureRaw, loc, r.checkin, r.checkout)
	if errors.Is(err, schedule.ErrInvalidWindow) {
		result := models.Rejected(utils.ErrInvalidWindow.Error())
		return schedule.Window{}, &result
	}
	if err != nil {
		result := models.Rejected(utils.ErrInvalidDateFormat.Error())
		return schedule.Window{}, &result
	}
	return window, nil
}

type creationOutcome struct {
	ok          bool
	remoteID    string
	code        string
	source      models.CodeSource
	isDuplicate bool
	message     string
}

// createWithFallback issues the create call and resolves duplicate
// collisions: first by searching for an equivalent existing code, then
// with a single attempt on the booking-id-derived fallback code.
func (r *Reconciler) createWithFallback(ctx context.Context, booking models.Booking, desired *models.AccessCode, fallbackCode string) creationOutcome {
	tolerance := r.cfg.Provisioning.Tolerance()
	req := r.createRequest(booking, desired)

	outcome := r.provider.CreateCode(ctx, req)
	switch outcome.Result {
	case providers.CreateSuccess:
		return creationOutcome{ok: true, remoteID: outcome.RemoteID, code: desired.Code, source: desired.Source}
	case providers.CreateError:
		return creationOutcome{message: outcome.Message}
	}

	if match, found := r.provider.FindMatching(ctx, desired.DeviceID, desired.Code, desired.Window, tolerance); found {
		return creationOutcome{ok: true, remoteID: match.RemoteID, code: desired.Code, source: models.SourceExisting, isDuplicate: true}
	}

	if fallbackCode == "" || fallbackCode == desired.Code {
		r.logger.Error(ctx, "Duplicate access code collision", map[string]interface{}{
			"code": desired.Code, "status": outcome.StatusCode, "body": outcome.Message,
		})
		return creationOutcome{message: outcome.Message}
	}

	fallbackReq := r.createRequest(booking, desired)
	fallbackReq.Code = fallbackCode

	retry := r.provider.CreateCode(ctx, fallbackReq)
	switch retry.Result {
	case providers.CreateSuccess:
		return creationOutcome{ok: true, remoteID: retry.RemoteID, code: fallbackCode, source: models.SourceBookingIDFallback}
	case providers.CreateDuplicate:
		if match, found := r.provider.FindMatching(ctx, desired.DeviceID, fallbackCode, desired.Window, tolerance); found {
			return creationOutcome{ok: true, remoteID: match.RemoteID, code: fallbackCode, source: models.SourceFallbackExisting, isDuplicate: true}
		}
	}

	r.logger.Error(ctx, "Duplicate access code collision for fallback code", map[string]interface{}{
		"code": fallbackCode, "status": retry.StatusCode, "body": retry.Message,
	})
	return creationOutcome{message: retry.Message}
}

func (r *Reconciler) createRequest(booking models.Booking, desired *models.AccessCode) *models.CreateCodeRequest {
	name := booking.GuestName
	if len(name) > 20 {
		name = name[:20]
	}
	return &models.CreateCodeRequest{
		DeviceID: desired.DeviceID,
		Code:     desired.Code,
		Name:     name,
		StartsAt: desired.Window.Start.Format(time.RFC3339),
		EndsAt:   desired.Window.End.Format(time.RFC3339),
	}
}

// deleteRecordedCode removes the code a stale record points at, by its
// stored remote id when present, else by tolerance search on the old
// window. Failures are logged only.
func (r *Reconciler) deleteRecordedCode(ctx context.Context, record *models.CodeRecord, deviceID string) {
	if record == nil {
		return
	}

	if record.RemoteID != "" {
		if err := r.provider.DeleteCode(ctx, record.RemoteID, deviceID); err != nil {
			r.logger.Warn(ctx, "Failed to delete previous access code", map[string]interface{}{
				"booking_id": record.BookingID, "access_code_id": record.RemoteID, "error": err.Error(),
			})
		}
		return
	}

	start, okStart := schedule.ParseRemoteTime(record.StartsAt)
	end, okEnd := schedule.ParseRemoteTime(record.EndsAt)
	if !okStart || !okEnd {
		return
	}

	oldWindow := schedule.Window{Start: start, End: end}
	match, found := r.provider.FindMatching(ctx, deviceID, record.Code, oldWindow, r.cfg.Provisioning.Tolerance())
	if !found || match.RemoteID == "" {
		return
	}
	if err := r.provider.DeleteCode(ctx, match.RemoteID, deviceID); err != nil {
		r.logger.Warn(ctx, "Failed to delete previous access code", map[string]interface{}{
			"booking_id": record.BookingID, "access_code_id": match.RemoteID, "error": err.Error(),
		})
	}
}

func (r *Reconciler) buildRecord(booking models.Booking, deviceID string, creation creationOutcome) *models.CodeRecord {
	record := &models.CodeRecord{
		BookingID:  booking.ID,
		PropertyID: booking.PropertyID,
		DeviceID:   deviceID,
		RemoteID:   creation.remoteID,
		Code:       creation.code,
		GuestName:  booking.GuestName,
		CodeSource: string(creation.source),
		UpdatedAt:  r.clock().UTC(),
	}

	window, result := r.buildWindow(booking)
	if result == nil {
		record.StartsAt = window.Start.Format(time.RFC3339)
		record.EndsAt = window.End.Format(time.RFC3339)
		if days := r.cfg.Idempotency.TTLDays; days > 0 {
			expiry := window.End.Add(time.Duration(days) * 24 * time.Hour)
			record.ExpiresAt = &expiry
		}
	}

	return record
}

// Cancel removes whatever code a cancelled booking still has live.
func (r *Reconciler) Cancel(ctx context.Context, booking models.Booking) models.EventResult {
	if booking.PropertyID == "" {
		return models.Rejected(utils.ErrMissingPropertyID.Error())
	}
	deviceID := r.cfg.Provisioning.PropertyLocks[booking.PropertyID]
	if deviceID == "" {
		return models.Rejected(utils.ErrNoLockMapping.Error())
	}

	// Fast path: the record remembers the remote id. A delete that the
	// service reports as already-gone still counts as success here. A
	// record without a remote id gets no path of its own; the code
	// search below covers it.
	if record := r.getRecord(ctx, booking.ID); record != nil && record.RemoteID != "" {
		recordDevice := record.DeviceID
		if recordDevice == "" {
			recordDevice = deviceID
		}
		if err := r.provider.DeleteCode(ctx, record.RemoteID, recordDevice); err == nil {
			r.deleteRecord(ctx, booking.ID)
			if r.metrics != nil {
				r.metrics.RecordCodeDeleted(1)
			}
			return models.Accepted("Deleted access code from idempotency record")
		}
		// stale remote id; fall through to the search path
	}

	code, source, ok := models.DeriveCode(booking.GuestPhone, booking.ID)
	if !ok {
		return models.Rejected("Missing phone and booking id.")
	}

	window, result := r.buildWindow(booking)
	if result != nil {
		return *result
	}

	r.logger.Info(ctx, "Cancel delete", map[string]interface{}{
		"booking_id":  booking.ID,
		"property_id": booking.PropertyID,
		"device_id":   deviceID,
		"code":        code,
		"source":      string(source),
		"phone":       utils.MaskPhone(booking.GuestPhone),
	})

	codes := r.provider.ListCodes(ctx, deviceID)
	matches := r.matchForCancellation(ctx, codes, code, window)

	if len(matches) == 0 {
		r.logger.Info(ctx, "No matching access code found", map[string]interface{}{
			"booking_id": booking.ID,
		})
		return models.Accepted("No matching access code found")
	}

	deleted := 0
	for _, match := range matches {
		if match.RemoteID == "" {
			continue
		}
		if err := r.provider.DeleteCode(ctx, match.RemoteID, deviceID); err == nil {
			deleted++
		}
	}

	if deleted > 0 {
		r.deleteRecord(ctx, booking.ID)
		if r.metrics != nil {
			r.metrics.RecordCodeDeleted(deleted)
		}
	}

	return models.Accepted(fmt.Sprintf("Deleted %d access code(s)", deleted))
}

// matchForCancellation filters device codes down to the cancelled
// booking's: same digits, the configured managed/type filters, end time
// within tolerance of check-out, and, when the entry reports one, start
// time within tolerance of check-in. With no window match the code-only
// escape hatch (when enabled) matches on digits and filters alone.
func (r *Reconciler) matchForCancellation(ctx context.Context, codes []models.RemoteCode, code string, window schedule.Window) []models.RemoteCode {
	tolerance := r.cfg.Provisioning.Tolerance()
	var matches []models.RemoteCode

	for _, entry := range codes {
		if !r.passesCodeFilters(entry, code) {
			continue
		}

		end, ok := schedule.ParseRemoteTime(entry.EndsAt)
		if !ok {
			continue
		}
		if !schedule.WithinTolerance(end, window.End, tolerance) {
			continue
		}

		if start, ok := schedule.ParseRemoteTime(entry.StartsAt); ok {
			if !schedule.WithinTolerance(start, window.Start, tolerance) {
				continue
			}
		}

		matches = append(matches, entry)
	}

	if len(matches) > 0 {
		return matches
	}

	if r.cfg.Cleanup.AllowCodeOnlyMatch {
		for _, entry := range codes {
			if r.passesCodeFilters(entry, code) {
				matches = append(matches, entry)
			}
		}
		if len(matches) > 0 {
			// can hit an unrelated booking's identical digits on a shared device
			r.logger.Warn(ctx, "Code-only match fallback engaged", map[string]interface{}{
				"code": code, "matches": len(matches),
			})
		}
	}

	return matches
}

func (r *Reconciler) passesCodeFilters(entry models.RemoteCode, code string) bool {
	if entry.Code != code {
		return false
	}
	if r.cfg.Cleanup.OnlyManaged && entry.Unmanaged() {
		return false
	}
	if r.cfg.Cleanup.OnlyTimeBound && !entry.TimeBound() {
		return false
	}
	return true
}

func (r *Reconciler) notifyGuest(ctx context.Context, booking models.Booking, code string, window schedule.Window) {
	if r.notifier == nil {
		return
	}

	propertyName := r.cfg.Provisioning.DisplayName(booking.PropertyID, booking.PropertyName)
	recipient := booking.GuestPhone
	if recipient == "" {
		recipient = booking.GuestName
	}

	notification := models.Notification{
		Recipient: recipient,
		Subject:   fmt.Sprintf("Your Access Code for %s", propertyName),
		Body: fmt.Sprintf(
			"Hello %s,\n\nYour access code for %s is ready.\n\nAccess Code: %s\nCheck-in: %s\nCheck-out: %s\n\nPlease save this information for your stay.\n",
			booking.GuestName,
			propertyName,
			code,
			window.Start.Format("2006-01-02 03:04 PM MST"),
			window.End.Format("2006-01-02 03:04 PM MST"),
		),
	}

	if err := r.notifier.Notify(ctx, notification); err != nil {
		r.logger.Error(ctx, "Notification delivery failed", map[string]interface{}{
			"booking_id": booking.ID, "error": err.Error(),
		})
	}
}

// Store access is best-effort throughout: a failing store degrades the
// engine to "state unknown" instead of blocking the event.

func (r *Reconciler) getRecord(ctx context.Context, bookingID string) *models.CodeRecord {
	if r.store == nil || bookingID == "" {
		return nil
	}
	record, err := r.store.Get(ctx, bookingID)
	if err != nil {
		r.logger.Error(ctx, "Failed to read idempotency record", map[string]interface{}{
			"booking_id": bookingID, "error": err.Error(),
		})
		return nil
	}
	return record
}

func (r *Reconciler) putRecord(ctx context.Context, record *models.CodeRecord) {
	if r.store == nil || record == nil || record.BookingID == "" {
		return
	}
	if err := r.store.Put(ctx, record); err != nil {
		r.logger.Error(ctx, "Failed to write idempotency record", map[string]interface{}{
			"booking_id": record.BookingID, "error": err.Error(),
		})
	}
}

func (r *Reconciler) deleteRecord(ctx context.Context, bookingID string) {
	if r.store == nil || bookingID == "" {
		return
	}
	if err := r.store.Delete(ctx, bookingID); err != nil {
		r.logger.Error(ctx, "Failed to delete idempotency record", map[string]interface{}{
			"booking_id": bookingID, "error": err.Error(),
		})
	}
}
