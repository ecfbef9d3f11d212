package models

import (
	"encoding/json"
	"strings"

	"github.com/lodgekey/lodgekey/utils"
)

// FlexString tolerates booking platforms that send ids as either JSON
// strings or numbers.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = FlexString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*s = FlexString(num.String())
	return nil
}

func (s FlexString) String() string {
	return string(s)
}

// GuestPayload is the nested guest object of an inbound event.
type GuestPayload struct {
	Name         string `json:"name"`
	FirstName    string `json:"first_name"`
	FirstNameAlt string `json:"firstName"`
	LastName     string `json:"last_name"`
	LastNameAlt  string `json:"lastName"`
	PhoneNumber  string `json:"phone_number"`
	Phone        string `json:"phone"`
}

// BookingPayload is the nested booking/reservation object of an inbound
// event, with every alias key the platforms are known to send.
type BookingPayload struct {
	ID            FlexString `json:"id"`
	PropertyID    FlexString `json:"property_id"`
	PropertyIDAlt FlexString `json:"propertyId"`
	Property      *struct {
		ID FlexString `json:"id"`
	} `json:"property"`
	PropertyName    string        `json:"property_name"`
	PropertyNameAlt string        `json:"propertyName"`
	GuestName       string        `json:"guest_name"`
	GuestPhone      string        `json:"guest_phone"`
	PhoneNumber     string        `json:"phone_number"`
	Status          string        `json:"status"`
	Source          string        `json:"source"`
	DateArrival     string        `json:"date_arrival"`
	ArrivalDate     string        `json:"arrival_date"`
	CheckIn         string        `json:"check_in"`
	CheckinAlt      string        `json:"checkin"`
	DateDeparture   string        `json:"date_departure"`
	DepartureDate   string        `json:"departure_date"`
	CheckOut        string        `json:"check_out"`
	CheckoutAlt     string        `json:"checkout"`
	Guest           *GuestPayload `json:"guest"`
}

// EventEnvelope is one inbound webhook object as delivered. It is
// resolved into a Booking exactly once at the boundary; nothing past
// the normalizer probes these alias fields.
type EventEnvelope struct {
	Mode            string          `json:"mode"`
	Source          string          `json:"source"`
	Action          string          `json:"action"`
	Event           string          `json:"event"`
	Status          string          `json:"status"`
	BookingID       FlexString      `json:"booking_id"`
	ID              FlexString      `json:"id"`
	PropertyID      FlexString      `json:"property_id"`
	PropertyIDAlt   FlexString      `json:"propertyId"`
	PropertyName    string          `json:"property_name"`
	PropertyNameAlt string          `json:"propertyName"`
	GuestPhone      string          `json:"guest_phone"`
	PhoneNumber     string          `json:"phone_number"`
	DateArrival     string          `json:"date_arrival"`
	ArrivalDate     string          `json:"arrival_date"`
	DateDeparture   string          `json:"date_departure"`
	DepartureDate   string          `json:"departure_date"`
	Booking         *BookingPayload `json:"booking"`
	Reservation     *BookingPayload `json:"reservation"`
	Guest           *GuestPayload   `json:"guest"`
}

// IsCleanupTrigger reports whether this envelope asks for the expired-
// code sweep instead of describing a booking: either an explicit
// cleanup mode or the scheduler's source marker.
func (e *EventEnvelope) IsCleanupTrigger(schedulerSource string) bool {
	if strings.EqualFold(strings.TrimSpace(e.Mode), "cleanup") {
		return true
	}
	return schedulerSource != "" && e.Source == schedulerSource
}

// IsCancelMode reports an explicit cancellation routing request.
func (e *EventEnvelope) IsCancelMode() bool {
	return strings.EqualFold(strings.TrimSpace(e.Mode), "cancel")
}

// Booking is the canonical, fixed-shape record built from an inbound
// event. Immutable once normalized; constructed fresh per event.
type Booking struct {
	ID           string
	PropertyID   string
	PropertyName string
	GuestName    string
	GuestPhone   string
	ArrivalRaw   string
	DepartureRaw string
	Status       string
	Action       string
	Source       string
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// NormalizeBooking maps an event envelope onto a Booking using one
// ordered precedence list per attribute. nameToID resolves a property
// display name (lowercased, trimmed) when no id field is present.
func NormalizeBooking(env *EventEnvelope, nameToID map[string]string) Booking {
	booking := env.Booking
	if booking == nil {
		booking = env.Reservation
	}
	if booking == nil {
		booking = &BookingPayload{}
	}

	guest := env.Guest
	if guest == nil {
		guest = booking.Guest
	}
	if guest == nil {
		guest = &GuestPayload{}
	}

	b := Booking{
		ID: firstNonEmpty(booking.ID.String(), env.BookingID.String(), env.ID.String()),
		PropertyID: strings.TrimSpace(firstNonEmpty(
			booking.PropertyID.String(),
			booking.PropertyIDAlt.String(),
			propertyNestedID(booking),
			env.PropertyID.String(),
			env.PropertyIDAlt.String(),
		)),
		PropertyName: firstNonEmpty(
			booking.PropertyName,
			booking.PropertyNameAlt,
			env.PropertyName,
			env.PropertyNameAlt,
		),
		GuestName: resolveGuestName(guest, booking),
		GuestPhone: firstNonEmpty(
			guest.PhoneNumber,
			guest.Phone,
			booking.GuestPhone,
			booking.PhoneNumber,
			env.GuestPhone,
			env.PhoneNumber,
		),
		Status: strings.ToLower(strings.TrimSpace(firstNonEmpty(booking.Status, env.Status))),
		Action: strings.ToLower(strings.TrimSpace(firstNonEmpty(env.Action, env.Event))),
		Source: strings.ToLower(strings.TrimSpace(booking.Source)),
	}

	b.ArrivalRaw = firstNonEmpty(
		booking.DateArrival,
		booking.ArrivalDate,
		booking.CheckIn,
		booking.CheckinAlt,
		env.DateArrival,
		env.ArrivalDate,
	)
	b.DepartureRaw = firstNonEmpty(
		booking.DateDeparture,
		booking.DepartureDate,
		booking.CheckOut,
		booking.CheckoutAlt,
		env.DateDeparture,
		env.DepartureDate,
	)

	// The reservation object is a last resort for dates even when the
	// booking object supplied everything else.
	if (b.ArrivalRaw == "" || b.DepartureRaw == "") && env.Reservation != nil {
		b.ArrivalRaw = firstNonEmpty(b.ArrivalRaw, env.Reservation.DateArrival)
		b.DepartureRaw = firstNonEmpty(b.DepartureRaw, env.Reservation.DateDeparture)
	}

	if b.PropertyID == "" && nameToID != nil {
		name := strings.ToLower(strings.TrimSpace(firstNonEmpty(
			booking.PropertyName,
			booking.PropertyNameAlt,
			env.PropertyName,
			env.PropertyNameAlt,
		)))
		if name != "" {
			b.PropertyID = nameToID[name]
		}
	}

	return b
}

func propertyNestedID(booking *BookingPayload) string {
	if booking.Property == nil {
		return ""
	}
	return booking.Property.ID.String()
}

func resolveGuestName(guest *GuestPayload, booking *BookingPayload) string {
	if name := strings.TrimSpace(guest.Name); name != "" {
		return name
	}
	first := firstNonEmpty(guest.FirstName, guest.FirstNameAlt)
	last := firstNonEmpty(guest.LastName, guest.LastNameAlt)
	combined := strings.TrimSpace(strings.Join(nonEmpty(first, last), " "))
	if combined != "" {
		return combined
	}
	if name := strings.TrimSpace(booking.GuestName); name != "" {
		return name
	}
	return "Guest"
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// DeriveCode computes the door code for a booking: the last four phone
// digits when available, else the last four booking-id digits left-
// padded to four. ok is false when neither source yields a digit; such
// bookings can never be provisioned.
func DeriveCode(guestPhone, bookingID string) (code string, source CodeSource, ok bool) {
	if last := utils.LastFourDigits(guestPhone); last != "" {
		return last, SourcePhone, true
	}

	digits := utils.DigitsOnly(bookingID)
	if digits == "" {
		return "", "", false
	}
	if len(digits) > 4 {
		digits = digits[len(digits)-4:]
	}
	for len(digits) < 4 {
		digits = "0" + digits
	}
	return digits, SourceBookingID, true
}
