package domain

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationPaid      ReservationStatus = "paid"
	ReservationCancelled ReservationStatus = "cancelled"
)

// ReservationStatuses lists the taxonomy in display order.
var ReservationStatuses = []ReservationStatus{ReservationPending, ReservationPaid, ReservationCancelled}

// Valid reports whether s belongs to the reservation taxonomy.
func (s ReservationStatus) Valid() bool {
	for _, v := range ReservationStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// DefaultHotelName is shown in the editor; the remote API has no hotel field.
const DefaultHotelName = "Hôtel Rue Lucas"

// DateLayout is the calendar date format used by forms and the remote API.
const DateLayout = "2006-01-02"

// Reservation is a reservation as returned by the remote API.
type Reservation struct {
	ID            string            `json:"_id"`
	Code          string            `json:"code,omitempty"`
	Status        ReservationStatus `json:"status"`
	FirstName     string            `json:"firstName"`
	Surname       string            `json:"surname"`
	Email         string            `json:"email"`
	Phone         string            `json:"phone,omitempty"`
	Address       string            `json:"address,omitempty"`
	StartDate     string            `json:"startDate"`
	EndDate       string            `json:"endDate"`
	AmountTotal   float64           `json:"amountTotal"`
	PaymentMethod string            `json:"paymentMethod,omitempty"`
	CreatedAt     string            `json:"createdAt,omitempty"`
	UpdatedAt     string            `json:"updatedAt,omitempty"`
}

// FullName joins first name and surname for display.
func (r Reservation) FullName() string {
	return strings.TrimSpace(r.FirstName + " " + r.Surname)
}

// ReservationDraft is the editable form state of a reservation.
type ReservationDraft struct {
	CustomerName  string            `json:"customerName" form:"customerName" validate:"required,max=200"`
	CustomerEmail string            `json:"customerEmail" form:"customerEmail" validate:"required,email"`
	HotelName     string            `json:"hotelName" form:"hotelName" validate:"required,max=200"`
	CheckIn       string            `json:"checkIn" form:"checkIn" validate:"required,datetime=2006-01-02"`
	CheckOut      string            `json:"checkOut" form:"checkOut" validate:"required,datetime=2006-01-02"`
	Guests        int               `json:"guests" form:"guests" validate:"min=1,max=50"`
	TotalPrice    float64           `json:"totalPrice" form:"totalPrice" validate:"min=0"`
	Status        ReservationStatus `json:"status" form:"status" validate:"oneof=pending paid cancelled"`
}

// ReservationPayload is the JSON body of POST/PUT /reservations.
type ReservationPayload struct {
	FirstName   string            `json:"firstName"`
	Surname     string            `json:"surname"`
	Email       string            `json:"email"`
	StartDate   string            `json:"startDate"`
	EndDate     string            `json:"endDate"`
	AmountTotal float64           `json:"amountTotal"`
	Status      ReservationStatus `json:"status"`
}

// ReservationRepository is the remote collection of reservations.
type ReservationRepository interface {
	List(ctx context.Context, q Query, limit int) (PageResult[Reservation], error)
	Create(ctx context.Context, p ReservationPayload) error
	Update(ctx context.Context, id string, p ReservationPayload) error
	Delete(ctx context.Context, id string) error
}

// DefaultReservationDraft returns the blank draft used when creating.
func DefaultReservationDraft() ReservationDraft {
	return ReservationDraft{
		Guests: 1,
		Status: ReservationPending,
	}
}

// SeedReservationDraft builds a draft from an existing reservation.
// Guests and hotel are not stored remotely and get their defaults.
// A status outside the taxonomy is kept as is so that submitting the
// draft unchanged fails validation and the operator picks one.
func SeedReservationDraft(r Reservation) ReservationDraft {
	return ReservationDraft{
		CustomerName:  r.FullName(),
		CustomerEmail: r.Email,
		HotelName:     DefaultHotelName,
		CheckIn:       datePart(r.StartDate),
		CheckOut:      datePart(r.EndDate),
		Guests:        1,
		TotalPrice:    r.AmountTotal,
		Status:        r.Status,
	}
}

// Normalize trims free-text fields.
func (d ReservationDraft) Normalize() ReservationDraft {
	d.CustomerName = strings.TrimSpace(d.CustomerName)
	d.CustomerEmail = strings.TrimSpace(d.CustomerEmail)
	d.HotelName = strings.TrimSpace(d.HotelName)
	d.CheckIn = strings.TrimSpace(d.CheckIn)
	d.CheckOut = strings.TrimSpace(d.CheckOut)
	return d
}

// Payload converts the draft to the remote API body.
//
// The customer name is split on whitespace: the first token becomes the first
// name and the remaining tokens the surname. A first name made of several
// tokens ("Jean Pierre") therefore does not survive a seed/submit round trip.
func (d ReservationDraft) Payload() ReservationPayload {
	first, surname := SplitName(d.CustomerName)
	return ReservationPayload{
		FirstName:   first,
		Surname:     surname,
		Email:       d.CustomerEmail,
		StartDate:   d.CheckIn,
		EndDate:     d.CheckOut,
		AmountTotal: d.TotalPrice,
		Status:      d.Status,
	}
}

// SplitName splits a display name into first name and surname.
func SplitName(full string) (string, string) {
	fields := strings.Fields(full)
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return fields[0], ""
	default:
		return fields[0], strings.Join(fields[1:], " ")
	}
}

// datePart keeps the calendar date of an RFC3339 timestamp.
func datePart(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		return s[:i]
	}
	return s
}

func reservationDraftRules(sl validator.StructLevel) {
	d := sl.Current().Interface().(ReservationDraft)
	if math.IsInf(d.TotalPrice, 0) || math.IsNaN(d.TotalPrice) {
		sl.ReportError(d.TotalPrice, "totalPrice", "TotalPrice", "finite", "")
	}
	in, err := time.Parse(DateLayout, strings.TrimSpace(d.CheckIn))
	if err != nil {
		return
	}
	out, err := time.Parse(DateLayout, strings.TrimSpace(d.CheckOut))
	if err != nil {
		return
	}
	if !out.After(in) {
		sl.ReportError(d.CheckOut, "checkOut", "CheckOut", "after_checkin", "")
	}
}

// RegisterValidation installs the struct-level rules of the domain drafts.
func RegisterValidation(v *validator.Validate) {
	v.RegisterStructValidation(reservationDraftRules, ReservationDraft{})
}
