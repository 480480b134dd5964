package entity

type CancelOrder struct {
	Header  EventHeader `json:"header"`
	OrderID string      `json:"order_id"`
}

type CancelBooking struct {
	Header    EventHeader `json:"header"`
	BookingID string      `json:"booking_id"`
}

type CompleteBooking struct {
	Header    EventHeader `json:"header"`
	BookingID string      `json:"booking_id"`
}
