package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"fanclub/entity"
	"fanclub/gateway"
)

type postBookingRequest struct {
	SessionID       string `json:"session_id"`
	CustomerEmail   string `json:"customer_email"`
	SpecialRequests string `json:"special_requests"`
}

func (s *Server) GetSessions(c echo.Context) error {
	sessions, err := s.sessionsRepo.FindAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessions)
}

// PostBookings reserves a meet & greet slot. The session's price,
// schedule and type are snapshotted into the booking so later catalog
// edits don't change existing reservations.
func (s *Server) PostBookings(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := s.viewer(c)
	if err != nil {
		return err
	}

	var request postBookingRequest
	if err := c.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if request.SessionID == "" {
		return fmt.Errorf("%w: session_id is required", entity.ErrValidation)
	}

	session, err := s.sessionsRepo.Get(ctx, request.SessionID)
	if err != nil {
		return fmt.Errorf("could not load session %s: %w", request.SessionID, err)
	}

	if !user.Tier.CanAccess(session.RequiredTier) {
		return fmt.Errorf("%w: session %s requires %s tier", entity.ErrForbidden, session.SessionID, session.RequiredTier)
	}

	email := user.Email
	if email == "" {
		email = request.CustomerEmail
	}

	booking := entity.Booking{
		BookingID:       uuid.NewString(),
		UserID:          user.UserID,
		SessionID:       session.SessionID,
		SessionType:     session.SessionType,
		Status:          entity.BookingStatusPending,
		ScheduledAt:     session.ScheduledAt,
		DurationMinutes: session.DurationMinutes,
		PriceCents:      session.PriceCents,
		Currency:        session.Currency,
		CustomerEmail:   email,
		SpecialRequests: request.SpecialRequests,
		CreatedAt:       time.Now().UTC(),
	}
	if err := booking.Validate(); err != nil {
		return err
	}

	checkoutSession, err := s.paymentClient.CreateCheckoutSession(ctx, gateway.CreateCheckoutSessionRequest{
		Amount:     booking.Price(),
		SuccessURL: s.publicURL + "/bookings/" + booking.BookingID,
		CancelURL:  s.publicURL + "/sessions",
		Reference: gateway.CheckoutReference{
			Kind:     "booking",
			RecordID: booking.BookingID,
			UserID:   user.UserID,
		},
	})
	if err != nil {
		return err
	}

	booking.CheckoutSessionID = checkoutSession.ID
	if err := s.bookingsRepo.Store(ctx, booking); err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, checkoutResponse{
		ID:          booking.BookingID,
		CheckoutURL: checkoutSession.RedirectURL,
	})
}

func (s *Server) GetBooking(c echo.Context) error {
	user, err := s.viewer(c)
	if err != nil {
		return err
	}

	booking, err := s.bookingsRepo.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if booking.UserID != user.UserID && !user.Tier.IsAdmin() {
		return echo.NewHTTPError(http.StatusNotFound, "booking not found")
	}

	return c.JSON(http.StatusOK, booking)
}

func (s *Server) CancelBooking(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := s.viewer(c)
	if err != nil {
		return err
	}

	booking, err := s.bookingsRepo.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	if booking.UserID != user.UserID && !user.Tier.IsAdmin() {
		return echo.NewHTTPError(http.StatusNotFound, "booking not found")
	}

	err = s.commandBus.Send(ctx, entity.CancelBooking{
		Header:    entity.NewEventHeader(),
		BookingID: booking.BookingID,
	})
	if err != nil {
		return fmt.Errorf("could not send CancelBooking command: %w", err)
	}

	return c.NoContent(http.StatusAccepted)
}
