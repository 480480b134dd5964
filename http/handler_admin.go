package http

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"fanclub/entity"
)

func (s *Server) AdminUpsertProduct(c echo.Context) error {
	var product entity.Product
	if err := c.Bind(&product); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := s.productsRepo.Upsert(c.Request().Context(), product); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) AdminUpsertContent(c echo.Context) error {
	var content entity.Content
	if err := c.Bind(&content); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := s.contentRepo.Upsert(c.Request().Context(), content); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) AdminUpsertSession(c echo.Context) error {
	var session entity.MeetGreetSession
	if err := c.Bind(&session); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := s.sessionsRepo.Upsert(c.Request().Context(), session); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// AdminUpsertUser sets a member's tier. This is also how tier changes
// from the membership billing system land in this service.
func (s *Server) AdminUpsertUser(c echo.Context) error {
	var user entity.User
	if err := c.Bind(&user); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := s.usersRepo.Upsert(c.Request().Context(), user); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) AdminListOrders(c echo.Context) error {
	orders, err := s.ordersRepo.FindAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orders)
}

func (s *Server) AdminListBookings(c echo.Context) error {
	bookings, err := s.bookingsRepo.FindAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, bookings)
}

// AdminCompleteBooking marks a meet-and-greet as done after the
// session took place. Applied asynchronously, like cancellation; the
// command handler decides against the current status.
func (s *Server) AdminCompleteBooking(c echo.Context) error {
	ctx := c.Request().Context()

	booking, err := s.bookingsRepo.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	err = s.commandBus.Send(ctx, entity.CompleteBooking{
		Header:    entity.NewEventHeader(),
		BookingID: booking.BookingID,
	})
	if err != nil {
		return fmt.Errorf("could not send CompleteBooking command: %w", err)
	}

	return c.NoContent(http.StatusAccepted)
}
