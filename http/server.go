package http

import (
	"context"
	"errors"
	"net/http"

	echoHTTP "github.com/ThreeDotsLabs/go-event-driven/common/http"
	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"fanclub/entity"
	"fanclub/gateway"
)

type OrdersRepository interface {
	Store(ctx context.Context, order entity.Order) error
	Get(ctx context.Context, orderID string) (entity.Order, error)
	FindAll(ctx context.Context) ([]entity.Order, error)
	MarkCompletedByCheckoutSession(ctx context.Context, checkoutSessionID string) (entity.Order, bool, error)
	MarkFailedByCheckoutSession(ctx context.Context, checkoutSessionID string) (entity.Order, bool, error)
}

type BookingsRepository interface {
	Store(ctx context.Context, booking entity.Booking) error
	Get(ctx context.Context, bookingID string) (entity.Booking, error)
	FindAll(ctx context.Context) ([]entity.Booking, error)
	ConfirmByCheckoutSession(ctx context.Context, checkoutSessionID string) (entity.Booking, bool, error)
	FailByCheckoutSession(ctx context.Context, checkoutSessionID string) (entity.Booking, bool, error)
}

type ProductsRepository interface {
	Upsert(ctx context.Context, product entity.Product) error
	Get(ctx context.Context, productID string) (entity.Product, error)
	FindAll(ctx context.Context) ([]entity.Product, error)
}

type SessionsRepository interface {
	Upsert(ctx context.Context, session entity.MeetGreetSession) error
	Get(ctx context.Context, sessionID string) (entity.MeetGreetSession, error)
	FindAll(ctx context.Context) ([]entity.MeetGreetSession, error)
}

type ContentRepository interface {
	Upsert(ctx context.Context, content entity.Content) error
	Get(ctx context.Context, contentID string) (entity.Content, error)
	FindAll(ctx context.Context) ([]entity.Content, error)
}

type UsersRepository interface {
	Upsert(ctx context.Context, user entity.User) error
	Get(ctx context.Context, userID string) (entity.User, error)
}

type PaymentService interface {
	CreateCheckoutSession(ctx context.Context, request gateway.CreateCheckoutSessionRequest) (gateway.CheckoutSession, error)
}

type Server struct {
	addr          string
	e             *echo.Echo
	commandBus    *cqrs.CommandBus
	paymentClient PaymentService
	webhookSecret string
	publicURL     string

	ordersRepo   OrdersRepository
	bookingsRepo BookingsRepository
	productsRepo ProductsRepository
	sessionsRepo SessionsRepository
	contentRepo  ContentRepository
	usersRepo    UsersRepository
}

func NewServer(
	addr string,
	commandBus *cqrs.CommandBus,
	paymentClient PaymentService,
	webhookSecret string,
	publicURL string,
	ordersRepo OrdersRepository,
	bookingsRepo BookingsRepository,
	productsRepo ProductsRepository,
	sessionsRepo SessionsRepository,
	contentRepo ContentRepository,
	usersRepo UsersRepository,
) *Server {
	e := echoHTTP.NewEcho()
	e.Use(otelecho.Middleware("fanclub"))
	e.HTTPErrorHandler = httpErrorHandler(e)

	server := &Server{
		addr:          addr,
		e:             e,
		commandBus:    commandBus,
		paymentClient: paymentClient,
		webhookSecret: webhookSecret,
		publicURL:     publicURL,
		ordersRepo:    ordersRepo,
		bookingsRepo:  bookingsRepo,
		productsRepo:  productsRepo,
		sessionsRepo:  sessionsRepo,
		contentRepo:   contentRepo,
		usersRepo:     usersRepo,
	}

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.GET("/content", server.GetContent)
	e.GET("/content/:id", server.GetContentItem)

	e.GET("/products", server.GetProducts)
	e.POST("/orders", server.PostOrders)
	e.GET("/orders/:id", server.GetOrder)
	e.PUT("/orders/:id/cancel", server.CancelOrder)

	e.GET("/sessions", server.GetSessions)
	e.POST("/bookings", server.PostBookings)
	e.GET("/bookings/:id", server.GetBooking)
	e.PUT("/bookings/:id/cancel", server.CancelBooking)

	e.POST("/webhooks/payment", server.PostPaymentWebhook)

	admin := e.Group("/admin", server.requireAdmin)
	admin.POST("/products", server.AdminUpsertProduct)
	admin.POST("/content", server.AdminUpsertContent)
	admin.POST("/sessions", server.AdminUpsertSession)
	admin.POST("/users", server.AdminUpsertUser)
	admin.GET("/orders", server.AdminListOrders)
	admin.GET("/bookings", server.AdminListBookings)
	admin.PUT("/bookings/:id/complete", server.AdminCompleteBooking)

	return server
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.e.ServeHTTP(w, r)
}

func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		err := s.e.Shutdown(ctx)
		if err != nil {
			log.FromContext(ctx).WithError(err).Error("failed to shutdown HTTP server")
		}
	}()
	log.FromContext(ctx).WithField("addr", s.addr).Info("[HTTP] server listening")
	if err := s.e.Start(s.addr); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// httpErrorHandler maps domain error kinds onto status codes so that
// handlers can return wrapped entity errors directly.
func httpErrorHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		switch {
		case errors.Is(err, entity.ErrValidation), errors.Is(err, entity.ErrInsufficientStock):
			err = echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, entity.ErrForbidden):
			err = echo.NewHTTPError(http.StatusForbidden, err.Error())
		case errors.Is(err, entity.ErrNotFound):
			err = echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, entity.ErrConflict):
			err = echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, entity.ErrUpstream):
			err = echo.NewHTTPError(http.StatusBadGateway, err.Error())
		}

		e.DefaultHTTPErrorHandler(err, c)
	}
}

// viewer resolves the calling user. Authentication itself is delegated
// to the hosted auth provider fronting this service; the verified user
// id arrives in a header.
func (s *Server) viewer(c echo.Context) (entity.User, error) {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return entity.User{}, echo.NewHTTPError(http.StatusUnauthorized, "missing X-User-ID header")
	}

	user, err := s.usersRepo.Get(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			// unknown viewers are treated as free tier, not rejected
			return entity.User{UserID: userID, Tier: entity.TierFree}, nil
		}
		return entity.User{}, err
	}

	return user, nil
}

func (s *Server) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := s.viewer(c)
		if err != nil {
			return err
		}

		if !user.Tier.IsAdmin() {
			return echo.NewHTTPError(http.StatusForbidden, "admin tier required")
		}

		return next(c)
	}
}
