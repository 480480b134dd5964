package http

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"fanclub/entity"
	"fanclub/gateway"
)

type cartItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type postOrderRequest struct {
	Items []cartItem `json:"items"`
}

type checkoutResponse struct {
	ID          string `json:"id"`
	CheckoutURL string `json:"checkout_url"`
}

func (s *Server) GetProducts(c echo.Context) error {
	products, err := s.productsRepo.FindAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, products)
}

// PostOrders places a merchandise order. The cart carries product ids
// and quantities only; prices are re-read from the catalog so a stale
// or tampered client cannot set them.
func (s *Server) PostOrders(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := s.viewer(c)
	if err != nil {
		return err
	}

	var request postOrderRequest
	if err := c.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(request.Items) == 0 {
		return fmt.Errorf("%w: order must have at least one item", entity.ErrValidation)
	}

	items := make([]entity.OrderItem, 0, len(request.Items))
	for _, cartItem := range request.Items {
		product, err := s.productsRepo.Get(ctx, cartItem.ProductID)
		if err != nil {
			return fmt.Errorf("could not load product %s: %w", cartItem.ProductID, err)
		}

		// checked again by the conditional decrement in Store; checking
		// here avoids creating a checkout session that can never be paid
		if product.Stock < cartItem.Quantity {
			return fmt.Errorf("%w: product %s has %d left", entity.ErrInsufficientStock, product.ProductID, product.Stock)
		}

		items = append(items, entity.OrderItem{
			ProductID:      product.ProductID,
			Quantity:       cartItem.Quantity,
			UnitPriceCents: product.PriceCents,
			Currency:       product.Currency,
		})
	}

	order, err := entity.NewOrder(uuid.NewString(), user.UserID, items)
	if err != nil {
		return err
	}

	session, err := s.paymentClient.CreateCheckoutSession(ctx, gateway.CreateCheckoutSessionRequest{
		Amount:     order.Total(),
		SuccessURL: s.publicURL + "/orders/" + order.OrderID,
		CancelURL:  s.publicURL + "/products",
		Reference: gateway.CheckoutReference{
			Kind:     "order",
			RecordID: order.OrderID,
			UserID:   user.UserID,
		},
	})
	if err != nil {
		return err
	}

	order.CheckoutSessionID = session.ID
	if err := s.ordersRepo.Store(ctx, order); err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, checkoutResponse{
		ID:          order.OrderID,
		CheckoutURL: session.RedirectURL,
	})
}

func (s *Server) GetOrder(c echo.Context) error {
	user, err := s.viewer(c)
	if err != nil {
		return err
	}

	order, err := s.ordersRepo.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if order.UserID != user.UserID && !user.Tier.IsAdmin() {
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}

	return c.JSON(http.StatusOK, order)
}

// CancelOrder asks for cancellation asynchronously; whether the order
// can still be cancelled is decided by the command handler against the
// current status.
func (s *Server) CancelOrder(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := s.viewer(c)
	if err != nil {
		return err
	}

	order, err := s.ordersRepo.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	if order.UserID != user.UserID && !user.Tier.IsAdmin() {
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}

	err = s.commandBus.Send(ctx, entity.CancelOrder{
		Header:  entity.NewEventHeader(),
		OrderID: order.OrderID,
	})
	if err != nil {
		return fmt.Errorf("could not send CancelOrder command: %w", err)
	}

	return c.NoContent(http.StatusAccepted)
}
