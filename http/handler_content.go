package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"fanclub/entity"
)

type contentListItem struct {
	ContentID    string      `json:"content_id"`
	Title        string      `json:"title"`
	RequiredTier entity.Tier `json:"required_tier"`
	PublishedAt  time.Time   `json:"published_at"`
	Locked       bool        `json:"locked"`
}

// GetContent lists the catalog with per-item lock state. Bodies are
// never included here, only on the gated item endpoint.
func (s *Server) GetContent(c echo.Context) error {
	user, err := s.viewer(c)
	if err != nil {
		return err
	}

	items, err := s.contentRepo.FindAll(c.Request().Context())
	if err != nil {
		return err
	}

	response := lo.Map(items, func(item entity.Content, _ int) contentListItem {
		return contentListItem{
			ContentID:    item.ContentID,
			Title:        item.Title,
			RequiredTier: item.RequiredTier,
			PublishedAt:  item.PublishedAt,
			Locked:       !user.Tier.CanAccess(item.RequiredTier),
		}
	})

	return c.JSON(http.StatusOK, response)
}

func (s *Server) GetContentItem(c echo.Context) error {
	user, err := s.viewer(c)
	if err != nil {
		return err
	}

	item, err := s.contentRepo.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	if !user.Tier.CanAccess(item.RequiredTier) {
		return fmt.Errorf("%w: content %s requires %s tier", entity.ErrForbidden, item.ContentID, item.RequiredTier)
	}

	return c.JSON(http.StatusOK, item)
}
