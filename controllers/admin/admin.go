package adminController

import (
	"advisory/middleware"
	"advisory/models"
	"advisory/store"
	"time"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	store *store.Store
	now   func() time.Time
}

func NewHandler(s *store.Store) *Handler {
	return &Handler{store: s, now: time.Now}
}

// maxPage keeps (page-1)*limit far from overflow.
const maxPage = 100000

func pagination(c *fiber.Ctx) (page, limit int) {
	page = c.QueryInt("page", 1)
	limit = c.QueryInt("limit", 20)
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// ListUsers supports ?verified=true|false and ?subscription=active|expired|none.
func (h *Handler) ListUsers(c *fiber.Ctx) error {
	page, limit := pagination(c)
	verified := c.Query("verified")
	subscription := c.Query("subscription")
	t := h.now()

	users, err := h.store.FindUsers(c.UserContext(), func(u *models.User) bool {
		switch verified {
		case "true":
			if !u.EmailVerified {
				return false
			}
		case "false":
			if u.EmailVerified {
				return false
			}
		}
		switch subscription {
		case "active":
			return u.HasActiveSubscription(t)
		case "expired":
			return u.SubscriptionExpiry != nil && !u.HasActiveSubscription(t)
		case "none":
			return u.SubscriptionExpiry == nil
		}
		return true
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	total := len(users)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Users fetched successfully.", fiber.Map{
		"users": users[start:end],
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// ListPayments supports ?status=pending|success|failed.
func (h *Handler) ListPayments(c *fiber.Ctx) error {
	page, limit := pagination(c)

	payments, total, err := h.store.ListPayments(c.UserContext(), c.Query("status"), (page-1)*limit, limit)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payments fetched successfully.", fiber.Map{
		"payments": payments,
		"total":    total,
		"page":     page,
		"limit":    limit,
	})
}
