package validators

import (
	"advisory/middleware"
	"advisory/utils"

	"github.com/gofiber/fiber/v2"
)

// normalizer is implemented by requests that clean up their fields before
// validation.
type normalizer interface {
	Normalize()
}

// Load decodes query parameters and the JSON or form body into T, validates
// it and stores it under key. When ok is false a response has already been
// written and err is the result of writing it.
func Load[T any](c *fiber.Ctx, key string) (ok bool, err error) {
	req := new(T)

	if err := c.QueryParser(req); err != nil {
		return false, middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid query parameters!", nil)
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(req); err != nil {
			return false, middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
	}

	if n, isNormalizer := any(req).(normalizer); isNormalizer {
		n.Normalize()
	}

	if err := utils.Validate.Struct(req); err != nil {
		if fields := utils.ValidationErrors(err); fields != nil {
			return false, middleware.ValidationErrorResponse(c, fields)
		}
		return false, middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request!", nil)
	}

	c.Locals(key, req)
	return true, nil
}

// Handler wraps Load as a route middleware.
func Handler[T any](key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ok, err := Load[T](c, key); !ok {
			return err
		}
		return c.Next()
	}
}
