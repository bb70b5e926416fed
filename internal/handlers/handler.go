package handlers

import (
	"strconv"

	"payway/internal/utils/response"
	"payway/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// parseBody decodes the JSON body into dst and runs its validate tags. On
// failure the error response has already been written and ok is false.
func parseBody(c *fiber.Ctx, dst interface{}) (ok bool, err error) {
	if err := c.BodyParser(dst); err != nil {
		return false, response.BadRequest(c, "invalid request format")
	}
	if errs := validation.ValidateStruct(dst); len(errs) > 0 {
		return false, response.ValidationError(c, errs)
	}
	return true, nil
}

func paramID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
