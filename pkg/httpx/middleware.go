package httpx

import (
	echo "github.com/labstack/echo/v5"
)

// envelopeContextKey is the echo.Context key under which Middleware stores
// the extracted Result.
const envelopeContextKey = "lce.envelope"

// Middleware wires an Extractor into an echo request pipeline, grounded on
// the teacher's thin middleware style (pkg/api/middleware.go): no handler
// logic lives here beyond mapping HTTPError onto echo's response.
func Middleware(x *Extractor) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			result, httpErr := x.Extract(c.Request().Header)
			if httpErr != nil {
				return c.JSON(httpErr.Status, map[string]any{
					"detail": map[string]any{"error": httpErr.Message},
				})
			}
			c.Set(envelopeContextKey, result)
			return next(c)
		}
	}
}

// FromContext retrieves the Result a prior Middleware call stashed on c.
func FromContext(c *echo.Context) (Result, bool) {
	v := c.Get(envelopeContextKey)
	if v == nil {
		return Result{}, false
	}
	r, ok := v.(Result)
	return r, ok
}
