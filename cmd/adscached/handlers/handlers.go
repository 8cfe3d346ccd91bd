// Package handlers maps the HTTP surface onto the tool services.
// Every response carries the {success, ...} envelope; failures add an
// error string and nothing else.
package handlers

import (
	"github.com/labstack/echo/v4"
)

// fail writes the shared error envelope
func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]interface{}{
		"success": false,
		"error":   msg,
	})
}
