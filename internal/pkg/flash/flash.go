package flash

import (
	"github.com/gofiber/fiber/v2"
	cookieflash "github.com/sujit-baniya/flash"
)

const (
	TypeError    = "error"
	TypeConflict = "conflict"
)

// FormError survives the redirect after a rejected form submission.
type FormError struct {
	Type      string
	Message   string
	Firstname string
	Lastname  string
}

// RedirectWithError stores fe in the flash cookie and redirects to path.
func RedirectWithError(c *fiber.Ctx, path string, fe FormError) error {
	if fe.Type == "" {
		fe.Type = TypeError
	}
	return cookieflash.WithError(c, fiber.Map{
		"type":      fe.Type,
		"message":   fe.Message,
		"firstname": fe.Firstname,
		"lastname":  fe.Lastname,
	}).Redirect(path)
}

// Get consumes the flash cookie. It returns nil when no message is pending.
func Get(c *fiber.Ctx) *FormError {
	data := cookieflash.Get(c)
	msg, _ := data["message"].(string)
	if msg == "" {
		return nil
	}
	fe := &FormError{Message: msg}
	fe.Type, _ = data["type"].(string)
	fe.Firstname, _ = data["firstname"].(string)
	fe.Lastname, _ = data["lastname"].(string)
	return fe
}
