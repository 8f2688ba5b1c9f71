package ownercontext

import "github.com/gofiber/fiber/v2"

const contextKey = "OWNER_CONTEXT"

// OwnerContext identifies the billing owner a request acts for. It is set by
// the service-token middleware from edge-provided headers; handlers must not
// read those headers directly.
type OwnerContext struct {
	OwnerType string `json:"owner_type"`
	OwnerID   uint   `json:"owner_id"`
	Role      string `json:"role"`
	Email     string `json:"email"`
	Name      string `json:"name"`
}

// Set stores the owner context on the request.
func Set(c *fiber.Ctx, oc OwnerContext) {
	c.Locals(contextKey, oc)
}

// Get retrieves the owner context from the request. Returns a zero context
// when the middleware did not run.
func Get(c *fiber.Ctx) OwnerContext {
	if v := c.Locals(contextKey); v != nil {
		return v.(OwnerContext)
	}
	return OwnerContext{}
}

// IsPresent reports whether the request carries an owner identity.
func (oc OwnerContext) IsPresent() bool {
	return oc.OwnerType != "" && oc.OwnerID != 0
}
