// FILE: internal/controller/oauth_controller.go
package controller

import (
	"ai-docview/internal/pkg/logger"
	"ai-docview/internal/pkg/serverutils"
	"ai-docview/internal/service"

	"github.com/gofiber/fiber/v2"
)

// LoginOutcome is what the browser round trip produced.
type LoginOutcome struct {
	Result service.ExchangeResult
	Err    error
}

type IOAuthController interface {
	RegisterRoutes(r fiber.Router)
	Login(ctx *fiber.Ctx) error
	Callback(ctx *fiber.Ctx) error
	Outcomes() <-chan LoginOutcome
}

type oauthController struct {
	service  service.IOAuthService
	logger   logger.ILogger
	outcomes chan LoginOutcome
}

func NewOAuthController(service service.IOAuthService, log logger.ILogger) IOAuthController {
	return &oauthController{
		service:  service,
		logger:   log,
		outcomes: make(chan LoginOutcome, 1),
	}
}

func (c *oauthController) RegisterRoutes(r fiber.Router) {
	// e.g., /auth/google
	h := r.Group("/auth")
	h.Get("/:provider", c.Login)
	h.Get("/:provider/callback", c.Callback)
}

// Outcomes delivers one value per completed callback.
func (c *oauthController) Outcomes() <-chan LoginOutcome {
	return c.outcomes
}

func (c *oauthController) Login(ctx *fiber.Ctx) error {
	provider := ctx.Params("provider")

	url, err := c.service.GetLoginURL(provider)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}

	c.logger.Debug("OAuth", "Redirecting to provider", map[string]interface{}{"provider": provider})
	return ctx.Redirect(url)
}

func (c *oauthController) Callback(ctx *fiber.Ctx) error {
	provider := ctx.Params("provider")

	if denied := ctx.Query("error"); denied != "" {
		c.logger.Warn("OAuth", "Provider denied sign-in", map[string]interface{}{"reason": denied})
		c.publish(LoginOutcome{Err: fiber.NewError(fiber.StatusUnauthorized, "sign-in denied: "+denied)})
		return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Sign-in was denied"))
	}

	code := ctx.Query("code")
	if code == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Missing code"))
	}

	res, err := c.service.HandleCallback(ctx.UserContext(), provider, ctx.Query("state"), code)
	if err != nil {
		c.publish(LoginOutcome{Err: err})
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}
	c.publish(LoginOutcome{Result: res})

	message := "Signed in. You can close this window."
	if !res.Authenticated {
		message = "Signed in with the provider, but the document service did not accept the identity."
	}
	return ctx.JSON(serverutils.SuccessResponse(message, fiber.Map{"authenticated": res.Authenticated}))
}

// publish keeps only the first unread outcome; a repeated callback does not
// block the handler.
func (c *oauthController) publish(o LoginOutcome) {
	select {
	case c.outcomes <- o:
	default:
	}
}
