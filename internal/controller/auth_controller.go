// FILE: internal/controller/auth_controller.go
package controller

import (
	"errors"

	"ai-docview/internal/dto"
	"ai-docview/internal/pkg/serverutils"
	"ai-docview/internal/service"

	"github.com/gofiber/fiber/v2"
)

// IAuthController serves the mock service's login endpoint.
type IAuthController interface {
	RegisterRoutes(r fiber.Router)
	Login(ctx *fiber.Ctx) error
}

type authController struct {
	service service.IAuthService
}

func NewAuthController(service service.IAuthService) IAuthController {
	return &authController{service: service}
}

func (c *authController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/auth")
	h.Post("/login", c.Login)
}

func (c *authController) Login(ctx *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(serverutils.Detail("Invalid request body"))
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return err
	}

	res, err := c.service.Login(ctx.UserContext(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidGoogleToken) {
			return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.Detail(err.Error()))
		}
		return err
	}
	return ctx.JSON(res)
}
