// FILE: internal/controller/library_controller.go
package controller

import (
	"errors"

	"ai-docview/internal/dto"
	"ai-docview/internal/pkg/serverutils"
	"ai-docview/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ILibraryController serves /documents on the mock service. Every route sits
// behind the bearer middleware.
type ILibraryController interface {
	RegisterRoutes(r fiber.Router, authMiddleware fiber.Handler)
	List(ctx *fiber.Ctx) error
	Get(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type libraryController struct {
	service service.ILibraryService
}

func NewLibraryController(service service.ILibraryService) ILibraryController {
	return &libraryController{service: service}
}

func (c *libraryController) RegisterRoutes(r fiber.Router, authMiddleware fiber.Handler) {
	h := r.Group("/documents", authMiddleware)
	h.Get("/", c.List)
	h.Post("/", c.Create)
	h.Get("/:id", c.Get)
	h.Delete("/:id", c.Delete)
}

func (c *libraryController) List(ctx *fiber.Ctx) error {
	res, err := c.service.List(ctx.UserContext(), serverutils.UserId(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *libraryController) Get(ctx *fiber.Ctx) error {
	res, err := c.service.Get(ctx.UserContext(), serverutils.UserId(ctx), ctx.Params("id"))
	if err != nil {
		return documentError(ctx, err)
	}
	return ctx.JSON(res)
}

func (c *libraryController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(serverutils.Detail("Invalid request body"))
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.UserContext(), serverutils.UserId(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(res)
}

func (c *libraryController) Delete(ctx *fiber.Ctx) error {
	if err := c.service.Delete(ctx.UserContext(), serverutils.UserId(ctx), ctx.Params("id")); err != nil {
		return documentError(ctx, err)
	}
	return ctx.JSON(dto.MessageResponse{Message: "Document deleted successfully"})
}

func documentError(ctx *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrDocumentNotFound):
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.Detail(err.Error()))
	case errors.Is(err, service.ErrNotDocumentOwner):
		return ctx.Status(fiber.StatusForbidden).JSON(serverutils.Detail(err.Error()))
	default:
		return err
	}
}
