package controller

import (
	"errors"

	"subtrackr-be/internal/dto"
	"subtrackr-be/internal/pkg/serverutils"
	"subtrackr-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ISubscriptionController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Archive(ctx *fiber.Ctx) error
	ListProviders(ctx *fiber.Ctx) error
	UpsertProvider(ctx *fiber.Ctx) error
	ImportTransactions(ctx *fiber.Ctx) error
	ListTransactions(ctx *fiber.Ctx) error
}

type subscriptionController struct {
	subscriptionService service.ISubscriptionService
	importService       service.IImportService
}

func NewSubscriptionController(subscriptionService service.ISubscriptionService, importService service.IImportService) ISubscriptionController {
	return &subscriptionController{
		subscriptionService: subscriptionService,
		importService:       importService,
	}
}

func (c *subscriptionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/subscription/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("/providers", c.ListProviders)
	h.Put("/providers", serverutils.AdminOnly, c.UpsertProvider)
	h.Post("/transactions/import", c.ImportTransactions)
	h.Get("/transactions", c.ListTransactions)
	h.Post("", c.Create)
	h.Get("", c.List)
	h.Get(":id", c.Show)
	h.Put(":id", c.Update)
	h.Delete(":id", c.Archive)
}

func (c *subscriptionController) Create(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIDFromCtx(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateSubscriptionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.subscriptionService.Create(ctx.Context(), userId, &req)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return ctx.JSON(serverutils.SuccessResponse("Success create subscription", res))
}

func (c *subscriptionController) List(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIDFromCtx(ctx)
	if err != nil {
		return err
	}

	res, err := c.subscriptionService.List(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list subscriptions", res))
}

func (c *subscriptionController) Show(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIDFromCtx(ctx)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid subscription id")
	}

	res, err := c.subscriptionService.Show(ctx.Context(), userId, id)
	if err != nil {
		return mapSubscriptionError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show subscription", res))
}

func (c *subscriptionController) Update(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIDFromCtx(ctx)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid subscription id")
	}

	var req dto.UpdateSubscriptionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.subscriptionService.Update(ctx.Context(), userId, id, &req)
	if err != nil {
		return mapSubscriptionError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success update subscription", res))
}

func (c *subscriptionController) Archive(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIDFromCtx(ctx)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid subscription id")
	}

	if err := c.subscriptionService.Archive(ctx.Context(), userId, id); err != nil {
		return mapSubscriptionError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success archive subscription", nil))
}

func (c *subscriptionController) ListProviders(ctx *fiber.Ctx) error {
	res, err := c.subscriptionService.ListProviders(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list providers", res))
}

func (c *subscriptionController) UpsertProvider(ctx *fiber.Ctx) error {
	var req dto.UpsertProviderRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.subscriptionService.UpsertProvider(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Provider saved", res))
}

func (c *subscriptionController) ImportTransactions(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIDFromCtx(ctx)
	if err != nil {
		return err
	}

	var req dto.ImportTransactionsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.importService.ImportTransactions(ctx.Context(), userId, &req)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return ctx.JSON(serverutils.SuccessResponse("Transactions imported", res))
}

func (c *subscriptionController) ListTransactions(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIDFromCtx(ctx)
	if err != nil {
		return err
	}

	res, err := c.importService.ListTransactions(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list transactions", res))
}

func mapSubscriptionError(err error) error {
	if errors.Is(err, service.ErrSubscriptionNotFound) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return err
}
