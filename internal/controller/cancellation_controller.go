package controller

import (
	"errors"

	"subtrackr-be/internal/dto"
	"subtrackr-be/internal/pkg/serverutils"
	"subtrackr-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ICancellationController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Status(ctx *fiber.Ctx) error
	Retry(ctx *fiber.Ctx) error
	ConfirmManual(ctx *fiber.Ctx) error
}

type cancellationController struct {
	cancellationService service.ICancellationService
}

func NewCancellationController(cancellationService service.ICancellationService) ICancellationController {
	return &cancellationController{cancellationService: cancellationService}
}

func (c *cancellationController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/cancellation/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.Create)
	h.Get("", c.List)
	h.Get(":id", c.Status)
	h.Post(":id/retry", c.Retry)
	h.Post(":id/confirm", c.ConfirmManual)
}

func (c *cancellationController) Create(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIDFromCtx(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateCancellationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.cancellationService.CreateRequest(ctx.Context(), userId, &req)
	if err != nil {
		return mapCancellationError(err)
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Cancellation request accepted", res))
}

func (c *cancellationController) List(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIDFromCtx(ctx)
	if err != nil {
		return err
	}

	res, err := c.cancellationService.List(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list cancellation requests", res))
}

func (c *cancellationController) Status(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIDFromCtx(ctx)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid cancellation request id")
	}

	res, err := c.cancellationService.GetStatus(ctx.Context(), userId, id)
	if err != nil {
		return mapCancellationError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show cancellation request", res))
}

func (c *cancellationController) Retry(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIDFromCtx(ctx)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid cancellation request id")
	}

	res, err := c.cancellationService.Retry(ctx.Context(), userId, id)
	if err != nil {
		return mapCancellationError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Retry accepted", res))
}

func (c *cancellationController) ConfirmManual(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIDFromCtx(ctx)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid cancellation request id")
	}

	var req dto.ConfirmManualRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.cancellationService.ConfirmManual(ctx.Context(), userId, id, &req)
	if err != nil {
		return mapCancellationError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Manual confirmation recorded", res))
}

func mapCancellationError(err error) error {
	switch {
	case errors.Is(err, service.ErrSubscriptionNotFound), errors.Is(err, service.ErrCancellationNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrCancellationInFlight):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrSubscriptionNotActive), errors.Is(err, service.ErrCancellationBadRequest):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return err
}
