package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sekolah-api/internal/dto"
	"github.com/noah-isme/sekolah-api/internal/service"
	"github.com/noah-isme/sekolah-api/internal/utils"
)

// AssessmentTypeHandler exposes the assessment type registry.
type AssessmentTypeHandler struct {
	service service.AssessmentTypeService
	logger  zerolog.Logger
}

// NewAssessmentTypeHandler constructs the handler.
func NewAssessmentTypeHandler(service service.AssessmentTypeService, logger zerolog.Logger) *AssessmentTypeHandler {
	return &AssessmentTypeHandler{
		service: service,
		logger:  logger.With().Str("component", "assessment_type_handler").Logger(),
	}
}

// Register attaches registry endpoints to the router group.
func (h *AssessmentTypeHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Get("/:id", h.get)
	router.Post("/", h.create)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
}

func (h *AssessmentTypeHandler) list(c *fiber.Ctx) error {
	items, err := h.service.List(c.UserContext(), actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to list assessment types")
	}
	return utils.SendSuccess(c, "assessment types retrieved", items)
}

func (h *AssessmentTypeHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	item, err := h.service.Get(c.UserContext(), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load assessment type")
	}
	return utils.SendSuccess(c, "assessment type retrieved", item)
}

func (h *AssessmentTypeHandler) create(c *fiber.Ctx) error {
	var payload dto.AssessmentTypeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	item, err := h.service.Create(c.UserContext(), actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create assessment type")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "assessment type created", item)
}

func (h *AssessmentTypeHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.AssessmentTypeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	item, err := h.service.Update(c.UserContext(), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update assessment type")
	}
	return utils.SendSuccess(c, "assessment type updated", item)
}

func (h *AssessmentTypeHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.UserContext(), actorFromContext(c), id); err != nil {
		return respondError(c, h.logger, err, "failed to delete assessment type")
	}
	return utils.SendSuccess(c, "assessment type deleted", nil)
}
