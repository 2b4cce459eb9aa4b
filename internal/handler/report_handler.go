package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sekolah-api/internal/dto"
	"github.com/noah-isme/sekolah-api/internal/service"
	"github.com/noah-isme/sekolah-api/internal/utils"
)

// ReportHandler serves report cards.
type ReportHandler struct {
	service service.ReportService
	logger  zerolog.Logger
}

// NewReportHandler constructs the report handler.
func NewReportHandler(service service.ReportService, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		logger:  logger.With().Str("component", "report_handler").Logger(),
	}
}

// Register attaches report routes to the router group.
func (h *ReportHandler) Register(router fiber.Router) {
	router.Get("/me", h.mine)
	router.Get("/students/:id", h.student)
}

func (h *ReportHandler) mine(c *fiber.Ctx) error {
	return h.respond(c, 0)
}

func (h *ReportHandler) student(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	return h.respond(c, id)
}

func (h *ReportHandler) respond(c *fiber.Ctx, studentID uint) error {
	var req dto.ReportRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}
	req.StudentID = studentID

	report, err := h.service.GetReport(c.UserContext(), actorFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to build report")
	}

	if report.CacheHit {
		c.Set("X-Cache", "HIT")
	} else {
		c.Set("X-Cache", "MISS")
	}
	return utils.SendSuccess(c, "report retrieved", report)
}
