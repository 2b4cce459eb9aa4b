package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sekolah-api/internal/dto"
	"github.com/noah-isme/sekolah-api/internal/service"
	"github.com/noah-isme/sekolah-api/internal/utils"
)

// GradingHandler records grades against submissions and audits final grades.
type GradingHandler struct {
	service service.GradingService
	logger  zerolog.Logger
}

// NewGradingHandler constructs the grading handler.
func NewGradingHandler(service service.GradingService, logger zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		service: service,
		logger:  logger.With().Str("component", "grading_handler").Logger(),
	}
}

// Grade handles PUT /submissions/:id/grade.
func (h *GradingHandler) Grade(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.GradeSubmissionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.GradeSubmission(c.UserContext(), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to record grade")
	}

	requestLogger(h.logger, c).Info().
		Uint("submission_id", id).
		Uint("grade_entry_id", result.Entry.ID).
		Float64("final_score", result.FinalGrade.FinalScore).
		Msg("grade recorded")

	status := fiber.StatusOK
	message := "grade updated"
	if result.Created {
		status = fiber.StatusCreated
		message = "grade recorded"
	}
	return utils.SendSuccessWithStatus(c, status, message, result)
}

// VerifyFinalGrade handles GET /final-grades/verify.
func (h *GradingHandler) VerifyFinalGrade(c *fiber.Ctx) error {
	var req dto.FinalGradeVerifyRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	result, err := h.service.VerifyFinalGrade(c.UserContext(), actorFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to verify final grade")
	}

	if !result.Consistent {
		requestLogger(h.logger, c).Warn().
			Uint("student_id", result.StudentID).
			Uint("subject_id", result.SubjectID).
			Str("semester", result.Semester).
			Msg("final grade drifted from ledger")
	}
	return utils.SendSuccess(c, "final grade verified", result)
}
