package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// EventPublisher is the subset of *nats.Conn used to emit domain events.
type EventPublisher interface {
	PublishMsg(msg *nats.Msg) error
}

// GradeRecordedEvent is emitted after a grading transaction commits.
type GradeRecordedEvent struct {
	Type             string    `json:"type"`
	SubmissionID     uint      `json:"submission_id"`
	GradeEntryID     uint      `json:"grade_entry_id"`
	StudentID        uint      `json:"student_id"`
	SubjectID        uint      `json:"subject_id"`
	Semester         string    `json:"semester"`
	AssessmentTypeID uint      `json:"assessment_type_id"`
	Score            float64   `json:"score"`
	FinalScore       float64   `json:"final_score"`
	GradedBy         uint      `json:"graded_by"`
	GradedAt         time.Time `json:"graded_at"`
	Regraded         bool      `json:"regraded"`
}

// GradeEvents publishes grading events on a NATS subject. A nil publisher disables it.
type GradeEvents struct {
	publisher EventPublisher
	subject   string
	logger    zerolog.Logger
}

// NewGradeEvents constructs the grading event publisher.
func NewGradeEvents(publisher EventPublisher, subject string, logger zerolog.Logger) *GradeEvents {
	return &GradeEvents{
		publisher: publisher,
		subject:   subject,
		logger:    logger.With().Str("component", "grade_events").Logger(),
	}
}

// PublishGradeRecorded emits the event. Failures are logged and never returned: the grade
// is already committed.
func (e *GradeEvents) PublishGradeRecorded(ctx context.Context, event GradeRecordedEvent) {
	if e == nil || e.publisher == nil {
		return
	}
	if err := ctx.Err(); err != nil {
		e.logger.Warn().Err(err).Uint("submission_id", event.SubmissionID).Msg("skipping grade event for cancelled request")
		return
	}

	event.Type = "grade.recorded"
	payload, err := json.Marshal(event)
	if err != nil {
		e.logger.Error().Err(err).Msg("failed to encode grade event")
		return
	}

	msg := nats.NewMsg(e.subject + ".recorded")
	msg.Data = payload
	msg.Header.Set(nats.MsgIdHdr, "grade-"+strconv.FormatUint(uint64(event.GradeEntryID), 10)+"-"+strconv.FormatInt(event.GradedAt.UnixNano(), 10))
	msg.Header.Set("Content-Type", "application/json")

	if err := e.publisher.PublishMsg(msg); err != nil {
		e.logger.Warn().Err(err).Uint("submission_id", event.SubmissionID).Msg("failed to publish grade event")
		return
	}
	e.logger.Debug().Uint("submission_id", event.SubmissionID).Str("subject", msg.Subject).Msg("grade event published")
}
