package dto

import "time"

// ReportRequest selects the student and semester of a report card.
// A zero StudentID means the requesting student.
type ReportRequest struct {
	StudentID uint
	Semester  string `query:"semester" validate:"omitempty,max=16"`
}

// ReportResponse is the composed report card of one student for one semester.
type ReportResponse struct {
	Student          ReportStudent       `json:"student"`
	Semesters        []string            `json:"semesters"`
	SelectedSemester string              `json:"selected_semester"`
	Average          *float64            `json:"average"`
	FinalGrades      []ReportFinalGrade  `json:"final_grades"`
	Details          []ReportGradeDetail `json:"details"`
	GeneratedAt      time.Time           `json:"generated_at"`
	CacheHit         bool                `json:"cache_hit"`
}

// ReportStudent is the header block of a report card.
type ReportStudent struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	NIS       string `json:"nis"`
	Classroom string `json:"classroom"`
}

// ReportFinalGrade is one subject line of a report card.
type ReportFinalGrade struct {
	SubjectID   uint      `json:"subject_id"`
	SubjectName string    `json:"subject_name"`
	FinalScore  float64   `json:"final_score"`
	Band        string    `json:"band"`
	Tone        string    `json:"tone"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ReportGradeDetail is one grade entry shown under a report card.
type ReportGradeDetail struct {
	GradeEntryID   uint      `json:"grade_entry_id"`
	SubjectName    string    `json:"subject_name"`
	Assignment     string    `json:"assignment"`
	AssessmentType string    `json:"assessment_type"`
	WeightPercent  float64   `json:"weight_percent"`
	Score          float64   `json:"score"`
	Band           string    `json:"band"`
	Tone           string    `json:"tone"`
	Comment        string    `json:"comment"`
	Grader         string    `json:"grader"`
	GradedAt       time.Time `json:"graded_at"`
}
