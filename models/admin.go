package models

import "time"

// AdminLog is an append-only audit entry
type AdminLog struct {
	ID        string    `json:"id"`
	AdminID   string    `json:"adminId"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"createdAt"`
}

// Audit actions
const (
	ActionCreateSection  = "create_section"
	ActionUpdateSection  = "update_section"
	ActionDeleteSection  = "delete_section"
	ActionCreateLesson   = "create_lesson"
	ActionUpdateLesson   = "update_lesson"
	ActionDeleteLesson   = "delete_lesson"
	ActionCreateQuestion = "create_question"
	ActionUpdateQuestion = "update_question"
	ActionDeleteQuestion = "delete_question"
	ActionBanUser        = "ban_user"
	ActionUnbanUser      = "unban_user"
	ActionDeleteUser     = "delete_user"
	ActionImport         = "import_data"
	ActionSeed           = "seed_data"
)

// Stats is the admin dashboard rollup
type Stats struct {
	TotalUsers     int `json:"totalUsers"`
	TotalPosts     int `json:"totalPosts"`
	TotalQuestions int `json:"totalQuestions"`
	TotalSections  int `json:"totalSections"`
	TotalLessons   int `json:"totalLessons"`
	TotalSigns     int `json:"totalSigns"`
	TotalReports   int `json:"totalReports"`
	ActiveToday    int `json:"activeToday"`
}

const (
	NotificationInfo    = "info"
	NotificationSuccess = "success"
	NotificationWarning = "warning"
)

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}
