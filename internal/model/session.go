package model

// Session 一次播客内容生成会话
// SessionID 由外部传入，缺省时由服务端生成 UUID
type Session struct {
	BaseModel

	SessionID string `gorm:"size:100;uniqueIndex;not null;comment:会话ID(外部标识)" json:"session_id"`
	Title     string `gorm:"size:255;comment:标题" json:"title"`
	Status    string `gorm:"size:50;index;default:processing;comment:状态(processing/completed/error)" json:"status"`
}

func (Session) TableName() string {
	return "sessions"
}

// ==================== 状态常量 ====================

const (
	SessionStatusProcessing = "processing"
	SessionStatusCompleted  = "completed"
	SessionStatusError      = "error"
)
