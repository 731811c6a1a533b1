package model

// Guest 本期嘉宾信息
type Guest struct {
	BaseModel

	SessionID   string `gorm:"size:100;index;not null;comment:会话ID" json:"session_id"`
	Name        string `gorm:"size:255;not null;comment:姓名" json:"name"`
	Title       string `gorm:"size:255;comment:职位" json:"title"`
	Company     string `gorm:"size:255;comment:公司" json:"company"`
	LinkedinURL string `gorm:"size:500;comment:LinkedIn主页" json:"linkedin_url"`
	Notes       string `gorm:"type:text;comment:备注" json:"notes"`
}

func (Guest) TableName() string {
	return "guests"
}
