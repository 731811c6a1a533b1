package model

import "time"

// PromptTemplate 版本化的提示词模板
// 同名模板最多一行 is_active=true，更新时旧版本软下线、版本号递增
type PromptTemplate struct {
	BaseModel

	Name     string `gorm:"size:100;index:idx_template_name_version;comment:模板名称" json:"name"`
	Template string `gorm:"type:text;comment:模板正文(含{placeholder})" json:"template"`
	Version  int    `gorm:"index:idx_template_name_version;default:1;comment:版本号" json:"version"`
	IsActive bool   `gorm:"index;default:true;comment:是否当前生效版本" json:"is_active"`
	Notes    string `gorm:"type:text;comment:变更说明" json:"notes"`
}

func (PromptTemplate) TableName() string {
	return "prompt_templates"
}

// PromptUsage 每次渲染后实际发送的提示词，调用前落库，写入后不可变
type PromptUsage struct {
	BaseModel

	SessionID        string    `gorm:"size:100;index;not null;comment:会话ID" json:"session_id"`
	PromptTemplateID int64     `gorm:"comment:模板ID(0表示兜底提示词)" json:"prompt_template_id"`
	PromptText       string    `gorm:"type:text;comment:渲染后的完整提示词" json:"prompt_text"`
	GeneratedAt      time.Time `gorm:"index;comment:渲染时间" json:"generated_at"`
}

func (PromptUsage) TableName() string {
	return "prompt_usage"
}

// TokenUsage 每次调用成功后的 token 与成本记录，与 PromptUsage 一一对应
type TokenUsage struct {
	BaseModel

	SessionID        string    `gorm:"size:100;index;not null;comment:会话ID" json:"session_id"`
	PromptUsageID    int64     `gorm:"not null;comment:对应的PromptUsage" json:"prompt_usage_id"`
	PromptTemplateID int64     `gorm:"comment:模板ID" json:"prompt_template_id"`
	PromptTokens     int       `gorm:"default:0;comment:输入token数" json:"prompt_tokens"`
	CompletionTokens int       `gorm:"default:0;comment:输出token数" json:"completion_tokens"`
	TotalTokens      int       `gorm:"default:0;comment:总token数" json:"total_tokens"`
	Model            string    `gorm:"size:50;comment:实际服务的模型" json:"model"`
	CostUSD          float64   `gorm:"type:decimal(12,6);default:0;comment:成本(美元)" json:"cost_usd"`
	GeneratedAt      time.Time `gorm:"index;comment:调用完成时间" json:"generated_at"`
}

func (TokenUsage) TableName() string {
	return "token_usage"
}

// UsageSummary 按自然日汇总的用量，date 格式 YYYY-MM-DD
type UsageSummary struct {
	BaseModel

	Date         string  `gorm:"size:10;uniqueIndex;comment:日期(YYYY-MM-DD)" json:"date"`
	TotalTokens  int64   `gorm:"default:0;comment:当日总token" json:"total_tokens"`
	TotalCostUSD float64 `gorm:"default:0;comment:当日总成本" json:"total_cost_usd"`
	RequestCount int64   `gorm:"default:0;comment:当日调用次数" json:"request_count"`
}

func (UsageSummary) TableName() string {
	return "usage_summary"
}

// ==================== 内容类型常量 ====================

const (
	ContentTypeYoutubeSummary    = "youtube_summary"
	ContentTypeBlogPost          = "blog_post"
	ContentTypeClickbaitTitles   = "clickbait_titles"
	ContentTypeTwoLineSummary    = "two_line_summary"
	ContentTypeQuotes            = "quotes"
	ContentTypeChapterTimestamps = "chapter_timestamps"
	ContentTypeLinkedinPost      = "linkedin_post"
	ContentTypeKeywords          = "keywords"
)

// ContentTypeNames 八种内容类型的固定生成顺序
var ContentTypeNames = []string{
	ContentTypeYoutubeSummary,
	ContentTypeBlogPost,
	ContentTypeClickbaitTitles,
	ContentTypeTwoLineSummary,
	ContentTypeQuotes,
	ContentTypeChapterTimestamps,
	ContentTypeLinkedinPost,
	ContentTypeKeywords,
}
