package dto

// Request DTO (前端传进来的数据)

// LoginReq 登录请求
type LoginReq struct {
	Password string `json:"password" binding:"required"`
}

// SegmentItem 转写分段，时间单位为秒
type SegmentItem struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// GenerateContentReq 全量内容生成请求
// session_id 不传时自动生成新会话
type GenerateContentReq struct {
	SessionID     string        `json:"session_id"`
	Transcript    string        `json:"transcript" binding:"required"`
	Segments      []SegmentItem `json:"segments"`
	VideoTitle    string        `json:"video_title"`
	VideoDuration float64       `json:"video_duration"` // 秒

	GuestName     string `json:"guest_name"`
	GuestTitle    string `json:"guest_title"`
	GuestCompany  string `json:"guest_company"`
	GuestLinkedin string `json:"guest_linkedin"`
}

// UpdatePromptReq 更新提示词模板请求
// 更新即发布新版本并自动下线旧版本
type UpdatePromptReq struct {
	Name     string `json:"name" binding:"required"`
	Template string `json:"template" binding:"required"`
	Notes    string `json:"notes"`
}

// Response DTO (返回给前端的数据)

// PromptResp 模板返回结构
type PromptResp struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Template string `json:"template"`
	Version  int    `json:"version"`
	IsActive bool   `json:"is_active"`
	Notes    string `json:"notes"`
}

// ProcessAudioResp 音频处理返回结构
type ProcessAudioResp struct {
	SessionID       string        `json:"session_id"`
	AudioURL        string        `json:"audio_url"`
	Transcript      string        `json:"transcript"`
	Segments        []SegmentItem `json:"segments"`
	DurationSeconds float64       `json:"duration_seconds"`
}
