package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"podcast_studio_v1_202608/internal/model"
	"podcast_studio_v1_202608/internal/repository"
)

// ==================== 测试脚手架 ====================

// fakeGenerator 按调用顺序返回预置响应的文本生成器
type fakeGenerator struct {
	model     string
	calls     int
	failAt    int // 第 N 次调用返回错误，0 表示不失败
	responses map[int]string
	prompts   []string
}

func (f *fakeGenerator) GenerateText(ctx context.Context, prompt string, maxTokens int, temperature float64) (*CompletionResult, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)

	if f.failAt > 0 && f.calls >= f.failAt {
		return nil, fmt.Errorf("上游调用失败")
	}

	content, ok := f.responses[f.calls]
	if !ok {
		content = fmt.Sprintf("Sample response %d", f.calls)
	}
	return &CompletionResult{
		Content:          content,
		PromptTokens:     100,
		CompletionTokens: 40,
		TotalTokens:      140,
		Model:            f.model,
	}, nil
}

func (f *fakeGenerator) Model() string {
	return "gpt-5-mini"
}

type contentTestEnv struct {
	db           *gorm.DB
	svc          *ContentService
	generator    *fakeGenerator
	sessionRepo  repository.SessionRepository
	templateRepo repository.PromptTemplateRepository
	usageRepo    repository.UsageRepository
	contentRepo  repository.GeneratedContentRepository
}

func setupContentTestEnv(t *testing.T, gen *fakeGenerator) *contentTestEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	err = db.AutoMigrate(
		&model.Session{}, &model.PromptTemplate{}, &model.PromptUsage{},
		&model.TokenUsage{}, &model.UsageSummary{}, &model.GeneratedContent{},
	)
	if err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}

	env := &contentTestEnv{
		db:           db,
		generator:    gen,
		sessionRepo:  repository.NewSessionRepository(db),
		templateRepo: repository.NewPromptTemplateRepository(db),
		usageRepo:    repository.NewUsageRepository(db),
		contentRepo:  repository.NewGeneratedContentRepository(db),
	}
	if err := env.templateRepo.Seed(context.Background()); err != nil {
		t.Fatalf("初始化默认模板失败: %v", err)
	}

	env.svc = NewContentService(
		env.sessionRepo, env.templateRepo, env.usageRepo, env.contentRepo,
		NewPromptRenderer(), gen,
	)
	return env
}

func testInput(sessionID string) *GenerateInput {
	return &GenerateInput{
		SessionID:     sessionID,
		Transcript:    "We discussed cloud infrastructure and scaling strategies at length.",
		VideoDuration: 3600,
		Segments: []model.TranscriptSegment{
			{Text: "Welcome to the show", Start: 0, End: 5},
			{Text: "Scaling is hard", Start: 65, End: 70},
		},
		GuestName:     "Jordan Lee",
		GuestTitle:    "CTO",
		GuestCompany:  "Acme",
		GuestLinkedin: "https://linkedin.com/in/jordanlee",
	}
}

// ==================== 全量生成 ====================

func TestContentService_GenerateAllContent(t *testing.T) {
	gen := &fakeGenerator{
		model: "gpt-4o-mini",
		responses: map[int]string{
			3: "1. Ten secrets revealed\n2. The hidden truth",
			6: "00:30:00 - Deep dive\n00:00:00 - Introduction",
			8: "Finance, Dubai , startup...",
		},
	}
	env := setupContentTestEnv(t, gen)
	ctx := context.Background()

	env.sessionRepo.Create(ctx, "sess-1", "")

	result, err := env.svc.GenerateAllContent(ctx, testInput("sess-1"))
	if err != nil {
		t.Fatalf("GenerateAllContent() error = %v", err)
	}

	// 八种类型各调用一次
	if gen.calls != 8 {
		t.Errorf("模型调用次数 = %d, want 8", gen.calls)
	}
	if result.PromptTokens != 800 || result.CompletionTokens != 320 || result.TotalTokens != 1120 {
		t.Errorf("token 汇总错误: %+v", result)
	}
	// 8 次 × (100/1000×0.01 + 40/1000×0.03) 按默认计价
	if math.Abs(result.CostUSD-0.0176) > 1e-9 {
		t.Errorf("CostUSD = %v, want 0.0176", result.CostUSD)
	}
	// 记录实际服务的模型，而非配置的首选模型
	if result.ModelUsed != "gpt-4o-mini" {
		t.Errorf("ModelUsed = %s, want gpt-4o-mini", result.ModelUsed)
	}

	// 提示词与 token 记录一一对应
	var promptCount, tokenCount int64
	env.db.Model(&model.PromptUsage{}).Count(&promptCount)
	env.db.Model(&model.TokenUsage{}).Count(&tokenCount)
	if promptCount != 8 || tokenCount != 8 {
		t.Errorf("落库记录数 prompt=%d token=%d, want 8/8", promptCount, tokenCount)
	}

	var tokenRows []model.TokenUsage
	env.db.Find(&tokenRows)
	for _, row := range tokenRows {
		if row.Model != "gpt-4o-mini" {
			t.Errorf("token 记录模型 = %s, want gpt-4o-mini", row.Model)
		}
		if row.PromptUsageID == 0 {
			t.Error("token 记录应关联 PromptUsage")
		}
	}

	// 产物落库
	content, err := env.contentRepo.GetBySessionID(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetBySessionID() error = %v", err)
	}
	if content.YoutubeSummary == "" || content.BlogPost == "" || content.LinkedinPost == "" {
		t.Error("文本类产物不应为空")
	}
	if content.Keywords != "Finance, Dubai , startup" {
		t.Errorf("Keywords = %q", content.Keywords)
	}
	if content.Hashtags != "#Finance, #Dubai, #startup" {
		t.Errorf("Hashtags = %q", content.Hashtags)
	}

	var titles []string
	if err := json.Unmarshal(content.ClickbaitTitles, &titles); err != nil {
		t.Fatalf("解析标题列表失败: %v", err)
	}
	if len(titles) != 20 {
		t.Errorf("标题数 = %d, want 20", len(titles))
	}
	if titles[0] != "Ten secrets revealed" {
		t.Errorf("首条标题 = %q", titles[0])
	}
	if titles[19] != "Insights from Jordan Lee at Acme" {
		t.Errorf("补齐默认标题 = %q", titles[19])
	}

	var chapters []string
	json.Unmarshal(content.ChapterTimestamps, &chapters)
	want := []string{"00:00:00 - Introduction", "00:30:00 - Deep dive"}
	if len(chapters) != 2 || chapters[0] != want[0] || chapters[1] != want[1] {
		t.Errorf("章节应按时间排序: %v", chapters)
	}

	// 会话置为完成
	session, _ := env.sessionRepo.GetBySessionID(ctx, "sess-1")
	if session.Status != model.SessionStatusCompleted {
		t.Errorf("会话状态 = %s, want %s", session.Status, model.SessionStatusCompleted)
	}
}

func TestContentService_EmptyTranscript(t *testing.T) {
	gen := &fakeGenerator{model: "gpt-5-mini"}
	env := setupContentTestEnv(t, gen)

	in := testInput("sess-1")
	in.Transcript = "   "

	if _, err := env.svc.GenerateAllContent(context.Background(), in); err == nil {
		t.Fatal("空转写文本应直接报错")
	}
	if gen.calls != 0 {
		t.Errorf("不应发起任何模型调用, calls = %d", gen.calls)
	}
}

func TestContentService_MissingTemplateFallback(t *testing.T) {
	gen := &fakeGenerator{model: "gpt-5-mini"}
	env := setupContentTestEnv(t, gen)
	ctx := context.Background()

	// 下线 quotes 的所有版本，触发兜底提示词
	env.db.Unscoped().Where("name = ?", "quotes").Delete(&model.PromptTemplate{})

	env.sessionRepo.Create(ctx, "sess-1", "")
	if _, err := env.svc.GenerateAllContent(ctx, testInput("sess-1")); err != nil {
		t.Fatalf("GenerateAllContent() error = %v", err)
	}

	var fallback model.PromptUsage
	err := env.db.Where("prompt_template_id = ?", 0).First(&fallback).Error
	if err != nil {
		t.Fatalf("应留下兜底提示词记录: %v", err)
	}
	if fallback.PromptText != "Generate quotes" {
		t.Errorf("兜底提示词 = %q, want Generate quotes", fallback.PromptText)
	}
}

func TestContentService_GeneratorFailure(t *testing.T) {
	gen := &fakeGenerator{model: "gpt-5-mini", failAt: 2}
	env := setupContentTestEnv(t, gen)
	ctx := context.Background()

	env.sessionRepo.Create(ctx, "sess-1", "")

	_, err := env.svc.GenerateAllContent(ctx, testInput("sess-1"))
	if err == nil {
		t.Fatal("中途失败应整体报错")
	}
	if !strings.Contains(err.Error(), "blog_post") {
		t.Errorf("错误应标明失败的内容类型: %v", err)
	}

	// 不产出残缺内容包
	if _, err := env.contentRepo.GetBySessionID(ctx, "sess-1"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("失败时不应保存产物, got %v", err)
	}

	// 会话置为失败
	session, _ := env.sessionRepo.GetBySessionID(ctx, "sess-1")
	if session.Status != model.SessionStatusError {
		t.Errorf("会话状态 = %s, want %s", session.Status, model.SessionStatusError)
	}

	// 失败调用的提示词仍保留，便于审计
	var promptCount int64
	env.db.Model(&model.PromptUsage{}).Count(&promptCount)
	if promptCount != 2 {
		t.Errorf("提示词记录数 = %d, want 2", promptCount)
	}
	var tokenCount int64
	env.db.Model(&model.TokenUsage{}).Count(&tokenCount)
	if tokenCount != 1 {
		t.Errorf("token 记录数 = %d, want 1 (仅成功调用)", tokenCount)
	}
}

func TestContentService_PromptsCarryGuestFields(t *testing.T) {
	gen := &fakeGenerator{model: "gpt-5-mini"}
	env := setupContentTestEnv(t, gen)
	ctx := context.Background()

	env.sessionRepo.Create(ctx, "sess-1", "")
	if _, err := env.svc.GenerateAllContent(ctx, testInput("sess-1")); err != nil {
		t.Fatalf("GenerateAllContent() error = %v", err)
	}

	// 第一条 (youtube_summary) 提示词应包含嘉宾信息与转写
	first := gen.prompts[0]
	for _, s := range []string{"Jordan Lee", "CTO", "Acme", "cloud infrastructure"} {
		if !strings.Contains(first, s) {
			t.Errorf("youtube_summary 提示词缺少 %q", s)
		}
	}

	// quotes 提示词应包含时间码片段
	quotes := gen.prompts[4]
	if !strings.Contains(quotes, "[00:01:05] Scaling is hard") {
		t.Errorf("quotes 提示词缺少时间码片段: %q", quotes)
	}

	// chapter_timestamps 提示词应包含格式化后的时长
	chapters := gen.prompts[5]
	if !strings.Contains(chapters, "01:00:00") {
		t.Errorf("chapter 提示词缺少视频时长: %q", chapters)
	}
}
