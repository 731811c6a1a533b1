package repository

import (
	"context"
	"math"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"podcast_studio_v1_202608/internal/model"
)

func setupUsageTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	err = db.AutoMigrate(
		&model.PromptTemplate{}, &model.PromptUsage{},
		&model.TokenUsage{}, &model.UsageSummary{},
	)
	if err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}
	return db
}

func TestUsageRepo_SavePromptUsage(t *testing.T) {
	db := setupUsageTestDB(t)
	repo := NewUsageRepository(db)
	ctx := context.Background()

	usage, err := repo.SavePromptUsage(ctx, "sess-1", 3, "rendered prompt text")
	if err != nil {
		t.Fatalf("SavePromptUsage() error = %v", err)
	}
	if usage.ID == 0 {
		t.Error("ID 应该被自动分配")
	}
	if usage.GeneratedAt.IsZero() {
		t.Error("GeneratedAt 应自动填充")
	}

	list, err := repo.ListPromptUsage(ctx, "sess-1")
	if err != nil {
		t.Fatalf("ListPromptUsage() error = %v", err)
	}
	if len(list) != 1 || list[0].PromptText != "rendered prompt text" {
		t.Errorf("提示词记录不符: %+v", list)
	}
}

func TestUsageRepo_SaveTokenUsage_DailySummary(t *testing.T) {
	db := setupUsageTestDB(t)
	repo := NewUsageRepository(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := repo.SaveTokenUsage(ctx, &model.TokenUsage{
			SessionID:        "sess-1",
			PromptUsageID:    int64(i + 1),
			PromptTokens:     100,
			CompletionTokens: 50,
			Model:            "gpt-4-turbo",
			CostUSD:          0.0025,
		})
		if err != nil {
			t.Fatalf("SaveTokenUsage() error = %v", err)
		}
	}

	// 同一天的调用应累加进同一行汇总
	var summaries []model.UsageSummary
	db.Find(&summaries)
	if len(summaries) != 1 {
		t.Fatalf("日汇总行数 = %d, want 1", len(summaries))
	}

	s := summaries[0]
	if s.Date != time.Now().Format("2006-01-02") {
		t.Errorf("汇总日期 = %s", s.Date)
	}
	if s.TotalTokens != 450 {
		t.Errorf("当日总 token = %d, want 450", s.TotalTokens)
	}
	if math.Abs(s.TotalCostUSD-0.0075) > 1e-9 {
		t.Errorf("当日总成本 = %v, want 0.0075", s.TotalCostUSD)
	}
	if s.RequestCount != 3 {
		t.Errorf("当日调用数 = %d, want 3", s.RequestCount)
	}
}

func TestUsageRepo_SaveTokenUsage_FillsTotal(t *testing.T) {
	db := setupUsageTestDB(t)
	repo := NewUsageRepository(db)
	ctx := context.Background()

	usage := &model.TokenUsage{
		SessionID:        "sess-1",
		PromptUsageID:    1,
		PromptTokens:     120,
		CompletionTokens: 80,
	}
	if err := repo.SaveTokenUsage(ctx, usage); err != nil {
		t.Fatalf("SaveTokenUsage() error = %v", err)
	}
	if usage.TotalTokens != 200 {
		t.Errorf("TotalTokens = %d, want 200 (自动求和)", usage.TotalTokens)
	}
}

func TestUsageRepo_SessionSummary(t *testing.T) {
	db := setupUsageTestDB(t)
	repo := NewUsageRepository(db)
	templateRepo := NewPromptTemplateRepository(db)
	ctx := context.Background()

	tmpl, err := templateRepo.Create(ctx, "youtube_summary", "body", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	records := []*model.TokenUsage{
		{SessionID: "sess-1", PromptUsageID: 1, PromptTemplateID: tmpl.ID, PromptTokens: 100, CompletionTokens: 50, CostUSD: 0.001},
		{SessionID: "sess-1", PromptUsageID: 2, PromptTemplateID: tmpl.ID, PromptTokens: 200, CompletionTokens: 100, CostUSD: 0.002},
		{SessionID: "sess-1", PromptUsageID: 3, PromptTemplateID: 0, PromptTokens: 50, CompletionTokens: 20, CostUSD: 0.0005},
		{SessionID: "sess-2", PromptUsageID: 4, PromptTemplateID: tmpl.ID, PromptTokens: 999, CompletionTokens: 999, CostUSD: 1},
	}
	for _, r := range records {
		if err := repo.SaveTokenUsage(ctx, r); err != nil {
			t.Fatalf("SaveTokenUsage() error = %v", err)
		}
	}

	summary, err := repo.SessionSummary(ctx, "sess-1")
	if err != nil {
		t.Fatalf("SessionSummary() error = %v", err)
	}

	if summary.RequestCount != 3 {
		t.Errorf("RequestCount = %d, want 3", summary.RequestCount)
	}
	if summary.TotalTokens != 520 {
		t.Errorf("TotalTokens = %d, want 520", summary.TotalTokens)
	}
	if math.Abs(summary.TotalCostUSD-0.0035) > 1e-9 {
		t.Errorf("TotalCostUSD = %v, want 0.0035", summary.TotalCostUSD)
	}

	byTemplate, ok := summary.Breakdown["youtube_summary"]
	if !ok {
		t.Fatal("应包含 youtube_summary 分组")
	}
	if byTemplate.Count != 2 || byTemplate.TotalTokens != 450 {
		t.Errorf("youtube_summary 分组 = %+v", byTemplate)
	}

	// 兜底提示词 (templateID=0) 归入 unknown
	fallback, ok := summary.Breakdown["unknown"]
	if !ok {
		t.Fatal("兜底提示词应归入 unknown 分组")
	}
	if fallback.Count != 1 || fallback.TotalTokens != 70 {
		t.Errorf("unknown 分组 = %+v", fallback)
	}
}

func TestUsageRepo_WindowSummary(t *testing.T) {
	db := setupUsageTestDB(t)
	repo := NewUsageRepository(db)
	templateRepo := NewPromptTemplateRepository(db)
	ctx := context.Background()

	cheap, _ := templateRepo.Create(ctx, "keywords", "body", "")
	costly, _ := templateRepo.Create(ctx, "blog_post", "body", "")

	records := []*model.TokenUsage{
		{SessionID: "s1", PromptUsageID: 1, PromptTemplateID: cheap.ID, PromptTokens: 100, CompletionTokens: 50, CostUSD: 0.001},
		{SessionID: "s1", PromptUsageID: 2, PromptTemplateID: costly.ID, PromptTokens: 2000, CompletionTokens: 2000, CostUSD: 0.1},
		{SessionID: "s2", PromptUsageID: 3, PromptTemplateID: costly.ID, PromptTokens: 1000, CompletionTokens: 1000, CostUSD: 0.05},
	}
	for _, r := range records {
		if err := repo.SaveTokenUsage(ctx, r); err != nil {
			t.Fatalf("SaveTokenUsage() error = %v", err)
		}
	}

	summary, err := repo.WindowSummary(ctx, 7)
	if err != nil {
		t.Fatalf("WindowSummary() error = %v", err)
	}

	if summary.PeriodDays != 7 {
		t.Errorf("PeriodDays = %d, want 7", summary.PeriodDays)
	}
	if summary.TotalTokens != 6150 {
		t.Errorf("TotalTokens = %d, want 6150", summary.TotalTokens)
	}
	if len(summary.DailyBreakdown) != 1 {
		t.Fatalf("日明细行数 = %d, want 1", len(summary.DailyBreakdown))
	}
	if summary.DailyBreakdown[0].Requests != 3 {
		t.Errorf("当日调用数 = %d, want 3", summary.DailyBreakdown[0].Requests)
	}

	// Top 按成本降序
	if len(summary.TopTemplates) != 2 {
		t.Fatalf("模板排行数 = %d, want 2", len(summary.TopTemplates))
	}
	if summary.TopTemplates[0].Template != "blog_post" {
		t.Errorf("成本最高模板 = %s, want blog_post", summary.TopTemplates[0].Template)
	}
	if math.Abs(summary.TopTemplates[0].CostUSD-0.15) > 1e-9 {
		t.Errorf("blog_post 成本 = %v, want 0.15", summary.TopTemplates[0].CostUSD)
	}
}

func TestUsageRepo_WindowSummary_DefaultDays(t *testing.T) {
	db := setupUsageTestDB(t)
	repo := NewUsageRepository(db)

	summary, err := repo.WindowSummary(context.Background(), 0)
	if err != nil {
		t.Fatalf("WindowSummary() error = %v", err)
	}
	if summary.PeriodDays != 30 {
		t.Errorf("非法天数应回退 30, got %d", summary.PeriodDays)
	}
	if len(summary.DailyBreakdown) != 0 || len(summary.TopTemplates) != 0 {
		t.Error("空库应返回空明细")
	}
}
