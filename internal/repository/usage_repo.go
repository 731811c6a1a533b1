package repository

import (
	"context"
	"log"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"podcast_studio_v1_202608/internal/model"
	"podcast_studio_v1_202608/pkg/utils"
)

// ==================== 仓储接口 ====================

// UsageRepository 用量台账仓储接口
// PromptUsage 必须在调用服务商之前落库，TokenUsage 仅在调用成功后写入
type UsageRepository interface {
	SavePromptUsage(ctx context.Context, sessionID string, templateID int64, promptText string) (*model.PromptUsage, error)
	SaveTokenUsage(ctx context.Context, usage *model.TokenUsage) error

	ListPromptUsage(ctx context.Context, sessionID string) ([]model.PromptUsage, error)
	ListTokenUsage(ctx context.Context, sessionID string) ([]model.TokenUsage, error)

	SessionSummary(ctx context.Context, sessionID string) (*SessionUsageSummary, error)
	WindowSummary(ctx context.Context, days int) (*WindowUsageSummary, error)
}

// ==================== 统计结构 ====================

// TemplateUsageStats 单个模板的用量统计
type TemplateUsageStats struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	CostUSD          float64 `json:"cost_usd"`
	Count            int     `json:"count"`
}

// SessionUsageSummary 单个会话的用量汇总
type SessionUsageSummary struct {
	SessionID    string                         `json:"session_id"`
	TotalTokens  int                            `json:"total_tokens"`
	TotalCostUSD float64                        `json:"total_cost_usd"`
	RequestCount int                            `json:"request_count"`
	Breakdown    map[string]*TemplateUsageStats `json:"breakdown_by_template"`
}

// DailyUsageStats 单日用量
type DailyUsageStats struct {
	Date     string  `json:"date"`
	Tokens   int64   `json:"tokens"`
	CostUSD  float64 `json:"cost"`
	Requests int64   `json:"requests"`
}

// TemplateCost 模板累计成本
type TemplateCost struct {
	Template string  `json:"template"`
	CostUSD  float64 `json:"cost"`
}

// WindowUsageSummary 最近 N 天的用量报表
type WindowUsageSummary struct {
	PeriodDays     int               `json:"period_days"`
	TotalTokens    int64             `json:"total_tokens"`
	TotalCostUSD   float64           `json:"total_cost_usd"`
	DailyBreakdown []DailyUsageStats `json:"daily_breakdown"`
	TopTemplates   []TemplateCost    `json:"top_templates_by_cost"`
}

// ==================== 仓储实现 ====================

type usageRepo struct {
	db *gorm.DB
}

// NewUsageRepository 创建用量仓储
func NewUsageRepository(db *gorm.DB) UsageRepository {
	return &usageRepo{db: db}
}

func (r *usageRepo) SavePromptUsage(ctx context.Context, sessionID string, templateID int64, promptText string) (*model.PromptUsage, error) {
	usage := &model.PromptUsage{
		SessionID:        sessionID,
		PromptTemplateID: templateID,
		PromptText:       promptText,
		GeneratedAt:      time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(usage).Error; err != nil {
		return nil, err
	}
	return usage, nil
}

// SaveTokenUsage 写入单次调用的 token 记录，随后增量更新当日汇总
// 汇总可由明细重建，明细不能由汇总重建：汇总失败只告警，不回滚明细
func (r *usageRepo) SaveTokenUsage(ctx context.Context, usage *model.TokenUsage) error {
	if usage.GeneratedAt.IsZero() {
		usage.GeneratedAt = time.Now()
	}
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	}

	if err := r.db.WithContext(ctx).Create(usage).Error; err != nil {
		return err
	}

	day := usage.GeneratedAt.Format("2006-01-02")
	if err := r.upsertDailySummary(ctx, day, usage.TotalTokens, usage.CostUSD); err != nil {
		log.Printf("[UsageRepo] 更新日汇总失败(明细已落库): %v", err)
	}
	return nil
}

// upsertDailySummary 按日期做原子累加，并发写入同一天不会丢更新
func (r *usageRepo) upsertDailySummary(ctx context.Context, date string, tokens int, cost float64) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_tokens":   gorm.Expr("total_tokens + ?", tokens),
			"total_cost_usd": gorm.Expr("total_cost_usd + ?", cost),
			"request_count":  gorm.Expr("request_count + 1"),
			"updated_at":     time.Now(),
		}),
	}).Create(&model.UsageSummary{
		Date:         date,
		TotalTokens:  int64(tokens),
		TotalCostUSD: cost,
		RequestCount: 1,
	}).Error
}

func (r *usageRepo) ListPromptUsage(ctx context.Context, sessionID string) ([]model.PromptUsage, error) {
	var usages []model.PromptUsage
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("generated_at ASC").
		Find(&usages).Error
	return usages, err
}

func (r *usageRepo) ListTokenUsage(ctx context.Context, sessionID string) ([]model.TokenUsage, error) {
	var usages []model.TokenUsage
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("generated_at ASC").
		Find(&usages).Error
	return usages, err
}

func (r *usageRepo) SessionSummary(ctx context.Context, sessionID string) (*SessionUsageSummary, error) {
	usages, err := r.ListTokenUsage(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	names, err := r.templateNames(ctx, usages)
	if err != nil {
		return nil, err
	}

	summary := &SessionUsageSummary{
		SessionID:    sessionID,
		RequestCount: len(usages),
		Breakdown:    make(map[string]*TemplateUsageStats),
	}

	var totalCost float64
	for _, u := range usages {
		summary.TotalTokens += u.TotalTokens
		totalCost += u.CostUSD

		name := names[u.PromptTemplateID]
		stats, ok := summary.Breakdown[name]
		if !ok {
			stats = &TemplateUsageStats{}
			summary.Breakdown[name] = stats
		}
		stats.PromptTokens += u.PromptTokens
		stats.CompletionTokens += u.CompletionTokens
		stats.TotalTokens += u.TotalTokens
		stats.CostUSD += u.CostUSD
		stats.Count++
	}
	summary.TotalCostUSD = utils.RoundReportCost(totalCost)

	return summary, nil
}

// WindowSummary 最近 N 天的日汇总 + 按成本排序的模板 Top10
// 排名降序，同成本按首次出现顺序，最多 10 条
func (r *usageRepo) WindowSummary(ctx context.Context, days int) (*WindowUsageSummary, error) {
	if days <= 0 {
		days = 30
	}
	startDate := time.Now().AddDate(0, 0, -days).Format("2006-01-02")

	var summaries []model.UsageSummary
	if err := r.db.WithContext(ctx).
		Where("date >= ?", startDate).
		Order("date DESC").
		Find(&summaries).Error; err != nil {
		return nil, err
	}

	result := &WindowUsageSummary{
		PeriodDays:     days,
		DailyBreakdown: make([]DailyUsageStats, 0, len(summaries)),
		TopTemplates:   []TemplateCost{},
	}

	var totalCost float64
	for _, s := range summaries {
		result.TotalTokens += s.TotalTokens
		totalCost += s.TotalCostUSD
		result.DailyBreakdown = append(result.DailyBreakdown, DailyUsageStats{
			Date:     s.Date,
			Tokens:   s.TotalTokens,
			CostUSD:  utils.RoundReportCost(s.TotalCostUSD),
			Requests: s.RequestCount,
		})
	}
	result.TotalCostUSD = utils.RoundReportCost(totalCost)

	startTime, _ := time.ParseInLocation("2006-01-02", startDate, time.Local)
	var usages []model.TokenUsage
	if err := r.db.WithContext(ctx).
		Where("generated_at >= ?", startTime).
		Order("generated_at ASC").
		Find(&usages).Error; err != nil {
		return nil, err
	}

	names, err := r.templateNames(ctx, usages)
	if err != nil {
		return nil, err
	}

	// 按首次出现顺序累加，稳定排序保证同成本时先出现者靠前
	costByTemplate := make(map[string]float64)
	order := make([]string, 0)
	for _, u := range usages {
		name := names[u.PromptTemplateID]
		if _, seen := costByTemplate[name]; !seen {
			order = append(order, name)
		}
		costByTemplate[name] += u.CostUSD
	}

	sort.SliceStable(order, func(i, j int) bool {
		return costByTemplate[order[i]] > costByTemplate[order[j]]
	})
	if len(order) > 10 {
		order = order[:10]
	}
	for _, name := range order {
		result.TopTemplates = append(result.TopTemplates, TemplateCost{
			Template: name,
			CostUSD:  utils.RoundReportCost(costByTemplate[name]),
		})
	}

	return result, nil
}

// templateNames 批量查模板名，templateID 为 0（兜底提示词）映射为 unknown
func (r *usageRepo) templateNames(ctx context.Context, usages []model.TokenUsage) (map[int64]string, error) {
	names := map[int64]string{0: "unknown"}

	ids := make([]int64, 0, len(usages))
	for _, u := range usages {
		if u.PromptTemplateID == 0 {
			continue
		}
		if _, ok := names[u.PromptTemplateID]; !ok {
			names[u.PromptTemplateID] = ""
			ids = append(ids, u.PromptTemplateID)
		}
	}
	if len(ids) == 0 {
		return names, nil
	}

	var templates []model.PromptTemplate
	if err := r.db.WithContext(ctx).
		Select("id", "name").
		Where("id IN ?", ids).
		Find(&templates).Error; err != nil {
		return nil, err
	}
	for _, t := range templates {
		names[t.ID] = t.Name
	}
	for id, name := range names {
		if name == "" {
			names[id] = "unknown"
		}
	}
	return names, nil
}
