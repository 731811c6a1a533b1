package service

import (
	"context"

	"podcast_studio_v1_202608/internal/repository"
)

// UsageService 用量报表服务
type UsageService struct {
	usageRepo repository.UsageRepository
}

// NewUsageService 创建用量报表服务
func NewUsageService(usageRepo repository.UsageRepository) *UsageService {
	return &UsageService{usageRepo: usageRepo}
}

// SessionSummary 单会话用量汇总，按模板分组
func (s *UsageService) SessionSummary(ctx context.Context, sessionID string) (*repository.SessionUsageSummary, error) {
	return s.usageRepo.SessionSummary(ctx, sessionID)
}

// WindowSummary 最近 N 天用量报表，days 非法时取 30
func (s *UsageService) WindowSummary(ctx context.Context, days int) (*repository.WindowUsageSummary, error) {
	return s.usageRepo.WindowSummary(ctx, days)
}
