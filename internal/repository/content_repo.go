package repository

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"podcast_studio_v1_202608/internal/model"
)

// ==================== 仓储接口 ====================

// GeneratedContentRepository 生成产物仓储接口
type GeneratedContentRepository interface {
	// Save 按 session_id 覆盖写入，重新生成时替换旧产物
	Save(ctx context.Context, content *model.GeneratedContent) error
	GetBySessionID(ctx context.Context, sessionID string) (*model.GeneratedContent, error)
}

// ==================== 仓储实现 ====================

type generatedContentRepo struct {
	db *gorm.DB
}

// NewGeneratedContentRepository 创建生成产物仓储
func NewGeneratedContentRepository(db *gorm.DB) GeneratedContentRepository {
	return &generatedContentRepo{db: db}
}

func (r *generatedContentRepo) Save(ctx context.Context, content *model.GeneratedContent) error {
	if content.GeneratedAt.IsZero() {
		content.GeneratedAt = time.Now()
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"youtube_summary", "blog_post", "two_line_summary", "linkedin_post",
			"keywords", "hashtags", "clickbait_titles", "quotes", "chapter_timestamps",
			"model_used", "generated_at", "updated_at",
		}),
	}).Create(content).Error
	if err != nil {
		return err
	}

	log.Printf("[ContentRepo] 保存生成产物: session=%s model=%s", content.SessionID, content.ModelUsed)
	return nil
}

func (r *generatedContentRepo) GetBySessionID(ctx context.Context, sessionID string) (*model.GeneratedContent, error) {
	var content model.GeneratedContent
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&content).Error
	if err != nil {
		return nil, err
	}
	return &content, nil
}
