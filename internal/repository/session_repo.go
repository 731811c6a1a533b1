package repository

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"podcast_studio_v1_202608/internal/model"
)

// ==================== 仓储接口 ====================

// SessionRepository 会话仓储接口
type SessionRepository interface {
	Create(ctx context.Context, sessionID, title string) (*model.Session, error)
	GetBySessionID(ctx context.Context, sessionID string) (*model.Session, error)
	UpdateStatus(ctx context.Context, sessionID, status string) error
}

// ==================== 仓储实现 ====================

type sessionRepo struct {
	db *gorm.DB
}

// NewSessionRepository 创建会话仓储
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) Create(ctx context.Context, sessionID, title string) (*model.Session, error) {
	if title == "" {
		title = sessionID
	}
	session := &model.Session{
		SessionID: sessionID,
		Title:     title,
		Status:    model.SessionStatusProcessing,
	}
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	log.Printf("[SessionRepo] 创建会话: %s", sessionID)
	return session, nil
}

func (r *sessionRepo) GetBySessionID(ctx context.Context, sessionID string) (*model.Session, error) {
	var session model.Session
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) UpdateStatus(ctx context.Context, sessionID, status string) error {
	return r.db.WithContext(ctx).Model(&model.Session{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}
