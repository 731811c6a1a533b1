package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"podcast_studio_v1_202608/internal/model"
)

// ==================== 仓储接口 ====================

// TranscriptRepository 转写与嘉宾仓储接口
type TranscriptRepository interface {
	SaveTranscript(ctx context.Context, sessionID, rawText string, segments []model.TranscriptSegment, durationSeconds float64) (*model.Transcript, error)
	GetTranscript(ctx context.Context, sessionID string) (*model.Transcript, error)
	SaveGuest(ctx context.Context, guest *model.Guest) error
	GetGuest(ctx context.Context, sessionID string) (*model.Guest, error)
}

// ==================== 仓储实现 ====================

type transcriptRepo struct {
	db *gorm.DB
}

// NewTranscriptRepository 创建转写仓储
func NewTranscriptRepository(db *gorm.DB) TranscriptRepository {
	return &transcriptRepo{db: db}
}

func (r *transcriptRepo) SaveTranscript(ctx context.Context, sessionID, rawText string, segments []model.TranscriptSegment, durationSeconds float64) (*model.Transcript, error) {
	segmentsJSON, err := json.Marshal(segments)
	if err != nil {
		return nil, fmt.Errorf("序列化时间码片段失败: %w", err)
	}

	transcript := &model.Transcript{
		SessionID:       sessionID,
		RawText:         rawText,
		Segments:        datatypes.JSON(segmentsJSON),
		DurationSeconds: durationSeconds,
	}
	if err := r.db.WithContext(ctx).Create(transcript).Error; err != nil {
		return nil, err
	}
	return transcript, nil
}

func (r *transcriptRepo) GetTranscript(ctx context.Context, sessionID string) (*model.Transcript, error) {
	var transcript model.Transcript
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).
		Order("created_at DESC").First(&transcript).Error
	if err != nil {
		return nil, err
	}
	return &transcript, nil
}

func (r *transcriptRepo) SaveGuest(ctx context.Context, guest *model.Guest) error {
	return r.db.WithContext(ctx).Create(guest).Error
}

func (r *transcriptRepo) GetGuest(ctx context.Context, sessionID string) (*model.Guest, error) {
	var guest model.Guest
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).
		Order("created_at DESC").First(&guest).Error
	if err != nil {
		return nil, err
	}
	return &guest, nil
}
