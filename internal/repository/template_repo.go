package repository

import (
	"context"
	"log"

	"gorm.io/gorm"

	"podcast_studio_v1_202608/internal/model"
)

// ==================== 仓储接口 ====================

// PromptTemplateRepository 提示词模板仓储接口
// 不变量：同名模板最多一行 is_active=true；版本号取历史最大值+1，永不复用
type PromptTemplateRepository interface {
	GetActive(ctx context.Context, name string) (*model.PromptTemplate, error)
	ListActive(ctx context.Context) ([]model.PromptTemplate, error)
	Create(ctx context.Context, name, template, notes string) (*model.PromptTemplate, error)
	Replace(ctx context.Context, name, template, notes string) (*model.PromptTemplate, error)
	Seed(ctx context.Context) error
}

// ==================== 仓储实现 ====================

type promptTemplateRepo struct {
	db *gorm.DB
}

// NewPromptTemplateRepository 创建模板仓储
func NewPromptTemplateRepository(db *gorm.DB) PromptTemplateRepository {
	return &promptTemplateRepo{db: db}
}

func (r *promptTemplateRepo) GetActive(ctx context.Context, name string) (*model.PromptTemplate, error) {
	var tmpl model.PromptTemplate
	err := r.db.WithContext(ctx).
		Where("name = ? AND is_active = ?", name, true).
		Order("version DESC").
		First(&tmpl).Error
	if err != nil {
		return nil, err
	}
	return &tmpl, nil
}

func (r *promptTemplateRepo) ListActive(ctx context.Context) ([]model.PromptTemplate, error) {
	var templates []model.PromptTemplate
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&templates).Error
	return templates, err
}

func (r *promptTemplateRepo) Create(ctx context.Context, name, template, notes string) (*model.PromptTemplate, error) {
	var created *model.PromptTemplate
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tmpl, err := createInTx(tx, name, template, notes)
		if err != nil {
			return err
		}
		created = tmpl
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Replace 事务内先下线当前生效版本，再插入新版本
// 读取方要么看到旧版本，要么看到新版本，不会出现两个或零个生效版本
func (r *promptTemplateRepo) Replace(ctx context.Context, name, template, notes string) (*model.PromptTemplate, error) {
	var created *model.PromptTemplate
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.PromptTemplate{}).
			Where("name = ? AND is_active = ?", name, true).
			Update("is_active", false).Error; err != nil {
			return err
		}

		tmpl, err := createInTx(tx, name, template, notes)
		if err != nil {
			return err
		}
		created = tmpl
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Seed 首次启动时写入八种内容类型的默认模板
// 同名已有任意版本则跳过，可在每次启动时安全重复执行
func (r *promptTemplateRepo) Seed(ctx context.Context) error {
	for _, name := range model.ContentTypeNames {
		body, ok := defaultPrompts[name]
		if !ok {
			continue
		}

		var count int64
		if err := r.db.WithContext(ctx).Model(&model.PromptTemplate{}).
			Where("name = ?", name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		if _, err := r.Create(ctx, name, body, "Default template"); err != nil {
			return err
		}
		log.Printf("[TemplateRepo] 初始化默认模板: %s v1", name)
	}
	return nil
}

// createInTx 计算 name 下的历史最大版本号并插入新行
// 统计不区分 is_active，保证版本号不复用
func createInTx(tx *gorm.DB, name, template, notes string) (*model.PromptTemplate, error) {
	var maxVersion int
	if err := tx.Model(&model.PromptTemplate{}).
		Where("name = ?", name).
		Select("COALESCE(MAX(version), 0)").
		Scan(&maxVersion).Error; err != nil {
		return nil, err
	}

	tmpl := &model.PromptTemplate{
		Name:     name,
		Template: template,
		Version:  maxVersion + 1,
		IsActive: true,
		Notes:    notes,
	}
	if err := tx.Create(tmpl).Error; err != nil {
		return nil, err
	}
	log.Printf("[TemplateRepo] 创建模板: %s v%d", name, tmpl.Version)
	return tmpl, nil
}
