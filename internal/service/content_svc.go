package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"podcast_studio_v1_202608/internal/model"
	"podcast_studio_v1_202608/internal/repository"
	"podcast_studio_v1_202608/pkg/utils"
)

// ==================== 依赖接口 ====================

// TextGenerator 文本生成依赖（消费方定义）
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, maxTokens int, temperature float64) (*CompletionResult, error)
	Model() string
}

// ==================== 输入输出 ====================

// GenerateInput 一次全量生成的输入
type GenerateInput struct {
	SessionID     string
	Transcript    string
	Segments      []model.TranscriptSegment
	VideoTitle    string
	VideoDuration float64 // 秒

	GuestName     string
	GuestTitle    string
	GuestCompany  string
	GuestLinkedin string
}

// GenerateResult 全量生成结果与累计用量
type GenerateResult struct {
	SessionID        string                  `json:"session_id"`
	Content          *model.GeneratedContent `json:"content"`
	PromptTokens     int                     `json:"prompt_tokens"`
	CompletionTokens int                     `json:"completion_tokens"`
	TotalTokens      int                     `json:"total_tokens"`
	CostUSD          float64                 `json:"cost_usd"`
	ModelUsed        string                  `json:"model_used"`
}

// ==================== 内容序列 ====================

type contentShape int

const (
	shapeText contentShape = iota
	shapeList
	shapeTimestamps
)

// contentStep 单个内容类型的生成参数
type contentStep struct {
	Name        string
	MaxTokens   int
	Temperature float64
	Shape       contentShape
	ListCount   int
	MaxItemLen  int
	DefaultItem func(in *GenerateInput) string
	Fields      func(in *GenerateInput) map[string]string
}

// contentSequence 八种内容类型的固定生成顺序
// keywords 必须排在最后之前生成完毕，hashtags 由它派生
var contentSequence = []contentStep{
	{
		Name: model.ContentTypeYoutubeSummary, MaxTokens: 600, Temperature: 0.7, Shape: shapeText,
		Fields: func(in *GenerateInput) map[string]string {
			return map[string]string{
				"transcript": in.Transcript, "guest_name": in.GuestName,
				"guest_title": in.GuestTitle, "guest_company": in.GuestCompany,
			}
		},
	},
	{
		Name: model.ContentTypeBlogPost, MaxTokens: 2500, Temperature: 0.7, Shape: shapeText,
		Fields: func(in *GenerateInput) map[string]string {
			return map[string]string{
				"transcript": in.Transcript, "guest_name": in.GuestName,
				"guest_title": in.GuestTitle, "guest_company": in.GuestCompany,
				"guest_linkedin": in.GuestLinkedin,
			}
		},
	},
	{
		Name: model.ContentTypeClickbaitTitles, MaxTokens: 800, Temperature: 0.8,
		Shape: shapeList, ListCount: 20, MaxItemLen: 100,
		DefaultItem: func(in *GenerateInput) string {
			return fmt.Sprintf("Insights from %s at %s", in.GuestName, in.GuestCompany)
		},
		Fields: func(in *GenerateInput) map[string]string {
			return map[string]string{
				"transcript": in.Transcript, "guest_name": in.GuestName,
				"guest_company": in.GuestCompany,
			}
		},
	},
	{
		Name: model.ContentTypeTwoLineSummary, MaxTokens: 200, Temperature: 0.7, Shape: shapeText,
		Fields: func(in *GenerateInput) map[string]string {
			return map[string]string{"transcript": in.Transcript}
		},
	},
	{
		Name: model.ContentTypeQuotes, MaxTokens: 1000, Temperature: 0.6,
		Shape: shapeList, ListCount: 20,
		DefaultItem: func(in *GenerateInput) string {
			return "Notable insight from the episode"
		},
		Fields: func(in *GenerateInput) map[string]string {
			return map[string]string{
				"transcript_with_timecodes": FormatSegmentsWithTimecodes(in.Segments, 200, 1),
			}
		},
	},
	{
		Name: model.ContentTypeChapterTimestamps, MaxTokens: 600, Temperature: 0.7, Shape: shapeTimestamps,
		Fields: func(in *GenerateInput) map[string]string {
			return map[string]string{
				"transcript_with_timecodes": FormatSegmentsWithTimecodes(in.Segments, 300, 10),
				"video_duration":            utils.FormatTimestamp(in.VideoDuration),
			}
		},
	},
	{
		Name: model.ContentTypeLinkedinPost, MaxTokens: 800, Temperature: 0.7, Shape: shapeText,
		Fields: func(in *GenerateInput) map[string]string {
			return map[string]string{
				"transcript": in.Transcript, "guest_name": in.GuestName,
				"guest_title": in.GuestTitle, "guest_company": in.GuestCompany,
				"guest_linkedin": in.GuestLinkedin,
			}
		},
	},
	{
		Name: model.ContentTypeKeywords, MaxTokens: 200, Temperature: 0.5, Shape: shapeText,
		Fields: func(in *GenerateInput) map[string]string {
			return map[string]string{
				"transcript": in.Transcript, "guest_name": in.GuestName,
				"guest_title": in.GuestTitle, "guest_company": in.GuestCompany,
			}
		},
	},
}

// ==================== 服务 ====================

// ContentService 内容编排服务
// 按固定序列逐一生成八种内容，提示词与 token 用量全程落库
type ContentService struct {
	sessionRepo  repository.SessionRepository
	templateRepo repository.PromptTemplateRepository
	usageRepo    repository.UsageRepository
	contentRepo  repository.GeneratedContentRepository
	renderer     *PromptRenderer
	generator    TextGenerator
}

// NewContentService 创建内容编排服务
func NewContentService(
	sessionRepo repository.SessionRepository,
	templateRepo repository.PromptTemplateRepository,
	usageRepo repository.UsageRepository,
	contentRepo repository.GeneratedContentRepository,
	renderer *PromptRenderer,
	generator TextGenerator,
) *ContentService {
	return &ContentService{
		sessionRepo:  sessionRepo,
		templateRepo: templateRepo,
		usageRepo:    usageRepo,
		contentRepo:  contentRepo,
		renderer:     renderer,
		generator:    generator,
	}
}

// GenerateAllContent 为一个会话生成全部八种内容
// 任一类型失败则整体失败并把会话置为 error，不产出残缺的内容包；
// 成功后产物按 session_id 覆盖保存，会话置为 completed
func (s *ContentService) GenerateAllContent(ctx context.Context, in *GenerateInput) (*GenerateResult, error) {
	if strings.TrimSpace(in.Transcript) == "" {
		return nil, fmt.Errorf("转写文本为空，无法生成内容")
	}

	log.Printf("[ContentService] 开始全量生成: session=%s guest=%s", in.SessionID, in.GuestName)

	texts := make(map[string]string)
	lists := make(map[string][]string)
	result := &GenerateResult{SessionID: in.SessionID}
	var totalCost float64

	for _, step := range contentSequence {
		res, err := s.generateOne(ctx, in, &step)
		if err != nil {
			log.Printf("[ContentService] 生成 %s 失败: %v", step.Name, err)
			s.markError(ctx, in.SessionID)
			return nil, fmt.Errorf("生成 %s 失败: %w", step.Name, err)
		}

		switch step.Shape {
		case shapeList:
			lists[step.Name] = parseListResponse(res.Content, step.ListCount, step.MaxItemLen, step.DefaultItem(in))
		case shapeTimestamps:
			lists[step.Name] = parseTimestampsResponse(res.Content)
		default:
			text := res.Content
			if step.Name == model.ContentTypeKeywords {
				text = normalizeKeywords(text)
			}
			texts[step.Name] = text
		}

		result.PromptTokens += res.PromptTokens
		result.CompletionTokens += res.CompletionTokens
		totalCost += utils.CalculateTokenCost(res.PromptTokens, res.CompletionTokens, res.Model)
		if result.ModelUsed == "" {
			result.ModelUsed = res.Model
		}
	}

	texts["hashtags"] = generateHashtagsFromKeywords(texts[model.ContentTypeKeywords])

	content, err := s.assembleBundle(in.SessionID, texts, lists, result.ModelUsed)
	if err != nil {
		s.markError(ctx, in.SessionID)
		return nil, err
	}
	if err := s.contentRepo.Save(ctx, content); err != nil {
		s.markError(ctx, in.SessionID)
		return nil, fmt.Errorf("保存生成产物失败: %w", err)
	}

	if err := s.sessionRepo.UpdateStatus(ctx, in.SessionID, model.SessionStatusCompleted); err != nil {
		log.Printf("[ContentService] 更新会话状态失败: %v", err)
	}

	result.Content = content
	result.TotalTokens = result.PromptTokens + result.CompletionTokens
	result.CostUSD = utils.RoundReportCost(totalCost)

	log.Printf("[ContentService] 全量生成完成: session=%s tokens=%d cost=%s model=%s",
		in.SessionID, result.TotalTokens, utils.FormatCost(result.CostUSD), result.ModelUsed)
	return result, nil
}

// generateOne 单类型生成：取模板→渲染→记提示词→调模型→记 token
// 提示词在调用服务商之前落库，失败的调用也能事后审计发出的内容；
// token 记录使用实际服务的模型，降级时成本按降级后模型计价
func (s *ContentService) generateOne(ctx context.Context, in *GenerateInput, step *contentStep) (*CompletionResult, error) {
	var promptText string
	var templateID int64

	tmpl, err := s.templateRepo.GetActive(ctx, step.Name)
	switch {
	case err == nil:
		promptText, err = s.renderer.Render(step.Name, tmpl.Template, step.Fields(in))
		if err != nil {
			return nil, err
		}
		templateID = tmpl.ID
	case errors.Is(err, gorm.ErrRecordNotFound):
		log.Printf("[ContentService] 模板 %s 不存在，使用兜底提示词", step.Name)
		promptText = "Generate " + step.Name
		templateID = 0
	default:
		return nil, fmt.Errorf("查询模板失败: %w", err)
	}

	promptUsage, err := s.usageRepo.SavePromptUsage(ctx, in.SessionID, templateID, promptText)
	if err != nil {
		return nil, fmt.Errorf("记录提示词失败: %w", err)
	}

	res, err := s.generator.GenerateText(ctx, promptText, step.MaxTokens, step.Temperature)
	if err != nil {
		return nil, err
	}

	cost := utils.CalculateTokenCost(res.PromptTokens, res.CompletionTokens, res.Model)
	if err := s.usageRepo.SaveTokenUsage(ctx, &model.TokenUsage{
		SessionID:        in.SessionID,
		PromptUsageID:    promptUsage.ID,
		PromptTemplateID: templateID,
		PromptTokens:     res.PromptTokens,
		CompletionTokens: res.CompletionTokens,
		TotalTokens:      res.TotalTokens,
		Model:            res.Model,
		CostUSD:          cost,
		GeneratedAt:      time.Now(),
	}); err != nil {
		return nil, fmt.Errorf("记录 token 用量失败: %w", err)
	}

	return res, nil
}

// assembleBundle 将散落的文本与列表装配为单行产物记录
func (s *ContentService) assembleBundle(sessionID string, texts map[string]string, lists map[string][]string, modelUsed string) (*model.GeneratedContent, error) {
	content := &model.GeneratedContent{
		SessionID:      sessionID,
		YoutubeSummary: texts[model.ContentTypeYoutubeSummary],
		BlogPost:       texts[model.ContentTypeBlogPost],
		TwoLineSummary: texts[model.ContentTypeTwoLineSummary],
		LinkedinPost:   texts[model.ContentTypeLinkedinPost],
		Keywords:       texts[model.ContentTypeKeywords],
		Hashtags:       texts["hashtags"],
		ModelUsed:      modelUsed,
		GeneratedAt:    time.Now(),
	}

	for name, dst := range map[string]*datatypes.JSON{
		model.ContentTypeClickbaitTitles: &content.ClickbaitTitles,
		model.ContentTypeQuotes:    &content.Quotes,
		model.ContentTypeChapterTimestamps:  &content.ChapterTimestamps,
	} {
		data, err := json.Marshal(lists[name])
		if err != nil {
			return nil, fmt.Errorf("序列化 %s 失败: %w", name, err)
		}
		*dst = datatypes.JSON(data)
	}
	return content, nil
}

// markError 失败路径上尽力把会话标记为 error，标记失败只记日志
func (s *ContentService) markError(ctx context.Context, sessionID string) {
	if err := s.sessionRepo.UpdateStatus(ctx, sessionID, model.SessionStatusError); err != nil {
		log.Printf("[ContentService] 标记会话失败状态出错: %v", err)
	}
}
