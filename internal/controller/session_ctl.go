package controller

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"podcast_studio_v1_202608/internal/api/dto"
	"podcast_studio_v1_202608/internal/middleware"
	"podcast_studio_v1_202608/internal/model"
	"podcast_studio_v1_202608/internal/repository"
	"podcast_studio_v1_202608/internal/service"
)

type SessionController struct {
	contentService *service.ContentService
	transcribeSvc  *service.TranscribeService
	storage        service.StorageProvider
	sessionRepo    repository.SessionRepository
	transcriptRepo repository.TranscriptRepository
	contentRepo    repository.GeneratedContentRepository
}

func NewSessionController(
	contentService *service.ContentService,
	transcribeSvc *service.TranscribeService,
	storage service.StorageProvider,
	sessionRepo repository.SessionRepository,
	transcriptRepo repository.TranscriptRepository,
	contentRepo repository.GeneratedContentRepository,
) *SessionController {
	return &SessionController{
		contentService: contentService,
		transcribeSvc:  transcribeSvc,
		storage:        storage,
		sessionRepo:    sessionRepo,
		transcriptRepo: transcriptRepo,
		contentRepo:    contentRepo,
	}
}

// ==========================================
// 1. 写操作 (生成 / 上传)
// ==========================================

// GenerateContent 全量生成内容
// @Summary 全量生成八种内容
// @Description 基于转写文本与嘉宾信息生成八种内容，提示词与 token 用量全程落库
// @Tags Session
// @Accept json
// @Produce json
// @Param request body dto.GenerateContentReq true "生成参数"
// @Success 200 {object} map[string]interface{} "{"code": 200, "data": service.GenerateResult}"
// @Failure 400 {object} map[string]string "参数错误"
// @Failure 429 {object} map[string]string "冷却中"
// @Failure 500 {object} map[string]string "生成失败"
// @Router /api/generate-content [post]
func (h *SessionController) GenerateContent(c *gin.Context) {
	var req dto.GenerateContentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": err.Error()})
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	// 同一会话冷却期内拒绝重复生成
	check := middleware.GetLimiter().Check(
		middleware.SessionTaskKey(sessionID, middleware.TaskTypeGenerate),
		middleware.GetInterval(middleware.TaskTypeGenerate),
	)
	if !check.Allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"code":    429,
			"message": fmt.Sprintf("生成任务冷却中，%.0f 秒后重试", check.RetryAfter.Seconds()),
		})
		return
	}

	ctx := c.Request.Context()
	if err := h.ensureSession(c, sessionID, req.VideoTitle); err != nil {
		return
	}

	segments := toModelSegments(req.Segments)
	if _, err := h.transcriptRepo.SaveTranscript(ctx, sessionID, req.Transcript, segments, req.VideoDuration); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": "保存转写失败: " + err.Error()})
		return
	}
	if req.GuestName != "" {
		if err := h.transcriptRepo.SaveGuest(ctx, &model.Guest{
			SessionID:   sessionID,
			Name:        req.GuestName,
			Title:       req.GuestTitle,
			Company:     req.GuestCompany,
			LinkedinURL: req.GuestLinkedin,
		}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": "保存嘉宾信息失败: " + err.Error()})
			return
		}
	}

	result, err := h.contentService.GenerateAllContent(ctx, &service.GenerateInput{
		SessionID:     sessionID,
		Transcript:    req.Transcript,
		Segments:      segments,
		VideoTitle:    req.VideoTitle,
		VideoDuration: req.VideoDuration,
		GuestName:     req.GuestName,
		GuestTitle:    req.GuestTitle,
		GuestCompany:  req.GuestCompany,
		GuestLinkedin: req.GuestLinkedin,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "success", "data": result})
}

// ProcessAudio 上传并转写音频
// @Summary 上传音频并转写
// @Description 上传音频文件到存储，提交语音转写，返回转写结果与新会话 ID
// @Tags Session
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "音频文件"
// @Param title formData string false "节目标题"
// @Success 200 {object} map[string]interface{} "{"code": 200, "data": dto.ProcessAudioResp}"
// @Failure 400 {object} map[string]string "文件缺失"
// @Failure 500 {object} map[string]string "处理失败"
// @Router /api/process-audio [post]
func (h *SessionController) ProcessAudio(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "未提供音频文件"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": err.Error()})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": "读取音频失败: " + err.Error()})
		return
	}

	ctx := c.Request.Context()
	sessionID := uuid.New().String()

	check := middleware.GetLimiter().Check(
		middleware.SessionTaskKey(sessionID, middleware.TaskTypeTranscribe),
		middleware.GetInterval(middleware.TaskTypeTranscribe),
	)
	if !check.Allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{"code": 429, "message": "转写任务冷却中"})
		return
	}

	audioURL, err := h.storage.Upload(ctx, data, fileHeader.Filename, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": "保存音频失败: " + err.Error()})
		return
	}

	title := c.PostForm("title")
	if _, err := h.sessionRepo.Create(ctx, sessionID, title); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": "创建会话失败: " + err.Error()})
		return
	}

	result, err := h.transcribeSvc.Transcribe(ctx, data)
	if err != nil {
		_ = h.sessionRepo.UpdateStatus(ctx, sessionID, model.SessionStatusError)
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": "转写失败: " + err.Error()})
		return
	}

	if _, err := h.transcriptRepo.SaveTranscript(ctx, sessionID, result.Text, result.Segments, result.DurationSeconds); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": "保存转写失败: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "success",
		"data": dto.ProcessAudioResp{
			SessionID:       sessionID,
			AudioURL:        audioURL,
			Transcript:      result.Text,
			Segments:        toDTOSegments(result.Segments),
			DurationSeconds: result.DurationSeconds,
		},
	})
}

// ==========================================
// 2. 读操作 (详情)
// ==========================================

// GetSession 获取会话详情
// @Summary 获取会话详情
// @Description 返回会话状态、最近一次转写、嘉宾信息和已生成内容
// @Tags Session
// @Produce json
// @Param session_id path string true "会话 ID"
// @Success 200 {object} map[string]interface{} "{"code": 200, "data": {...}}"
// @Failure 404 {object} map[string]string "会话不存在"
// @Router /api/sessions/{session_id} [get]
func (h *SessionController) GetSession(c *gin.Context) {
	sessionID := c.Param("session_id")
	ctx := c.Request.Context()

	session, err := h.sessionRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": 404, "message": "会话不存在"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": err.Error()})
		return
	}

	data := gin.H{"session": session}

	if transcript, err := h.transcriptRepo.GetTranscript(ctx, sessionID); err == nil {
		data["transcript"] = transcript
	}
	if guest, err := h.transcriptRepo.GetGuest(ctx, sessionID); err == nil {
		data["guest"] = guest
	}
	if content, err := h.contentRepo.GetBySessionID(ctx, sessionID); err == nil {
		data["content"] = content
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "success", "data": data})
}

// ==========================================
// 辅助方法
// ==========================================

// ensureSession 会话不存在时创建，出错时直接写响应并返回非 nil
func (h *SessionController) ensureSession(c *gin.Context, sessionID, title string) error {
	ctx := c.Request.Context()
	_, err := h.sessionRepo.GetBySessionID(ctx, sessionID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": err.Error()})
		return err
	}
	if _, err := h.sessionRepo.Create(ctx, sessionID, title); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": "创建会话失败: " + err.Error()})
		return err
	}
	return nil
}

func toModelSegments(items []dto.SegmentItem) []model.TranscriptSegment {
	segments := make([]model.TranscriptSegment, 0, len(items))
	for _, item := range items {
		segments = append(segments, model.TranscriptSegment{
			Text:  item.Text,
			Start: item.Start,
			End:   item.End,
		})
	}
	return segments
}

func toDTOSegments(segments []model.TranscriptSegment) []dto.SegmentItem {
	items := make([]dto.SegmentItem, 0, len(segments))
	for _, seg := range segments {
		items = append(items, dto.SegmentItem{
			Text:  seg.Text,
			Start: seg.Start,
			End:   seg.End,
		})
	}
	return items
}
