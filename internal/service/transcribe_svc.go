package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-resty/resty/v2"

	"podcast_studio_v1_202608/internal/model"
)

// ==================== 配置 ====================

// TranscribeConfig 语音转写服务配置
type TranscribeConfig struct {
	APIKey  string
	BaseURL string // 默认 AssemblyAI 官方端点
}

const transcribePollInterval = 3 * time.Second

// ==================== 结果 ====================

// TranscribeResult 转写结果
type TranscribeResult struct {
	Text            string
	Segments        []model.TranscriptSegment
	DurationSeconds float64
}

// ==================== 服务 ====================

// TranscribeService AssemblyAI 语音转写
// 上传音频→提交任务→轮询直到 completed 或 error
type TranscribeService struct {
	config *TranscribeConfig
	client *resty.Client
}

// NewTranscribeService 创建转写服务
func NewTranscribeService(cfg *TranscribeConfig) *TranscribeService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.assemblyai.com/v2"
	}
	return &TranscribeService{
		config: cfg,
		client: resty.New().SetHeader("authorization", cfg.APIKey),
	}
}

// Transcribe 转写音频文件，阻塞直到任务完成
func (s *TranscribeService) Transcribe(ctx context.Context, audioData []byte) (*TranscribeResult, error) {
	if s.config.APIKey == "" {
		return nil, fmt.Errorf("AssemblyAI API Key 未配置")
	}

	uploadURL, err := s.uploadAudio(ctx, audioData)
	if err != nil {
		return nil, err
	}

	transcriptID, err := s.submitTranscript(ctx, uploadURL)
	if err != nil {
		return nil, err
	}
	log.Printf("[TranscribeService] 转写任务已提交: %s", transcriptID)

	return s.pollTranscript(ctx, transcriptID)
}

func (s *TranscribeService) uploadAudio(ctx context.Context, audioData []byte) (string, error) {
	var res struct {
		UploadURL string `json:"upload_url"`
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/octet-stream").
		SetBody(audioData).
		SetResult(&res).
		Post(s.config.BaseURL + "/upload")
	if err != nil {
		return "", fmt.Errorf("上传音频失败: %v", err)
	}
	if resp.StatusCode() != 200 || res.UploadURL == "" {
		return "", fmt.Errorf("上传音频失败 (Status %d): %s", resp.StatusCode(), resp.String())
	}
	return res.UploadURL, nil
}

func (s *TranscribeService) submitTranscript(ctx context.Context, audioURL string) (string, error) {
	var res struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Error  string `json:"error"`
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{"audio_url": audioURL}).
		SetResult(&res).
		Post(s.config.BaseURL + "/transcript")
	if err != nil {
		return "", fmt.Errorf("提交转写任务失败: %v", err)
	}
	if resp.StatusCode() != 200 || res.ID == "" {
		return "", fmt.Errorf("提交转写任务失败 (Status %d): %s", resp.StatusCode(), resp.String())
	}
	return res.ID, nil
}

// transcriptResp AssemblyAI 任务查询响应，时间字段单位为毫秒
type transcriptResp struct {
	ID            string  `json:"id"`
	Status        string  `json:"status"`
	Text          string  `json:"text"`
	Error         string  `json:"error"`
	AudioDuration float64 `json:"audio_duration"` // 秒
	Utterances    []struct {
		Text  string  `json:"text"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"utterances"`
	Words []struct {
		Text  string  `json:"text"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"words"`
	Sentences []struct {
		Text  string  `json:"text"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"sentences"`
}

func (s *TranscribeService) pollTranscript(ctx context.Context, transcriptID string) (*TranscribeResult, error) {
	ticker := time.NewTicker(transcribePollInterval)
	defer ticker.Stop()

	for {
		var res transcriptResp
		resp, err := s.client.R().
			SetContext(ctx).
			SetResult(&res).
			Get(s.config.BaseURL + "/transcript/" + transcriptID)
		if err != nil {
			return nil, fmt.Errorf("查询转写任务失败: %v", err)
		}
		if resp.StatusCode() != 200 {
			return nil, fmt.Errorf("查询转写任务失败 (Status %d): %s", resp.StatusCode(), resp.String())
		}

		switch res.Status {
		case "completed":
			return buildTranscribeResult(&res), nil
		case "error":
			return nil, fmt.Errorf("转写任务失败: %s", res.Error)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// buildTranscribeResult 优先用句级分段，退化为整段文本
func buildTranscribeResult(res *transcriptResp) *TranscribeResult {
	result := &TranscribeResult{
		Text:            res.Text,
		DurationSeconds: res.AudioDuration,
	}

	for _, s := range res.Sentences {
		result.Segments = append(result.Segments, model.TranscriptSegment{
			Text:  s.Text,
			Start: s.Start / 1000,
			End:   s.End / 1000,
		})
	}
	if len(result.Segments) == 0 {
		for _, u := range res.Utterances {
			result.Segments = append(result.Segments, model.TranscriptSegment{
				Text:  u.Text,
				Start: u.Start / 1000,
				End:   u.End / 1000,
			})
		}
	}
	if len(result.Segments) == 0 && res.Text != "" {
		result.Segments = []model.TranscriptSegment{{Text: res.Text, Start: 0, End: res.AudioDuration}}
	}
	return result
}
