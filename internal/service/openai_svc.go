package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// ==================== 配置 ====================

// OpenAIConfig 文本生成服务配置
type OpenAIConfig struct {
	APIKey  string
	Model   string // 首选模型，如 "gpt-5-mini"
	BaseURL string // 默认官方端点，可指向自建网关或测试服务
}

const (
	// 16k 上下文模型的安全提示词长度（约 12.5k token），为系统消息和输出留余量
	maxPromptChars = 50_000

	truncationNote = "\n\n[Transcript truncated due to length. Content generated from the first part of the episode.]"

	systemMessage = "You are a professional content writer specializing in podcast summaries, blog posts, and marketing content."
)

// 降级序列：优先 5 系（大上下文），其次 4o/4o-mini 兼容无 5 系权限的项目
var fallbackModels = []string{
	"gpt-5-nano", "gpt-5", "gpt-5.1", "gpt-5.2",
	"gpt-4o-mini", "gpt-4o", "gpt-3.5-turbo",
}

// ==================== 结果与错误 ====================

// CompletionResult 单次生成结果
// Model 为实际服务本次调用的模型，降级时与配置的首选模型不同
type CompletionResult struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Model            string
}

// ModelsExhaustedError 所有候选模型均失败
type ModelsExhaustedError struct {
	Tried []string
	Last  error
}

func (e *ModelsExhaustedError) Error() string {
	return fmt.Sprintf("所有候选模型均不可用，已尝试: %s，最后错误: %v",
		strings.Join(e.Tried, ", "), e.Last)
}

func (e *ModelsExhaustedError) Unwrap() error {
	return e.Last
}

// ==================== 服务 ====================

// OpenAIService 文本生成服务
// 按候选模型列表降级，上下文超限时截断后在同一模型上重试一次
type OpenAIService struct {
	config *OpenAIConfig
	client *http.Client
}

// NewOpenAIService 创建文本生成服务
func NewOpenAIService(cfg *OpenAIConfig) *OpenAIService {
	if cfg.Model == "" {
		cfg.Model = "gpt-5-mini"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	return &OpenAIService{
		config: cfg,
		// 单次调用超时，超时按当前候选失败处理，不会无界阻塞
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// Model 配置的首选模型
func (s *OpenAIService) Model() string {
	return s.config.Model
}

// GenerateText 生成文本并返回 token 用量
// 候选 × 重试的二维有界循环：上下文超限在同一候选上截断重试一次，
// 其他错误放弃当前候选换下一个，最多 候选数 × 2 次尝试后必然终止
func (s *OpenAIService) GenerateText(ctx context.Context, prompt string, maxTokens int, temperature float64) (*CompletionResult, error) {
	if s.config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API Key 未配置")
	}

	models := s.candidateModels()
	var lastErr error

	for _, candidate := range models {
		content := prompt
		truncated := false

		for attempt := 0; attempt < 2; attempt++ {
			result, err := s.callOnce(ctx, candidate, content, maxTokens, temperature)
			if err == nil {
				if candidate != s.config.Model {
					log.Printf("[OpenAIService] 首选模型 %s 不可用，已降级到 %s", s.config.Model, candidate)
				}
				if truncated {
					log.Printf("[OpenAIService] 提示词截断后重试成功")
				}
				return result, nil
			}

			lastErr = err
			if isContextLengthError(err) && attempt == 0 && len(content) > maxPromptChars {
				log.Printf("[OpenAIService] 上下文超限，截断提示词后重试一次")
				content = truncatePrompt(content, maxPromptChars)
				truncated = true
				continue
			}
			if isModelUnavailableError(err) {
				log.Printf("[OpenAIService] 模型 %s 不可用，尝试下一个候选", candidate)
			}
			break
		}
	}

	return nil, &ModelsExhaustedError{Tried: models, Last: lastErr}
}

// candidateModels 首选模型 + 去重后的降级序列
func (s *OpenAIService) candidateModels() []string {
	models := []string{s.config.Model}
	for _, m := range fallbackModels {
		if m != s.config.Model {
			models = append(models, m)
		}
	}
	return models
}

// callOnce 单次 Chat Completions 调用
func (s *OpenAIService) callOnce(ctx context.Context, model, prompt string, maxTokens int, temperature float64) (*CompletionResult, error) {
	reqBody := map[string]interface{}{
		"model": model,
		"messages": []map[string]string{
			{"role": "system", "content": systemMessage},
			{"role": "user", "content": prompt},
		},
		"max_tokens":  maxTokens,
		"temperature": temperature,
	}

	bodyBytes, _ := json.Marshal(reqBody)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.config.BaseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("请求失败: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenAI API 错误 [%d]: %s", resp.StatusCode, string(respBody))
	}

	var apiResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("解析响应失败: %v", err)
	}
	if len(apiResp.Choices) == 0 {
		return nil, fmt.Errorf("无生成结果")
	}

	return &CompletionResult{
		Content:          strings.TrimSpace(apiResp.Choices[0].Message.Content),
		PromptTokens:     apiResp.Usage.PromptTokens,
		CompletionTokens: apiResp.Usage.CompletionTokens,
		TotalTokens:      apiResp.Usage.TotalTokens,
		Model:            model,
	}, nil
}

// ==================== 错误判定与截断 ====================

func isContextLengthError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "context_length_exceeded") ||
		strings.Contains(msg, "maximum context length")
}

func isModelUnavailableError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "model_not_found") ||
		strings.Contains(msg, "does not have access")
}

// truncatePrompt 截断到字符预算以内，末尾附可见的截断说明
func truncatePrompt(prompt string, maxChars int) string {
	if len(prompt) <= maxChars {
		return prompt
	}
	return prompt[:maxChars-len(truncationNote)] + truncationNote
}
