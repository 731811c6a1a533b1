package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type chatReq struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

func successBody(content string) map[string]interface{} {
	return map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
		"usage": map[string]int{
			"prompt_tokens":     100,
			"completion_tokens": 40,
			"total_tokens":      140,
		},
	}
}

func newTestService(t *testing.T, handler http.HandlerFunc) (*OpenAIService, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc := NewOpenAIService(&OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
	})
	return svc, srv
}

func TestOpenAIService_GenerateText_Success(t *testing.T) {
	var gotReq chatReq
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(successBody("  generated text  "))
	})

	result, err := svc.GenerateText(context.Background(), "write a summary", 600, 0.7)
	if err != nil {
		t.Fatalf("GenerateText() error = %v", err)
	}

	if result.Content != "generated text" {
		t.Errorf("Content = %q, 应去除首尾空白", result.Content)
	}
	if result.PromptTokens != 100 || result.CompletionTokens != 40 || result.TotalTokens != 140 {
		t.Errorf("token 用量解析错误: %+v", result)
	}
	if result.Model != "gpt-5-mini" {
		t.Errorf("Model = %s, want gpt-5-mini (默认首选)", result.Model)
	}

	if gotReq.Model != "gpt-5-mini" {
		t.Errorf("请求模型 = %s", gotReq.Model)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" {
		t.Errorf("应携带 system + user 两条消息: %+v", gotReq.Messages)
	}
	if gotReq.MaxTokens != 600 || gotReq.Temperature != 0.7 {
		t.Errorf("生成参数透传错误: max_tokens=%d temp=%v", gotReq.MaxTokens, gotReq.Temperature)
	}
}

func TestOpenAIService_GenerateText_ContextLengthRetry(t *testing.T) {
	longPrompt := strings.Repeat("a", maxPromptChars+10_000)

	var calls int
	var models []string
	var lastPrompt string
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatReq
		json.NewDecoder(r.Body).Decode(&req)
		calls++
		models = append(models, req.Model)
		lastPrompt = req.Messages[1].Content

		if calls == 1 {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error": {"code": "context_length_exceeded", "message": "maximum context length exceeded"}}`))
			return
		}
		json.NewEncoder(w).Encode(successBody("ok"))
	})

	result, err := svc.GenerateText(context.Background(), longPrompt, 600, 0.7)
	if err != nil {
		t.Fatalf("GenerateText() error = %v", err)
	}

	if calls != 2 {
		t.Errorf("调用次数 = %d, want 2 (截断后重试一次)", calls)
	}
	// 截断重试发生在同一候选模型上
	if models[0] != models[1] {
		t.Errorf("重试换了模型: %v", models)
	}
	if result.Model != "gpt-5-mini" {
		t.Errorf("Model = %s, want gpt-5-mini", result.Model)
	}
	if len(lastPrompt) > maxPromptChars {
		t.Errorf("重试提示词长度 = %d, 应不超过 %d", len(lastPrompt), maxPromptChars)
	}
	if !strings.HasSuffix(lastPrompt, truncationNote) {
		t.Error("截断后的提示词应以截断说明结尾")
	}
}

func TestOpenAIService_GenerateText_ModelFallback(t *testing.T) {
	unavailable := map[string]bool{"gpt-5-mini": true, "gpt-5-nano": true}

	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatReq
		json.NewDecoder(r.Body).Decode(&req)

		if unavailable[req.Model] {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error": {"code": "model_not_found", "message": "The model does not exist or you does not have access to it."}}`))
			return
		}
		json.NewEncoder(w).Encode(successBody("fallback ok"))
	})

	result, err := svc.GenerateText(context.Background(), "prompt", 200, 0.5)
	if err != nil {
		t.Fatalf("GenerateText() error = %v", err)
	}

	// 降级顺序: gpt-5-mini → gpt-5-nano → gpt-5
	if result.Model != "gpt-5" {
		t.Errorf("Model = %s, want gpt-5 (实际服务的模型)", result.Model)
	}
	if result.Content != "fallback ok" {
		t.Errorf("Content = %q", result.Content)
	}
}

func TestOpenAIService_GenerateText_AllModelsExhausted(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": {"code": "model_not_found"}}`))
	})

	_, err := svc.GenerateText(context.Background(), "prompt", 200, 0.5)
	if err == nil {
		t.Fatal("全部候选失败应返回错误")
	}

	var exhausted *ModelsExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("错误类型 = %T, want *ModelsExhaustedError", err)
	}
	// 首选 + 7 个降级候选（去重后）
	if len(exhausted.Tried) != 8 {
		t.Errorf("尝试候选数 = %d, want 8", len(exhausted.Tried))
	}
	if exhausted.Tried[0] != "gpt-5-mini" {
		t.Errorf("首个候选 = %s, want gpt-5-mini", exhausted.Tried[0])
	}
	if exhausted.Unwrap() == nil {
		t.Error("应保留最后一次的底层错误")
	}
}

func TestOpenAIService_GenerateText_NoAPIKey(t *testing.T) {
	svc := NewOpenAIService(&OpenAIConfig{})
	if _, err := svc.GenerateText(context.Background(), "prompt", 100, 0.7); err == nil {
		t.Fatal("未配置 API Key 应直接报错")
	}
}

func TestOpenAIService_CandidateModels_Dedup(t *testing.T) {
	svc := NewOpenAIService(&OpenAIConfig{APIKey: "k", Model: "gpt-4o"})
	models := svc.candidateModels()

	if models[0] != "gpt-4o" {
		t.Errorf("首选应排第一: %v", models)
	}
	seen := make(map[string]bool)
	for _, m := range models {
		if seen[m] {
			t.Errorf("候选列表出现重复模型: %s", m)
		}
		seen[m] = true
	}
	if len(models) != 7 {
		t.Errorf("gpt-4o 已在降级序列中，去重后应为 7 个, got %d", len(models))
	}
}
