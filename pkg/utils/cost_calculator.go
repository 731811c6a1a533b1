package utils

import (
	"fmt"
	"log"
	"math"
)

// ==================== 价格表 ====================

// ModelPricing 每 1K token 的价格（美元）
type ModelPricing struct {
	Prompt     float64
	Completion float64
}

// 价格表，最后更新于 2026-02
var pricingTable = map[string]ModelPricing{
	"gpt-4-turbo":   {Prompt: 0.01, Completion: 0.03},
	"gpt-4":         {Prompt: 0.03, Completion: 0.06},
	"gpt-3.5-turbo": {Prompt: 0.0005, Completion: 0.0015},
}

// DefaultPricingModel 未知模型兜底使用的价格条目
const DefaultPricingModel = "gpt-4-turbo"

// GetModelPricing 查询模型价格，未收录的模型回退到默认条目，永不失败
func GetModelPricing(model string) ModelPricing {
	if pricing, ok := pricingTable[model]; ok {
		return pricing
	}
	log.Printf("[CostCalculator] 模型 %s 不在价格表中，按 %s 计价", model, DefaultPricingModel)
	return pricingTable[DefaultPricingModel]
}

// ==================== 成本计算 ====================

// CalculateTokenCost 按 token 用量计算单次调用成本，保留 6 位小数
func CalculateTokenCost(promptTokens, completionTokens int, model string) float64 {
	pricing := GetModelPricing(model)

	promptCost := float64(promptTokens) / 1000 * pricing.Prompt
	completionCost := float64(completionTokens) / 1000 * pricing.Completion

	return roundTo(promptCost+completionCost, 6)
}

// RoundReportCost 汇总报表口径的成本取整，保留 4 位小数
func RoundReportCost(cost float64) float64 {
	return roundTo(cost, 4)
}

// SupportedModels 价格表中收录的全部模型
func SupportedModels() []string {
	models := make([]string, 0, len(pricingTable))
	for name := range pricingTable {
		models = append(models, name)
	}
	return models
}

// FormatCost 成本格式化为美元字符串
func FormatCost(cost float64) string {
	return fmt.Sprintf("$%.4f", cost)
}

func roundTo(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
