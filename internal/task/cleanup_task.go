package task

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
)

// UploadCleaner 上传目录清理任务
// 音频原始文件只在转写阶段有用，转写落库后保留两周供人工复核
type UploadCleaner struct {
	uploadDir string
	maxAge    time.Duration
	Cron      *cron.Cron
}

func NewUploadCleaner(uploadDir string) *UploadCleaner {
	return &UploadCleaner{
		uploadDir: uploadDir,
		maxAge:    336 * time.Hour, // 14 天
		Cron:      cron.New(cron.WithSeconds()),
	}
}

// Start 启动清理任务
func (t *UploadCleaner) Start() {
	go func() {
		log.Println("[UploadCleaner] 服务启动，正在执行首次清理...")
		t.Execute()
	}()

	// 策略：每天凌晨 3 点清理一次
	// Cron: "0 0 3 * * *"
	_, err := t.Cron.AddFunc("0 0 3 * * *", func() {
		t.Execute()
	})
	if err != nil {
		log.Fatalf("无法启动 UploadCleaner: %v", err)
	}

	t.Cron.Start()
	log.Println("UploadCleaner 清理任务已启动 (每天 03:00 执行)")
}

// Execute 执行一次完整清理 (由 Cron 定时触发)
func (t *UploadCleaner) Execute() {
	if t.uploadDir == "" {
		return
	}

	cutoff := time.Now().Add(-t.maxAge)
	var removed int
	var freedBytes int64

	err := filepath.Walk(t.uploadDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			// 目录不存在等情况不算失败，下一轮再试
			return nil
		}
		if info.IsDir() || info.ModTime().After(cutoff) {
			return nil
		}

		size := info.Size()
		if err := os.Remove(path); err != nil {
			log.Printf("[UploadCleaner] 删除文件失败 %s: %v", path, err)
			return nil
		}
		removed++
		freedBytes += size
		return nil
	})
	if err != nil {
		log.Printf("[UploadCleaner] 遍历上传目录失败: %v", err)
		return
	}

	if removed > 0 {
		log.Printf("[UploadCleaner] 清理完成: 删除 %d 个文件，释放 %.2f MB",
			removed, float64(freedBytes)/1024/1024)
	}
}
