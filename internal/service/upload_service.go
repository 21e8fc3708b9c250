package service

import (
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/promodesk/banner-api/internal/config"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
)

var allowedUploadScenes = map[string]struct{}{
	"banner": {},
	"common": {},
}

// UploadResult 上传结果
type UploadResult struct {
	URL        string `json:"url"`
	StorageRef string `json:"storage_ref"`
}

// UploadService 文件上传服务
type UploadService struct {
	cfg *config.Config
}

// NewUploadService 创建文件上传服务实例
func NewUploadService(cfg *config.Config) *UploadService {
	return &UploadService{cfg: cfg}
}

// SaveFile 保存上传的文件
func (s *UploadService) SaveFile(file *multipart.FileHeader, scene string) (*UploadResult, error) {
	// 验证文件大小
	if file.Size > s.cfg.Upload.MaxSize {
		return nil, fmt.Errorf("%w: 文件大小超过限制（最大 %d MB）", ErrInvalidUpload, s.cfg.Upload.MaxSize/1024/1024)
	}

	// 获取文件扩展名
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if len(s.cfg.Upload.AllowedExtensions) > 0 {
		if ext == "" || !isAllowedExtension(ext, s.cfg.Upload.AllowedExtensions) {
			return nil, fmt.Errorf("%w: 文件扩展名不被允许: %s", ErrInvalidUpload, ext)
		}
	}

	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	// 读取文件头部识别 MIME 类型
	buffer := make([]byte, 512)
	_, err = src.Read(buffer)
	if err != nil && err != io.EOF {
		return nil, err
	}
	if _, err := src.Seek(0, 0); err != nil {
		return nil, err
	}

	contentType := http.DetectContentType(buffer)
	if len(s.cfg.Upload.AllowedTypes) > 0 {
		allowed := false
		for _, t := range s.cfg.Upload.AllowedTypes {
			if strings.EqualFold(contentType, t) {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, fmt.Errorf("%w: 文件类型不被允许: %s", ErrInvalidUpload, contentType)
		}
	}

	if strings.HasPrefix(contentType, "image/") && !strings.EqualFold(contentType, "image/webp") {
		if _, err := src.Seek(0, 0); err != nil {
			return nil, err
		}
		cfg, _, err := image.DecodeConfig(src)
		if err != nil {
			return nil, fmt.Errorf("%w: 无法解析图片", ErrInvalidUpload)
		}
		if s.cfg.Upload.MaxWidth > 0 && cfg.Width > s.cfg.Upload.MaxWidth {
			return nil, fmt.Errorf("%w: 图片宽度超过限制（最大 %d）", ErrInvalidUpload, s.cfg.Upload.MaxWidth)
		}
		if s.cfg.Upload.MaxHeight > 0 && cfg.Height > s.cfg.Upload.MaxHeight {
			return nil, fmt.Errorf("%w: 图片高度超过限制（最大 %d）", ErrInvalidUpload, s.cfg.Upload.MaxHeight)
		}
	}

	if _, err := src.Seek(0, 0); err != nil {
		return nil, err
	}

	normalizedScene := normalizeUploadScene(scene)

	// 生成唯一文件名
	filename := fmt.Sprintf("%s%s", uuid.New().String(), ext)
	now := time.Now()
	year := now.Format("2006")
	month := now.Format("01")
	savePath := filepath.Join("uploads", normalizedScene, year, month, filename)

	if err := os.MkdirAll(filepath.Dir(savePath), 0755); err != nil {
		return nil, err
	}

	dst, err := os.Create(savePath)
	if err != nil {
		return nil, err
	}
	defer dst.Close()

	if _, err = io.Copy(dst, src); err != nil {
		return nil, err
	}

	// 返回相对路径，由前端根据环境配置拼接完整 URL
	return &UploadResult{
		URL:        fmt.Sprintf("/uploads/%s/%s/%s/%s", normalizedScene, year, month, filename),
		StorageRef: savePath,
	}, nil
}

func normalizeUploadScene(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return "banner"
	}
	if _, ok := allowedUploadScenes[value]; ok {
		return value
	}
	return "banner"
}

func isAllowedExtension(ext string, allowed []string) bool {
	for _, allowedExt := range allowed {
		normalized := strings.ToLower(strings.TrimSpace(allowedExt))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if strings.EqualFold(ext, normalized) {
			return true
		}
	}
	return false
}
