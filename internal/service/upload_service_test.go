package service

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/promodesk/banner-api/internal/config"
)

func uploadTestConfig() *config.Config {
	return &config.Config{
		Upload: config.UploadConfig{
			MaxSize:           1024 * 1024,
			AllowedExtensions: []string{".png", "jpg"},
			AllowedTypes:      []string{"image/png", "image/jpeg"},
			MaxWidth:          1000,
			MaxHeight:         1000,
		},
	}
}

func buildUploadRequest(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file failed: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write form file failed: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer failed: %v", err)
	}

	req := httptest.NewRequest("POST", "/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if err := req.ParseMultipartForm(4 << 20); err != nil {
		t.Fatalf("parse multipart form failed: %v", err)
	}
	return req.MultipartForm.File["file"][0]
}

func smallPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png failed: %v", err)
	}
	return buf.Bytes()
}

func TestSaveFileHappyPath(t *testing.T) {
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd failed: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	svc := NewUploadService(uploadTestConfig())
	header := buildUploadRequest(t, "banner.png", smallPNG(t, 2, 2))

	result, err := svc.SaveFile(header, "banner")
	if err != nil {
		t.Fatalf("save file failed: %v", err)
	}
	if !strings.HasPrefix(result.URL, "/uploads/banner/") {
		t.Fatalf("url should live under /uploads/banner/, got %s", result.URL)
	}
	if !strings.HasSuffix(result.URL, ".png") {
		t.Fatalf("url should keep the extension, got %s", result.URL)
	}
	if _, err := os.Stat(result.StorageRef); err != nil {
		t.Fatalf("stored file should exist at storage ref: %v", err)
	}
}

func TestSaveFileRejectsInvalidInput(t *testing.T) {
	svc := NewUploadService(uploadTestConfig())

	// 大小在打开文件前校验，合成 header 即可
	oversized := &multipart.FileHeader{Filename: "big.png", Size: 2 * 1024 * 1024}
	if _, err := svc.SaveFile(oversized, "banner"); !errors.Is(err, ErrInvalidUpload) {
		t.Fatalf("oversized file want ErrInvalidUpload got %v", err)
	}

	badExt := &multipart.FileHeader{Filename: "script.sh", Size: 10}
	if _, err := svc.SaveFile(badExt, "banner"); !errors.Is(err, ErrInvalidUpload) {
		t.Fatalf("bad extension want ErrInvalidUpload got %v", err)
	}

	header := buildUploadRequest(t, "fake.png", []byte("#!/bin/sh\necho hi\n"))
	if _, err := svc.SaveFile(header, "banner"); !errors.Is(err, ErrInvalidUpload) {
		t.Fatalf("mismatched content type want ErrInvalidUpload got %v", err)
	}
}

func TestSaveFileRejectsOversizedImage(t *testing.T) {
	cfg := uploadTestConfig()
	cfg.Upload.MaxWidth = 1
	svc := NewUploadService(cfg)

	header := buildUploadRequest(t, "wide.png", smallPNG(t, 5, 1))
	if _, err := svc.SaveFile(header, "banner"); !errors.Is(err, ErrInvalidUpload) {
		t.Fatalf("too wide image want ErrInvalidUpload got %v", err)
	}
}

func TestNormalizeUploadScene(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "banner", want: "banner"},
		{in: " Common ", want: "common"},
		{in: "", want: "banner"},
		{in: "../../etc", want: "banner"},
	}
	for _, tc := range cases {
		if got := normalizeUploadScene(tc.in); got != tc.want {
			t.Fatalf("normalizeUploadScene(%q) want %q got %q", tc.in, tc.want, got)
		}
	}
}
