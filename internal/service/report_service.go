package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"neet_tracker_backend/internal/config"
	"neet_tracker_backend/internal/model"
	"neet_tracker_backend/internal/util"
	"neet_tracker_backend/pkg/logger"
	"neet_tracker_backend/pkg/tracing"
	"os"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// StorageProvider stores rendered reports.
type StorageProvider interface {
	Upload(ctx context.Context, name string, reader io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, name string) error
	GetURL(name string) string
}

// LocalStorageProvider writes reports under Storage.LocalPath.
type LocalStorageProvider struct {
	Config *config.StorageConfig
}

func (p *LocalStorageProvider) Upload(ctx context.Context, name string, reader io.Reader, size int64, contentType string) (string, error) {
	dst := filepath.Join(p.Config.LocalPath, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", err
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, reader); err != nil {
		return "", err
	}
	return p.GetURL(name), nil
}

func (p *LocalStorageProvider) Delete(ctx context.Context, name string) error {
	return os.Remove(filepath.Join(p.Config.LocalPath, filepath.FromSlash(name)))
}

func (p *LocalStorageProvider) GetURL(name string) string {
	return "/uploads/" + name
}

type MinioStorageProvider struct {
	Config *config.StorageConfig
	Client *minio.Client
}

func NewMinioStorageProvider(cfg *config.StorageConfig) (*MinioStorageProvider, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, err
	}
	return &MinioStorageProvider{Config: cfg, Client: client}, nil
}

func (p *MinioStorageProvider) Upload(ctx context.Context, name string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := p.Client.PutObject(ctx, p.Config.MinioBucket, name, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return p.GetURL(name), nil
}

func (p *MinioStorageProvider) Delete(ctx context.Context, name string) error {
	return p.Client.RemoveObject(ctx, p.Config.MinioBucket, name, minio.RemoveObjectOptions{})
}

func (p *MinioStorageProvider) GetURL(name string) string {
	return "/" + p.Config.MinioBucket + "/" + name
}

// NewStorageProvider picks the backend from config, falling back to local
// storage when minio cannot be configured.
func NewStorageProvider(cfg *config.Config) StorageProvider {
	if cfg.Storage.Type == util.StorageMinio {
		p, err := NewMinioStorageProvider(&cfg.Storage)
		if err == nil {
			return p
		}
		logger.Log.Warn("minio storage unavailable, using local storage", zap.Error(err))
	}
	return &LocalStorageProvider{Config: &cfg.Storage}
}

// ReportService renders result reports and archives them.
type ReportService struct {
	Notifications *NotificationService
	Provider      StorageProvider
	Now           func() time.Time
}

func NewReportService(notifications *NotificationService, provider StorageProvider) *ReportService {
	return &ReportService{
		Notifications: notifications,
		Provider:      provider,
		Now:           time.Now,
	}
}

func (s *ReportService) Render(user *model.User, record *model.TestRecord) (Report, error) {
	return s.Notifications.RenderTestResults(user, record)
}

// ObjectName is reports/<user>/<record>-<unix>.html
func (s *ReportService) ObjectName(user *model.User, record *model.TestRecord) string {
	return fmt.Sprintf("reports/%s/%s-%d.html", user.ID, record.RecordID, s.Now().Unix())
}

// Archive stores the HTML report and returns its URL.
func (s *ReportService) Archive(ctx context.Context, user *model.User, record *model.TestRecord) (string, error) {
	ctx, span := tracing.Tracer.Start(ctx, "ReportService.Archive")
	defer span.End()

	report, err := s.Render(user, record)
	if err != nil {
		return "", err
	}

	body := []byte(report.HTML)
	name := s.ObjectName(user, record)
	url, err := s.Provider.Upload(ctx, name, bytes.NewReader(body), int64(len(body)), util.MimeHTML)
	if err != nil {
		logger.Log.Error("archive report", zap.String("object", name), zap.Error(err))
		return "", err
	}

	logger.Log.Info("report archived", zap.String("user_id", user.ID), zap.String("record_id", record.RecordID), zap.String("url", url))
	return url, nil
}
