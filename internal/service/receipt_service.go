package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/ledgerline/crm-api/internal/auth"
	"github.com/ledgerline/crm-api/internal/domain"
	"github.com/ledgerline/crm-api/internal/storage"
	"go.uber.org/zap"
)

// AllowedReceiptTypes lists the accepted receipt content types
var AllowedReceiptTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// ReceiptService stores expense receipts
type ReceiptService struct {
	storage  storage.Storage
	maxBytes int64
	logger   *zap.Logger
}

// NewReceiptService creates a new ReceiptService
func NewReceiptService(store storage.Storage, maxBytes int64, logger *zap.Logger) *ReceiptService {
	return &ReceiptService{storage: store, maxBytes: maxBytes, logger: logger}
}

// MaxBytes returns the upload size limit
func (s *ReceiptService) MaxBytes() int64 {
	return s.maxBytes
}

// Upload stores a receipt in the caller's folder and returns its public URL
func (s *ReceiptService) Upload(ctx context.Context, filename, contentType string, size int64, data io.Reader) (*domain.ReceiptUploadResponse, error) {
	caller, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if filename == "" {
		return nil, fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}
	if !AllowedReceiptTypes[contentType] {
		return nil, fmt.Errorf("%w: unsupported receipt type %q", ErrInvalidInput, contentType)
	}
	if s.maxBytes > 0 && size > s.maxBytes {
		return nil, fmt.Errorf("%w: receipt exceeds %d bytes", ErrInvalidInput, s.maxBytes)
	}

	obj, err := s.storage.Put(ctx, path.Join("receipts", caller.UserID), filename, contentType, data)
	if err != nil {
		return nil, fmt.Errorf("failed to store receipt: %w", err)
	}

	s.logger.Info("receipt uploaded",
		zap.String("path", obj.Path),
		zap.Int64("size", obj.Size),
		zap.String("user_id", caller.UserID),
	)
	return &domain.ReceiptUploadResponse{
		ReceiptURL: s.storage.URL(obj.Path),
		FileName:   filename,
		Size:       obj.Size,
	}, nil
}

// Open streams a stored receipt
func (s *ReceiptService) Open(ctx context.Context, objectPath string) (io.ReadCloser, error) {
	if !strings.HasPrefix(objectPath, "receipts/") {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, objectPath)
	}
	rc, err := s.storage.Open(ctx, objectPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return rc, nil
}

// RemoveByURL deletes a receipt previously returned by Upload. URLs pointing
// elsewhere are ignored; failures are only logged.
func (s *ReceiptService) RemoveByURL(ctx context.Context, receiptURL string) {
	base := s.storage.URL("")
	if !strings.HasPrefix(receiptURL, base) {
		return
	}
	objectPath := strings.TrimPrefix(receiptURL, base)
	if err := s.storage.Remove(ctx, objectPath); err != nil {
		s.logger.Warn("failed to remove receipt", zap.String("path", objectPath), zap.Error(err))
		return
	}
	s.logger.Info("receipt removed", zap.String("path", objectPath))
}
