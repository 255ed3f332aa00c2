package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"path/filepath"
	"strings"
	"time"

	"github.com/centavo/centavo-backend/internal/domain"
	"github.com/centavo/centavo-backend/internal/repository/storage"
	"github.com/centavo/centavo-backend/internal/websocket"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	MaxReceiptSize   = 5 * 1024 * 1024 // 5MB
	MinReceiptWidth  = 50
	MinReceiptHeight = 50
	ThumbnailWidth   = 200
	DisplayWidth     = 800
	JPEGQuality      = 85

	// ReceiptURLExpiry bounds how long a presigned receipt URL stays valid
	ReceiptURLExpiry = 15 * time.Minute
)

var (
	ErrReceiptTooLarge             = errors.New("file too large. Maximum size is 5MB")
	ErrInvalidReceiptFormat        = errors.New("invalid format. Supported: JPEG, PNG, WebP")
	ErrReceiptTooSmall             = errors.New("image too small. Minimum 50x50 pixels")
	ErrInvalidReceiptData          = errors.New("invalid image data")
	ErrReceiptStorageNotConfigured = errors.New("receipt storage not configured")
)

// AllowedReceiptExtensions maps accepted extensions to content types
var AllowedReceiptExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

var receiptVariants = []string{"thumb", "display", "original"}

// ReceiptURLs contains presigned URLs for each stored variant of a receipt
type ReceiptURLs struct {
	ThumbnailURL string `json:"thumbnailUrl"`
	DisplayURL   string `json:"displayUrl"`
	OriginalURL  string `json:"originalUrl"`
}

// ReceiptService attaches receipt images to transactions. Uploads are
// validated, resized into thumb/display/original variants and stored in
// object storage; the transaction row records the base object path.
type ReceiptService struct {
	storage         storage.ReceiptRepository
	transactionRepo domain.TransactionRepository
	eventPublisher  websocket.EventPublisher
}

// NewReceiptService creates a new ReceiptService
func NewReceiptService(storage storage.ReceiptRepository, transactionRepo domain.TransactionRepository) *ReceiptService {
	return &ReceiptService{
		storage:         storage,
		transactionRepo: transactionRepo,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *ReceiptService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// IsEnabled indicates whether receipt storage is configured
func (s *ReceiptService) IsEnabled() bool {
	return s != nil && s.storage != nil
}

// validateAndDecode validates the upload and returns the decoded image
func validateAndDecode(data []byte, filename string) (image.Image, error) {
	if len(data) > MaxReceiptSize {
		return nil, ErrReceiptTooLarge
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := AllowedReceiptExtensions[ext]; !ok {
		return nil, ErrInvalidReceiptFormat
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrInvalidReceiptData
	}

	bounds := img.Bounds()
	if bounds.Dx() < MinReceiptWidth || bounds.Dy() < MinReceiptHeight {
		return nil, ErrReceiptTooSmall
	}

	return img, nil
}

// AttachReceipt validates and stores a receipt image for a transaction,
// replacing any previous one. The stored path on the transaction is the
// variant-less base; variant object keys derive from it.
func (s *ReceiptService) AttachReceipt(ctx context.Context, workspaceID int32, transactionID int32, data []byte, filename string) (*domain.Transaction, error) {
	if !s.IsEnabled() {
		return nil, ErrReceiptStorageNotConfigured
	}

	transaction, err := s.transactionRepo.GetByID(workspaceID, transactionID)
	if err != nil {
		return nil, err
	}

	img, err := validateAndDecode(data, filename)
	if err != nil {
		return nil, err
	}

	basePath := fmt.Sprintf("%d/receipts/%d/%s", workspaceID, transactionID, uuid.New().String())

	uploaded := []string{}
	for _, variant := range receiptVariants {
		processed := img
		maxWidth := 0
		switch variant {
		case "thumb":
			maxWidth = ThumbnailWidth
		case "display":
			maxWidth = DisplayWidth
		}
		if maxWidth > 0 && img.Bounds().Dx() > maxWidth {
			processed = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, processed, &jpeg.Options{Quality: JPEGQuality}); err != nil {
			return nil, fmt.Errorf("failed to encode image: %w", err)
		}

		objectPath := variantPath(basePath, variant)
		if _, err := s.storage.Upload(ctx, objectPath, bytes.NewReader(buf.Bytes()), "image/jpeg", int64(buf.Len())); err != nil {
			// Best-effort cleanup of variants already stored
			for _, path := range uploaded {
				_ = s.storage.Delete(ctx, path)
			}
			return nil, fmt.Errorf("failed to upload %s variant: %w", variant, err)
		}
		uploaded = append(uploaded, objectPath)
	}

	// Remove the replaced receipt's objects after the new one is in place
	if transaction.ReceiptPath != nil {
		s.deleteVariants(ctx, *transaction.ReceiptPath)
	}

	updated, err := s.transactionRepo.SetReceiptPath(workspaceID, transactionID, &basePath)
	if err != nil {
		return nil, err
	}

	s.publishEvent(workspaceID, websocket.TransactionUpdated(updated))
	return updated, nil
}

// GetReceiptURLs returns presigned URLs for every variant of a
// transaction's receipt.
func (s *ReceiptService) GetReceiptURLs(ctx context.Context, workspaceID int32, transactionID int32) (*ReceiptURLs, error) {
	if !s.IsEnabled() {
		return nil, ErrReceiptStorageNotConfigured
	}

	transaction, err := s.transactionRepo.GetByID(workspaceID, transactionID)
	if err != nil {
		return nil, err
	}
	if transaction.ReceiptPath == nil {
		return nil, domain.ErrReceiptNotFound
	}

	urls := &ReceiptURLs{}
	for _, variant := range receiptVariants {
		url, err := s.storage.GeneratePresignedURL(ctx, variantPath(*transaction.ReceiptPath, variant), ReceiptURLExpiry)
		if err != nil {
			return nil, err
		}
		switch variant {
		case "thumb":
			urls.ThumbnailURL = url
		case "display":
			urls.DisplayURL = url
		case "original":
			urls.OriginalURL = url
		}
	}
	return urls, nil
}

// DeleteReceipt removes a transaction's receipt objects and clears the
// stored path.
func (s *ReceiptService) DeleteReceipt(ctx context.Context, workspaceID int32, transactionID int32) (*domain.Transaction, error) {
	if !s.IsEnabled() {
		return nil, ErrReceiptStorageNotConfigured
	}

	transaction, err := s.transactionRepo.GetByID(workspaceID, transactionID)
	if err != nil {
		return nil, err
	}
	if transaction.ReceiptPath == nil {
		return nil, domain.ErrReceiptNotFound
	}

	s.deleteVariants(ctx, *transaction.ReceiptPath)

	updated, err := s.transactionRepo.SetReceiptPath(workspaceID, transactionID, nil)
	if err != nil {
		return nil, err
	}

	s.publishEvent(workspaceID, websocket.TransactionUpdated(updated))
	return updated, nil
}

// deleteVariants removes every stored variant, best effort
func (s *ReceiptService) deleteVariants(ctx context.Context, basePath string) {
	for _, variant := range receiptVariants {
		_ = s.storage.Delete(ctx, variantPath(basePath, variant))
	}
}

func variantPath(basePath, variant string) string {
	return basePath + "_" + variant + ".jpg"
}

func (s *ReceiptService) publishEvent(workspaceID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(workspaceID, event)
	}
}

// GetReceiptContentType returns the content type for an accepted extension
func GetReceiptContentType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ct, ok := AllowedReceiptExtensions[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}
