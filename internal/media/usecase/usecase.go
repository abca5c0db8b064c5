package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fekuna/scistore-service/internal/apperr"
	"github.com/fekuna/scistore-service/internal/media"
	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/pkg/blob"
	"github.com/fekuna/scistore-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// presignExpiry applies when no public base URL is configured.
const presignExpiry = 7 * 24 * time.Hour

type Products interface {
	GetProduct(ctx context.Context, id string) (*model.Product, error)
}

type mediaUseCase struct {
	store         blob.Store
	products      Products
	publicBaseURL string
	logger        logger.ZapLogger
}

func NewMediaUseCase(store blob.Store, products Products, publicBaseURL string, log logger.ZapLogger) media.UseCase {
	return &mediaUseCase{
		store:         store,
		products:      products,
		publicBaseURL: publicBaseURL,
		logger:        log,
	}
}

func (uc *mediaUseCase) Upload(ctx context.Context, in *media.UploadInput) (*media.Upload, error) {
	ext, ok := media.Extension(in.ContentType)
	if !ok {
		return nil, apperr.Invalid("media.unsupported_type")
	}
	if in.Body == nil {
		v := apperr.NewValidator()
		v.Add("file", "validation.required")
		return nil, v.Err()
	}
	p, err := uc.products.GetProduct(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(in.Body, media.MaxImageBytes+1))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if len(data) > media.MaxImageBytes {
		return nil, apperr.Invalid("media.too_large")
	}
	if len(data) == 0 {
		v := apperr.NewValidator()
		v.Add("file", "validation.required")
		return nil, v.Err()
	}
	// The declared type has to match the bytes.
	sniffed, _ := media.Extension(http.DetectContentType(data))
	if sniffed != ext {
		return nil, apperr.Invalid("media.unsupported_type")
	}

	key := fmt.Sprintf("products/%s/%s.%s", p.ID, uuid.New().String(), ext)
	info, err := uc.store.Put(ctx, key, bytes.NewReader(data), blob.PutOptions{
		ContentType: media.ContentType(ext),
		Metadata:    map[string]string{"product_id": p.ID, "filename": in.Filename},
	})
	if err != nil {
		uc.logger.Error("failed to store product image", zap.String("product_id", p.ID), zap.String("key", key), zap.Error(err))
		return nil, apperr.Internal(err)
	}

	url, err := uc.url(ctx, key)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	uc.logger.Info("product image uploaded", zap.String("product_id", p.ID), zap.String("key", key), zap.Int64("size", info.Size))
	return &media.Upload{Key: key, URL: url, ContentType: info.ContentType, Size: int64(len(data))}, nil
}

func (uc *mediaUseCase) url(ctx context.Context, key string) (string, error) {
	if uc.publicBaseURL != "" {
		return blob.PublicURL(uc.publicBaseURL, key), nil
	}
	return uc.store.PresignURL(ctx, key, presignExpiry)
}

func (uc *mediaUseCase) Delete(ctx context.Context, key string) error {
	if !media.ValidKey(key) {
		return apperr.Invalid("media.invalid_key")
	}
	ok, err := uc.store.Delete(ctx, key)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return apperr.NotFound("media.not_found")
		}
		uc.logger.Error("failed to delete product image", zap.String("key", key), zap.Error(err))
		return apperr.Internal(err)
	}
	if !ok {
		return apperr.NotFound("media.not_found")
	}
	uc.logger.Info("product image deleted", zap.String("key", key))
	return nil
}
