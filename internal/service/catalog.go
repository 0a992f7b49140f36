package service

import (
	"context"
	"fmt"
	"strings"

	"print-store/internal/dto"
	"print-store/internal/model"
	"print-store/internal/repository"
)

type CatalogService interface {
	ListGallery(ctx context.Context, category string) ([]*dto.GalleryImage, error)
	ListPrintSizes(ctx context.Context) ([]*model.PrintSize, error)
}

type catalogServiceImpl struct {
	mediaBaseURL string
	catalogRepo  repository.CatalogRepository
}

func NewCatalogService(mediaBaseURL string, catalogRepo repository.CatalogRepository) CatalogService {
	return &catalogServiceImpl{
		mediaBaseURL: strings.TrimRight(mediaBaseURL, "/"),
		catalogRepo:  catalogRepo,
	}
}

func (s *catalogServiceImpl) ListGallery(ctx context.Context, category string) ([]*dto.GalleryImage, error) {
	images, err := s.catalogRepo.ListImages(ctx, strings.TrimSpace(category))
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}

	gallery := make([]*dto.GalleryImage, len(images))
	for i, img := range images {
		gallery[i] = &dto.GalleryImage{
			ID:          img.ID,
			Title:       img.Title,
			Description: img.Description,
			Category:    img.Category,
			Filename:    img.Filename,
			URL:         s.mediaBaseURL + "/" + img.Filename,
		}
	}
	return gallery, nil
}

func (s *catalogServiceImpl) ListPrintSizes(ctx context.Context) ([]*model.PrintSize, error) {
	sizes, err := s.catalogRepo.ListPrintSizes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list print sizes: %w", err)
	}
	return sizes, nil
}
