package repository

import (
	"context"

	"print-store/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CatalogRepository interface {
	Seed(ctx context.Context) error
	FindImage(ctx context.Context, tx *gorm.DB, imageID uint) (*model.Image, error)
	FindPrintSize(ctx context.Context, tx *gorm.DB, printSizeID uint) (*model.PrintSize, error)
	ListImages(ctx context.Context, category string) ([]*model.Image, error)
	ListPrintSizes(ctx context.Context) ([]*model.PrintSize, error)
}

type catalogRepoImpl struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepoImpl{
		db: db,
	}
}

func (r *catalogRepoImpl) Seed(ctx context.Context) error {
	images := []model.Image{
		{ID: 1, Filename: "portrait_01.jpg", Title: "Morning Light", Category: "portrait"},
		{ID: 2, Filename: "portrait_02.jpg", Title: "Quiet Study", Category: "portrait"},
		{ID: 3, Filename: "street_01.jpg", Title: "Queen Street at Dusk", Category: "street"},
		{ID: 4, Filename: "landscape_01.jpg", Title: "Lake Ontario Fog", Category: "landscape"},
	}
	sizes := []model.PrintSize{
		{ID: 1, Label: "8x10", WidthIn: decimal.NewFromInt(8), HeightIn: decimal.NewFromInt(10), Price: decimal.RequireFromString("15.00")},
		{ID: 2, Label: "11x14", WidthIn: decimal.NewFromInt(11), HeightIn: decimal.NewFromInt(14), Price: decimal.RequireFromString("25.00")},
		{ID: 3, Label: "16x20", WidthIn: decimal.NewFromInt(16), HeightIn: decimal.NewFromInt(20), Price: decimal.RequireFromString("45.00")},
		{ID: 4, Label: "24x36", WidthIn: decimal.NewFromInt(24), HeightIn: decimal.NewFromInt(36), Price: decimal.RequireFromString("90.00")},
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&images).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&sizes).Error
	})
}

func (r *catalogRepoImpl) FindImage(ctx context.Context, tx *gorm.DB, imageID uint) (*model.Image, error) {
	var image model.Image
	err := conn(ctx, r.db, tx).
		Where("id = ?", imageID).
		First(&image).Error

	if err != nil {
		return nil, err
	}

	return &image, nil
}

func (r *catalogRepoImpl) FindPrintSize(ctx context.Context, tx *gorm.DB, printSizeID uint) (*model.PrintSize, error) {
	var size model.PrintSize
	err := conn(ctx, r.db, tx).
		Where("id = ?", printSizeID).
		First(&size).Error

	if err != nil {
		return nil, err
	}

	return &size, nil
}

func (r *catalogRepoImpl) ListImages(ctx context.Context, category string) ([]*model.Image, error) {
	var images []*model.Image
	query := r.db.WithContext(ctx)
	if category != "" {
		query = query.Where("category = ?", category)
	}

	err := query.Order("uploaded_at DESC").Order("id DESC").Find(&images).Error
	if err != nil {
		return nil, err
	}

	return images, nil
}

func (r *catalogRepoImpl) ListPrintSizes(ctx context.Context) ([]*model.PrintSize, error) {
	var sizes []*model.PrintSize
	err := r.db.WithContext(ctx).
		Order("price ASC").
		Find(&sizes).
		Error

	if err != nil {
		return nil, err
	}

	return sizes, nil
}
