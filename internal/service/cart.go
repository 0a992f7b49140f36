package service

import (
	"context"
	"errors"
	"fmt"

	"print-store/internal/dto"
	"print-store/internal/model"
	"print-store/internal/repository"

	"gorm.io/gorm"
)

type CartService interface {
	List(ctx context.Context, identity *model.Identity) ([]*model.CartItem, error)
	Add(ctx context.Context, identity *model.Identity, req *dto.AddCartItemRequest) ([]*model.CartItem, error)
	Remove(ctx context.Context, identity *model.Identity, itemID uint) error
}

type cartServiceImpl struct {
	catalogRepo repository.CatalogRepository
	cartRepo    repository.CartRepository
}

func NewCartService(catalogRepo repository.CatalogRepository, cartRepo repository.CartRepository) CartService {
	return &cartServiceImpl{
		catalogRepo: catalogRepo,
		cartRepo:    cartRepo,
	}
}

func cartOwner(identity *model.Identity) (int64, error) {
	if identity == nil || identity.UserID == nil {
		return 0, ErrUnauthorized
	}
	return *identity.UserID, nil
}

func (s *cartServiceImpl) List(ctx context.Context, identity *model.Identity) ([]*model.CartItem, error) {
	userID, err := cartOwner(identity)
	if err != nil {
		return nil, err
	}

	items, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	return items, nil
}

func (s *cartServiceImpl) Add(ctx context.Context, identity *model.Identity, req *dto.AddCartItemRequest) ([]*model.CartItem, error) {
	userID, err := cartOwner(identity)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, newValidationError("", "request body is required")
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	if _, err := s.catalogRepo.FindImage(ctx, nil, req.ImageID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newNotFoundError("image", req.ImageID)
		}
		return nil, fmt.Errorf("find image %d: %w", req.ImageID, err)
	}
	if _, err := s.catalogRepo.FindPrintSize(ctx, nil, req.PrintSizeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newNotFoundError("print size", req.PrintSizeID)
		}
		return nil, fmt.Errorf("find print size %d: %w", req.PrintSizeID, err)
	}

	err = s.cartRepo.Upsert(ctx, &model.CartItem{
		UserID:      userID,
		ImageID:     req.ImageID,
		PrintSizeID: req.PrintSizeID,
		Quantity:    req.Quantity,
	})
	if err != nil {
		return nil, fmt.Errorf("add cart item: %w", err)
	}

	return s.List(ctx, identity)
}

func (s *cartServiceImpl) Remove(ctx context.Context, identity *model.Identity, itemID uint) error {
	userID, err := cartOwner(identity)
	if err != nil {
		return err
	}

	deleted, err := s.cartRepo.Delete(ctx, userID, itemID)
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	if !deleted {
		return newNotFoundError("cart item", itemID)
	}
	return nil
}
