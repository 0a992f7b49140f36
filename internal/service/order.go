package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"print-store/internal/model"
	"print-store/internal/repository"

	"gorm.io/gorm"
)

type OrderService interface {
	ListForCustomer(ctx context.Context, identity *model.Identity) ([]model.OrderView, error)
	GetBySessionID(ctx context.Context, sessionID string) (*model.OrderView, error)
	ListAll(ctx context.Context, identity *model.Identity) ([]model.OrderView, error)
}

type orderServiceImpl struct {
	mediaBaseURL string
	orderRepo    repository.OrderRepository
}

func NewOrderService(mediaBaseURL string, orderRepo repository.OrderRepository) OrderService {
	return &orderServiceImpl{
		mediaBaseURL: strings.TrimRight(mediaBaseURL, "/"),
		orderRepo:    orderRepo,
	}
}

func (s *orderServiceImpl) ListForCustomer(ctx context.Context, identity *model.Identity) ([]model.OrderView, error) {
	if identity == nil {
		return nil, ErrUnauthorized
	}
	email := strings.TrimSpace(identity.Email)
	if identity.UserID == nil && email == "" {
		return nil, newValidationError("", "no user id or email found")
	}

	orders, err := s.orderRepo.ListForCustomer(ctx, identity.UserID, email)
	if err != nil {
		return nil, fmt.Errorf("list customer orders: %w", err)
	}
	return s.buildViews(ctx, orders)
}

func (s *orderServiceImpl) GetBySessionID(ctx context.Context, sessionID string) (*model.OrderView, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, newValidationError("sessionId", "is required")
	}

	order, err := s.orderRepo.FindBySessionID(ctx, nil, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newNotFoundError("order for session", sessionID)
		}
		return nil, fmt.Errorf("find order by session: %w", err)
	}

	views, err := s.buildViews(ctx, []model.Order{*order})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *orderServiceImpl) ListAll(ctx context.Context, identity *model.Identity) ([]model.OrderView, error) {
	if identity == nil {
		return nil, ErrUnauthorized
	}
	if !identity.IsAdmin {
		return nil, ErrForbidden
	}

	orders, err := s.orderRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return s.buildViews(ctx, orders)
}

// buildViews attaches items to each order with one query, preserving order.
func (s *orderServiceImpl) buildViews(ctx context.Context, orders []model.Order) ([]model.OrderView, error) {
	views := make([]model.OrderView, len(orders))
	if len(orders) == 0 {
		return views, nil
	}

	ids := make([]uint, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	rows, err := s.orderRepo.ListItemRows(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}

	itemsByOrder := make(map[uint][]model.OrderItemView, len(orders))
	for _, row := range rows {
		itemsByOrder[row.OrderID] = append(itemsByOrder[row.OrderID], s.itemView(row))
	}

	for i, o := range orders {
		items := itemsByOrder[o.ID]
		if items == nil {
			items = []model.OrderItemView{}
		}
		views[i] = model.OrderView{
			Order:         o,
			FormattedDate: model.FormatOrderDate(o.CreatedAt),
			Items:         items,
		}
	}
	return views, nil
}

func (s *orderServiceImpl) itemView(row repository.OrderItemRow) model.OrderItemView {
	view := model.OrderItemView{
		ID:              row.ID,
		ImageID:         row.ImageID,
		PrintSizeID:     row.PrintSizeID,
		Title:           row.ItemName,
		ItemName:        row.ItemName,
		Quantity:        row.Quantity,
		PriceAtPurchase: row.PriceAtPurchase,
	}
	if row.Title != nil && *row.Title != "" {
		view.Title = *row.Title
	}
	if row.Filename != nil && *row.Filename != "" {
		view.PreviewURL = s.mediaBaseURL + "/" + *row.Filename
	}
	view.PrintSizeLabel = row.SnapshotLabel
	if row.PrintSizeLabel != nil && *row.PrintSizeLabel != "" {
		view.PrintSizeLabel = *row.PrintSizeLabel
	}
	return view
}
