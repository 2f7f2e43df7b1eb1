package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"kbine/internal/errors"
	"kbine/internal/model"
	"kbine/internal/repository"
)

// OrderService handles order placement and lookup. Order completion is
// owned by the payment orchestrator; this service never flips status.
type OrderService interface {
	CreateOrder(ctx context.Context, userID, planID uuid.UUID, phoneToCredit string) (*model.Order, error)
	GetOrder(ctx context.Context, reference string) (*model.Order, error)
	ListUserOrders(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
	planRepo  repository.PlanRepository
	validator *PhoneValidator
}

// NewOrderService creates a new order service.
func NewOrderService(orderRepo repository.OrderRepository, planRepo repository.PlanRepository) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		planRepo:  planRepo,
		validator: NewPhoneValidator(),
	}
}

// CreateOrder places a pending order for a plan at the plan's price.
func (s *orderService) CreateOrder(ctx context.Context, userID, planID uuid.UUID, phoneToCredit string) (*model.Order, error) {
	if err := s.validator.ValidatePhone(phoneToCredit); err != nil {
		return nil, err
	}

	plan, err := s.planRepo.FindByID(ctx, planID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPlanNotFound
		}
		return nil, fmt.Errorf("find plan: %w", err)
	}

	reference, err := newOrderReference()
	if err != nil {
		return nil, fmt.Errorf("generate reference: %w", err)
	}

	order := &model.Order{
		UserID:        userID,
		PlanID:        plan.ID,
		Reference:     reference,
		Amount:        plan.Amount,
		PhoneToCredit: s.validator.Normalize(phoneToCredit),
		Status:        model.OrderStatusPending,
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return order, nil
}

// GetOrder retrieves an order by reference.
func (s *orderService) GetOrder(ctx context.Context, reference string) (*model.Order, error) {
	order, err := s.orderRepo.FindByReference(ctx, reference)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// ListUserOrders lists a user's orders, newest first.
func (s *orderService) ListUserOrders(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	return s.orderRepo.ListByUser(ctx, userID)
}

// newOrderReference builds a short human-facing reference like KB-7F3K9Q2M.
func newOrderReference() (string, error) {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	ref := make([]byte, 8)
	for i := range ref {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", err
		}
		ref[i] = alphabet[n.Int64()]
	}
	return "KB-" + string(ref), nil
}
