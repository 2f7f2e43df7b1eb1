package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"kbine/internal/cache"
	"kbine/internal/errors"
	"kbine/internal/model"
	"kbine/internal/repository"
)

const catalogCacheTTL = 5 * time.Minute

// CatalogService exposes the operator and plan catalog with caching.
type CatalogService interface {
	ListOperators(ctx context.Context) ([]model.Operator, error)
	ListPlans(ctx context.Context) ([]model.Plan, error)
	ListPlansByOperator(ctx context.Context, operatorID uuid.UUID) ([]model.Plan, error)
	GetPlan(ctx context.Context, id uuid.UUID) (*model.Plan, error)
}

type catalogService struct {
	operatorRepo repository.OperatorRepository
	planRepo     repository.PlanRepository
	cache        *cache.Client
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(operatorRepo repository.OperatorRepository, planRepo repository.PlanRepository, cache *cache.Client) CatalogService {
	return &catalogService{
		operatorRepo: operatorRepo,
		planRepo:     planRepo,
		cache:        cache,
	}
}

// ListOperators lists all operators with caching.
func (s *catalogService) ListOperators(ctx context.Context) ([]model.Operator, error) {
	const key = "catalog:operators"
	if data, _ := s.cache.Get(ctx, key); data != nil {
		var cached []model.Operator
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	operators, err := s.operatorRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list operators: %w", err)
	}

	if payload, err := json.Marshal(operators); err == nil {
		_ = s.cache.Set(ctx, key, payload, catalogCacheTTL)
	}
	return operators, nil
}

// ListPlans lists all active plans with caching.
func (s *catalogService) ListPlans(ctx context.Context) ([]model.Plan, error) {
	const key = "catalog:plans"
	if data, _ := s.cache.Get(ctx, key); data != nil {
		var cached []model.Plan
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	plans, err := s.planRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}

	if payload, err := json.Marshal(plans); err == nil {
		_ = s.cache.Set(ctx, key, payload, catalogCacheTTL)
	}
	return plans, nil
}

// ListPlansByOperator lists active plans for one operator.
func (s *catalogService) ListPlansByOperator(ctx context.Context, operatorID uuid.UUID) ([]model.Plan, error) {
	return s.planRepo.ListByOperator(ctx, operatorID)
}

// GetPlan retrieves a plan by ID.
func (s *catalogService) GetPlan(ctx context.Context, id uuid.UUID) (*model.Plan, error) {
	plan, err := s.planRepo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}
