package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"kbine/internal/model"
)

// OperatorRepository defines operator persistence operations.
type OperatorRepository interface {
	Create(ctx context.Context, operator *model.Operator) error
	FindByCode(ctx context.Context, code string) (*model.Operator, error)
	List(ctx context.Context) ([]model.Operator, error)
}

type operatorRepository struct {
	db *gorm.DB
}

// NewOperatorRepository creates a new operator repository.
func NewOperatorRepository(db *gorm.DB) OperatorRepository {
	return &operatorRepository{db: db}
}

// Create creates a new operator.
func (r *operatorRepository) Create(ctx context.Context, operator *model.Operator) error {
	return r.db.WithContext(ctx).Create(operator).Error
}

// FindByCode finds an operator by its code.
func (r *operatorRepository) FindByCode(ctx context.Context, code string) (*model.Operator, error) {
	var operator model.Operator
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&operator).Error; err != nil {
		return nil, err
	}
	return &operator, nil
}

// List lists all operators.
func (r *operatorRepository) List(ctx context.Context) ([]model.Operator, error) {
	var operators []model.Operator
	if err := r.db.WithContext(ctx).Find(&operators).Error; err != nil {
		return nil, err
	}
	return operators, nil
}

// PlanRepository defines plan persistence operations.
type PlanRepository interface {
	Create(ctx context.Context, plan *model.Plan) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Plan, error)
	ListActive(ctx context.Context) ([]model.Plan, error)
	ListByOperator(ctx context.Context, operatorID uuid.UUID) ([]model.Plan, error)
}

type planRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates a new plan repository.
func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

// Create creates a new plan.
func (r *planRepository) Create(ctx context.Context, plan *model.Plan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

// FindByID finds a plan by ID.
func (r *planRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Plan, error) {
	var plan model.Plan
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

// ListActive lists all active plans.
func (r *planRepository) ListActive(ctx context.Context) ([]model.Plan, error) {
	var plans []model.Plan
	if err := r.db.WithContext(ctx).Where("active = ?", true).Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

// ListByOperator lists active plans for one operator.
func (r *planRepository) ListByOperator(ctx context.Context, operatorID uuid.UUID) ([]model.Plan, error) {
	var plans []model.Plan
	if err := r.db.WithContext(ctx).
		Where("operator_id = ? AND active = ?", operatorID, true).
		Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}
