package repository

import (
	"context"
	"time"

	"backoffice/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaxRuleRepository interface {
	Create(ctx context.Context, rule *model.TaxRule) error
	Update(ctx context.Context, rule *model.TaxRule) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.TaxRule, error)
	List(ctx context.Context, page, limit int) ([]model.TaxRule, int64, error)
	// FindCandidates returns every active rule for (countryCode, taxClass)
	// whose validity window covers at, newest valid_from first. The caller
	// picks the winner; more than one row means overlapping data.
	FindCandidates(ctx context.Context, countryCode, taxClass string, at time.Time) ([]model.TaxRule, error)
	// DeactivateOverlapping flags active rules for (countryCode, taxClass)
	// whose window intersects [from, to] as inactive. to == nil means the
	// new rule is open-ended.
	DeactivateOverlapping(ctx context.Context, countryCode, taxClass string, from time.Time, to *time.Time) (int64, error)
}

type taxRuleRepository struct {
	db *gorm.DB
}

func NewTaxRuleRepository(db *gorm.DB) TaxRuleRepository {
	return &taxRuleRepository{db: db}
}

func (r *taxRuleRepository) Create(ctx context.Context, rule *model.TaxRule) error {
	return GetDB(ctx, r.db).Create(rule).Error
}

func (r *taxRuleRepository) Update(ctx context.Context, rule *model.TaxRule) error {
	return GetDB(ctx, r.db).Save(rule).Error
}

func (r *taxRuleRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.TaxRule, error) {
	var rule model.TaxRule
	if err := GetDB(ctx, r.db).First(&rule, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *taxRuleRepository) List(ctx context.Context, page, limit int) ([]model.TaxRule, int64, error) {
	var rules []model.TaxRule
	var total int64

	db := GetDB(ctx, r.db).Model(&model.TaxRule{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("valid_from desc").Offset(offset).Limit(limit).Find(&rules).Error; err != nil {
		return nil, 0, err
	}

	return rules, total, nil
}

func (r *taxRuleRepository) FindCandidates(ctx context.Context, countryCode, taxClass string, at time.Time) ([]model.TaxRule, error) {
	var rules []model.TaxRule
	err := GetDB(ctx, r.db).
		Where("country_code = ? AND tax_class = ? AND is_active = true", countryCode, taxClass).
		Where("valid_from <= ? AND (valid_to IS NULL OR valid_to >= ?)", at, at).
		Order("valid_from DESC").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *taxRuleRepository) DeactivateOverlapping(ctx context.Context, countryCode, taxClass string, from time.Time, to *time.Time) (int64, error) {
	query := GetDB(ctx, r.db).Model(&model.TaxRule{}).
		Where("country_code = ? AND tax_class = ? AND is_active = true", countryCode, taxClass).
		Where("valid_to IS NULL OR valid_to >= ?", from)
	if to != nil {
		query = query.Where("valid_from <= ?", *to)
	}

	res := query.Update("is_active", false)
	return res.RowsAffected, res.Error
}
