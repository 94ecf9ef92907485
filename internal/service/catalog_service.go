package service

import (
	"context"
	"fmt"

	"backoffice/internal/model"
	"backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type CreateOptionRequest struct {
	Name          string `json:"name" binding:"required"`
	PriceModifier string `json:"price_modifier"` // decimal, may be negative, defaults to 0
}

type CreateItemRequest struct {
	Code      string                `json:"code" binding:"required"`
	Name      string                `json:"name" binding:"required"`
	Type      string                `json:"type" binding:"required,oneof=PRODUCT SERVICE"`
	BasePrice string                `json:"base_price" binding:"required"`
	TaxClass  string                `json:"tax_class" binding:"omitempty,oneof=STANDARD REDUCED ZERO"`
	Options   []CreateOptionRequest `json:"options"`
}

type UpdateItemRequest struct {
	Name      string `json:"name" binding:"required"`
	BasePrice string `json:"base_price" binding:"required"`
	TaxClass  string `json:"tax_class" binding:"omitempty,oneof=STANDARD REDUCED ZERO"`
}

type OptionResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	PriceModifier string `json:"price_modifier"`
}

type ItemResponse struct {
	ID        string           `json:"id"`
	Code      string           `json:"code"`
	Name      string           `json:"name"`
	Type      string           `json:"type"`
	BasePrice string           `json:"base_price"`
	TaxClass  string           `json:"tax_class"`
	Options   []OptionResponse `json:"options"`
}

// --- Interface ---

// CatalogService administers sellable items and their options. An item is
// always created with at least one option so every purchasable unit can be
// addressed by option id when pricing lines.
type CatalogService interface {
	CreateItem(ctx context.Context, actor model.Actor, req CreateItemRequest) (ItemResponse, error)
	UpdateItem(ctx context.Context, actor model.Actor, itemID string, req UpdateItemRequest) (ItemResponse, error)
	GetItem(ctx context.Context, actor model.Actor, itemID string) (ItemResponse, error)
	ListItems(ctx context.Context, actor model.Actor, page, limit int, search string) ([]ItemResponse, int64, error)
	AddOption(ctx context.Context, actor model.Actor, itemID string, req CreateOptionRequest) (OptionResponse, error)
	DeleteOption(ctx context.Context, actor model.Actor, itemID, optionID string) error
}

type catalogService struct {
	catalogRepo repository.CatalogRepository
	txManager   repository.TxManager
}

func NewCatalogService(catalogRepo repository.CatalogRepository, txManager repository.TxManager) CatalogService {
	return &catalogService{catalogRepo: catalogRepo, txManager: txManager}
}

// --- Implementation ---

func (s *catalogService) CreateItem(ctx context.Context, actor model.Actor, req CreateItemRequest) (ItemResponse, error) {
	if !actor.CanManage() {
		return ItemResponse{}, fmt.Errorf("role %s may not manage the catalog: %w", actor.Role, ErrValidation)
	}

	basePrice, err := decimal.NewFromString(req.BasePrice)
	if err != nil || basePrice.IsNegative() {
		return ItemResponse{}, fmt.Errorf("base_price must be a non-negative decimal: %w", ErrValidation)
	}

	if _, err = s.catalogRepo.FindItemByCode(ctx, actor.BusinessID, req.Code); err == nil {
		return ItemResponse{}, fmt.Errorf("item code %q already exists: %w", req.Code, ErrConflict)
	} else if !IsRecordNotFound(err) {
		return ItemResponse{}, fmt.Errorf("failed to check item code: %w", err)
	}

	taxClass := req.TaxClass
	if taxClass == "" {
		taxClass = model.TaxClassStandard
	}

	item := model.CatalogItem{
		BusinessID: actor.BusinessID,
		Code:       req.Code,
		Name:       req.Name,
		Type:       req.Type,
		BasePrice:  basePrice,
		TaxClass:   taxClass,
	}

	options := req.Options
	if len(options) == 0 {
		options = []CreateOptionRequest{{Name: "Standard", PriceModifier: "0"}}
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if txErr := s.catalogRepo.CreateItem(txCtx, &item); txErr != nil {
			return fmt.Errorf("failed to create catalog item: %w", txErr)
		}
		for _, optReq := range options {
			opt, buildErr := buildOption(item.ID, optReq)
			if buildErr != nil {
				return buildErr
			}
			if txErr := s.catalogRepo.CreateOption(txCtx, opt); txErr != nil {
				return fmt.Errorf("failed to create option: %w", txErr)
			}
			item.Options = append(item.Options, *opt)
		}
		return nil
	})
	if err != nil {
		return ItemResponse{}, err
	}

	return toItemResponse(item), nil
}

func (s *catalogService) UpdateItem(ctx context.Context, actor model.Actor, itemID string, req UpdateItemRequest) (ItemResponse, error) {
	if !actor.CanManage() {
		return ItemResponse{}, fmt.Errorf("role %s may not manage the catalog: %w", actor.Role, ErrValidation)
	}
	cid, err := uuid.Parse(itemID)
	if err != nil {
		return ItemResponse{}, fmt.Errorf("invalid item id: %w", ErrValidation)
	}

	basePrice, err := decimal.NewFromString(req.BasePrice)
	if err != nil || basePrice.IsNegative() {
		return ItemResponse{}, fmt.Errorf("base_price must be a non-negative decimal: %w", ErrValidation)
	}

	item, err := s.catalogRepo.FindItemByID(ctx, actor.BusinessID, cid)
	if err != nil {
		if IsRecordNotFound(err) {
			return ItemResponse{}, fmt.Errorf("catalog item %s: %w", cid, ErrNotFound)
		}
		return ItemResponse{}, fmt.Errorf("failed to load catalog item: %w", err)
	}

	// Code is identity and stays fixed; price changes only affect lines
	// priced after this point.
	item.Name = req.Name
	item.BasePrice = basePrice
	if req.TaxClass != "" {
		item.TaxClass = req.TaxClass
	}
	if err = s.catalogRepo.UpdateItem(ctx, item); err != nil {
		return ItemResponse{}, fmt.Errorf("failed to update catalog item: %w", err)
	}

	return toItemResponse(*item), nil
}

func (s *catalogService) GetItem(ctx context.Context, actor model.Actor, itemID string) (ItemResponse, error) {
	cid, err := uuid.Parse(itemID)
	if err != nil {
		return ItemResponse{}, fmt.Errorf("invalid item id: %w", ErrValidation)
	}

	item, err := s.catalogRepo.FindItemByID(ctx, actor.BusinessID, cid)
	if err != nil {
		if IsRecordNotFound(err) {
			return ItemResponse{}, fmt.Errorf("catalog item %s: %w", cid, ErrNotFound)
		}
		return ItemResponse{}, fmt.Errorf("failed to load catalog item: %w", err)
	}
	return toItemResponse(*item), nil
}

func (s *catalogService) ListItems(ctx context.Context, actor model.Actor, page, limit int, search string) ([]ItemResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	items, total, err := s.catalogRepo.ListItems(ctx, actor.BusinessID, page, limit, search)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list catalog items: %w", err)
	}

	res := make([]ItemResponse, 0, len(items))
	for _, it := range items {
		res = append(res, toItemResponse(it))
	}
	return res, total, nil
}

func (s *catalogService) AddOption(ctx context.Context, actor model.Actor, itemID string, req CreateOptionRequest) (OptionResponse, error) {
	if !actor.CanManage() {
		return OptionResponse{}, fmt.Errorf("role %s may not manage the catalog: %w", actor.Role, ErrValidation)
	}
	cid, err := uuid.Parse(itemID)
	if err != nil {
		return OptionResponse{}, fmt.Errorf("invalid item id: %w", ErrValidation)
	}

	if _, err = s.catalogRepo.FindItemByID(ctx, actor.BusinessID, cid); err != nil {
		if IsRecordNotFound(err) {
			return OptionResponse{}, fmt.Errorf("catalog item %s: %w", cid, ErrNotFound)
		}
		return OptionResponse{}, fmt.Errorf("failed to load catalog item: %w", err)
	}

	opt, err := buildOption(cid, req)
	if err != nil {
		return OptionResponse{}, err
	}
	if err = s.catalogRepo.CreateOption(ctx, opt); err != nil {
		return OptionResponse{}, fmt.Errorf("failed to create option: %w", err)
	}

	return toOptionResponse(*opt), nil
}

func (s *catalogService) DeleteOption(ctx context.Context, actor model.Actor, itemID, optionID string) error {
	if !actor.CanManage() {
		return fmt.Errorf("role %s may not manage the catalog: %w", actor.Role, ErrValidation)
	}
	oid, err := uuid.Parse(optionID)
	if err != nil {
		return fmt.Errorf("invalid option id: %w", ErrValidation)
	}

	opt, err := s.catalogRepo.FindOptionWithItem(ctx, actor.BusinessID, oid)
	if err != nil {
		if IsRecordNotFound(err) {
			return fmt.Errorf("option %s: %w", oid, ErrNotFound)
		}
		return fmt.Errorf("failed to load option: %w", err)
	}
	if opt.CatalogItemID.String() != itemID {
		return fmt.Errorf("option %s does not belong to item %s: %w", oid, itemID, ErrNotFound)
	}

	if err = s.catalogRepo.DeleteOption(ctx, oid); err != nil {
		return fmt.Errorf("failed to delete option: %w", err)
	}
	return nil
}

func buildOption(itemID uuid.UUID, req CreateOptionRequest) (*model.ItemOption, error) {
	modifier := decimal.Zero
	if req.PriceModifier != "" {
		var err error
		modifier, err = decimal.NewFromString(req.PriceModifier)
		if err != nil {
			return nil, fmt.Errorf("invalid price_modifier: %w", ErrValidation)
		}
	}
	return &model.ItemOption{
		CatalogItemID: itemID,
		Name:          req.Name,
		PriceModifier: modifier,
	}, nil
}

func toItemResponse(item model.CatalogItem) ItemResponse {
	opts := make([]OptionResponse, 0, len(item.Options))
	for _, o := range item.Options {
		opts = append(opts, toOptionResponse(o))
	}
	return ItemResponse{
		ID:        item.ID.String(),
		Code:      item.Code,
		Name:      item.Name,
		Type:      item.Type,
		BasePrice: item.BasePrice.StringFixed(2),
		TaxClass:  item.TaxClass,
		Options:   opts,
	}
}

func toOptionResponse(o model.ItemOption) OptionResponse {
	return OptionResponse{
		ID:            o.ID.String(),
		Name:          o.Name,
		PriceModifier: o.PriceModifier.StringFixed(2),
	}
}
