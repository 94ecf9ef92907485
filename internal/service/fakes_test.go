package service

import (
	"context"
	"strings"
	"time"

	"backoffice/internal/model"
	"backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// In-memory repository fakes. They mirror the SQL semantics the real
// implementations rely on (not-found as gorm.ErrRecordNotFound, candidate
// ordering, scoping) closely enough for service-level tests.

func testActor(role string) model.Actor {
	return model.Actor{
		UserID:     uuid.New(),
		BusinessID: uuid.New(),
		Role:       role,
	}
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// --- tax rules ---

type fakeTaxRuleRepo struct {
	rules []*model.TaxRule
}

func (r *fakeTaxRuleRepo) Create(_ context.Context, rule *model.TaxRule) error {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	rule.CreatedAt = time.Now()
	r.rules = append(r.rules, rule)
	return nil
}

func (r *fakeTaxRuleRepo) Update(_ context.Context, rule *model.TaxRule) error {
	for i, existing := range r.rules {
		if existing.ID == rule.ID {
			r.rules[i] = rule
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeTaxRuleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.TaxRule, error) {
	for _, rule := range r.rules {
		if rule.ID == id {
			return rule, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeTaxRuleRepo) List(_ context.Context, _, _ int) ([]model.TaxRule, int64, error) {
	out := make([]model.TaxRule, 0, len(r.rules))
	for _, rule := range r.rules {
		out = append(out, *rule)
	}
	return out, int64(len(out)), nil
}

func (r *fakeTaxRuleRepo) FindCandidates(_ context.Context, countryCode, taxClass string, at time.Time) ([]model.TaxRule, error) {
	var out []model.TaxRule
	for _, rule := range r.rules {
		if rule.CountryCode == countryCode && rule.TaxClass == taxClass && rule.Covers(at) {
			out = append(out, *rule)
		}
	}
	// valid_from DESC, matching the SQL ordering
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].ValidFrom.After(out[i].ValidFrom) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (r *fakeTaxRuleRepo) DeactivateOverlapping(_ context.Context, countryCode, taxClass string, from time.Time, to *time.Time) (int64, error) {
	var n int64
	for _, rule := range r.rules {
		if rule.CountryCode != countryCode || rule.TaxClass != taxClass || !rule.IsActive {
			continue
		}
		startsBeforeEnd := to == nil || !rule.ValidFrom.After(*to)
		endsAfterStart := rule.ValidTo == nil || !rule.ValidTo.Before(from)
		if startsBeforeEnd && endsAfterStart {
			rule.IsActive = false
			n++
		}
	}
	return n, nil
}

// --- catalog ---

type fakeCatalogRepo struct {
	items   map[uuid.UUID]*model.CatalogItem
	options map[uuid.UUID]*model.ItemOption
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{
		items:   make(map[uuid.UUID]*model.CatalogItem),
		options: make(map[uuid.UUID]*model.ItemOption),
	}
}

func (r *fakeCatalogRepo) CreateItem(_ context.Context, item *model.CatalogItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	r.items[item.ID] = item
	return nil
}

func (r *fakeCatalogRepo) UpdateItem(_ context.Context, item *model.CatalogItem) error {
	if _, ok := r.items[item.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.items[item.ID] = item
	return nil
}

func (r *fakeCatalogRepo) DeleteItem(_ context.Context, businessID, id uuid.UUID) error {
	item, ok := r.items[id]
	if !ok || item.BusinessID != businessID {
		return gorm.ErrRecordNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *fakeCatalogRepo) FindItemByID(_ context.Context, businessID, id uuid.UUID) (*model.CatalogItem, error) {
	item, ok := r.items[id]
	if !ok || item.BusinessID != businessID {
		return nil, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (r *fakeCatalogRepo) FindItemByCode(_ context.Context, businessID uuid.UUID, code string) (*model.CatalogItem, error) {
	for _, item := range r.items {
		if item.BusinessID == businessID && item.Code == code {
			return item, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCatalogRepo) ListItems(_ context.Context, businessID uuid.UUID, _, _ int, search string) ([]model.CatalogItem, int64, error) {
	var out []model.CatalogItem
	for _, item := range r.items {
		if item.BusinessID != businessID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(item.Name), strings.ToLower(search)) {
			continue
		}
		out = append(out, *item)
	}
	return out, int64(len(out)), nil
}

func (r *fakeCatalogRepo) CreateOption(_ context.Context, opt *model.ItemOption) error {
	if opt.ID == uuid.Nil {
		opt.ID = uuid.New()
	}
	r.options[opt.ID] = opt
	return nil
}

func (r *fakeCatalogRepo) DeleteOption(_ context.Context, id uuid.UUID) error {
	if _, ok := r.options[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.options, id)
	return nil
}

func (r *fakeCatalogRepo) FindOptionWithItem(_ context.Context, businessID, optionID uuid.UUID) (*model.ItemOption, error) {
	opt, ok := r.options[optionID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	item, ok := r.items[opt.CatalogItemID]
	if !ok || item.BusinessID != businessID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *opt
	cp.CatalogItem = item
	return &cp, nil
}

// --- orders ---

type fakeOrderRepo struct {
	orders map[uuid.UUID]*model.Order
	lines  map[uuid.UUID]*model.OrderLine

	// payments mirrors the Preload("Payments") the SQL FindByID performs.
	payments *fakePaymentRepo
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders: make(map[uuid.UUID]*model.Order),
		lines:  make(map[uuid.UUID]*model.OrderLine),
	}
}

func (r *fakeOrderRepo) Create(_ context.Context, order *model.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	order.CreatedAt = time.Now()
	r.orders[order.ID] = order
	return nil
}

func (r *fakeOrderRepo) Save(_ context.Context, order *model.Order) error {
	if _, ok := r.orders[order.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.orders[order.ID] = order
	return nil
}

func (r *fakeOrderRepo) FindByID(ctx context.Context, businessID, id uuid.UUID) (*model.Order, error) {
	order, ok := r.orders[id]
	if !ok || order.BusinessID != businessID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *order
	lines, _ := r.FindLines(ctx, id)
	cp.Lines = lines
	if r.payments != nil {
		cp.Payments, _ = r.payments.FindByOrder(ctx, id)
	}
	return &cp, nil
}

func (r *fakeOrderRepo) FindByIDForUpdate(ctx context.Context, businessID, id uuid.UUID) (*model.Order, error) {
	order, ok := r.orders[id]
	if !ok || order.BusinessID != businessID {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (r *fakeOrderRepo) List(_ context.Context, businessID uuid.UUID, status string, _, _ int) ([]model.Order, int64, error) {
	var out []model.Order
	for _, order := range r.orders {
		if order.BusinessID != businessID {
			continue
		}
		if status != "" && order.Status != status {
			continue
		}
		out = append(out, *order)
	}
	return out, int64(len(out)), nil
}

func (r *fakeOrderRepo) CreateLine(_ context.Context, line *model.OrderLine) error {
	if line.ID == uuid.Nil {
		line.ID = uuid.New()
	}
	r.lines[line.ID] = line
	return nil
}

func (r *fakeOrderRepo) SaveLine(_ context.Context, line *model.OrderLine) error {
	if _, ok := r.lines[line.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.lines[line.ID] = line
	return nil
}

func (r *fakeOrderRepo) DeleteLine(_ context.Context, id uuid.UUID) error {
	if _, ok := r.lines[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.lines, id)
	return nil
}

func (r *fakeOrderRepo) FindLineByID(_ context.Context, orderID, lineID uuid.UUID) (*model.OrderLine, error) {
	line, ok := r.lines[lineID]
	if !ok || line.OrderID != orderID {
		return nil, gorm.ErrRecordNotFound
	}
	return line, nil
}

func (r *fakeOrderRepo) FindLines(_ context.Context, orderID uuid.UUID) ([]model.OrderLine, error) {
	var out []model.OrderLine
	for _, line := range r.lines {
		if line.OrderID == orderID {
			out = append(out, *line)
		}
	}
	return out, nil
}

// --- payments ---

type fakePaymentRepo struct {
	payments []*model.Payment
}

func (r *fakePaymentRepo) Create(_ context.Context, payment *model.Payment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	payment.CreatedAt = time.Now()
	r.payments = append(r.payments, payment)
	return nil
}

func (r *fakePaymentRepo) FindByOrder(_ context.Context, orderID uuid.UUID) ([]model.Payment, error) {
	var out []model.Payment
	for _, p := range r.payments {
		if p.OrderID == orderID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) SumByOrder(_ context.Context, orderID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, p := range r.payments {
		if p.OrderID == orderID {
			sum = sum.Add(p.Amount)
		}
	}
	return sum, nil
}

func (r *fakePaymentRepo) SumPositiveByOrder(_ context.Context, orderID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, p := range r.payments {
		if p.OrderID == orderID && p.Amount.IsPositive() {
			sum = sum.Add(p.Amount)
		}
	}
	return sum, nil
}

func (r *fakePaymentRepo) CountByOrder(_ context.Context, orderID uuid.UUID) (int64, error) {
	var n int64
	for _, p := range r.payments {
		if p.OrderID == orderID {
			n++
		}
	}
	return n, nil
}

// --- gift cards ---

type fakeGiftCardRepo struct {
	cards map[uuid.UUID]*model.GiftCard
}

func newFakeGiftCardRepo() *fakeGiftCardRepo {
	return &fakeGiftCardRepo{cards: make(map[uuid.UUID]*model.GiftCard)}
}

func (r *fakeGiftCardRepo) Create(_ context.Context, card *model.GiftCard) error {
	if card.ID == uuid.Nil {
		card.ID = uuid.New()
	}
	r.cards[card.ID] = card
	return nil
}

func (r *fakeGiftCardRepo) Save(_ context.Context, card *model.GiftCard) error {
	if _, ok := r.cards[card.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.cards[card.ID] = card
	return nil
}

func (r *fakeGiftCardRepo) FindByID(_ context.Context, businessID, id uuid.UUID) (*model.GiftCard, error) {
	card, ok := r.cards[id]
	if !ok || card.BusinessID != businessID {
		return nil, gorm.ErrRecordNotFound
	}
	return card, nil
}

func (r *fakeGiftCardRepo) FindByIDForUpdate(ctx context.Context, businessID, id uuid.UUID) (*model.GiftCard, error) {
	return r.FindByID(ctx, businessID, id)
}

func (r *fakeGiftCardRepo) FindByCode(_ context.Context, businessID uuid.UUID, code string) (*model.GiftCard, error) {
	for _, card := range r.cards {
		if card.BusinessID == businessID && card.Code == code {
			return card, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeGiftCardRepo) List(_ context.Context, businessID uuid.UUID, _, _ int) ([]model.GiftCard, int64, error) {
	var out []model.GiftCard
	for _, card := range r.cards {
		if card.BusinessID == businessID {
			out = append(out, *card)
		}
	}
	return out, int64(len(out)), nil
}

// --- stock ---

type fakeStockRepo struct {
	items     map[uuid.UUID]*model.StockItem
	movements []*model.StockMovement
}

func newFakeStockRepo() *fakeStockRepo {
	return &fakeStockRepo{items: make(map[uuid.UUID]*model.StockItem)}
}

func (r *fakeStockRepo) CreateItem(_ context.Context, item *model.StockItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	r.items[item.ID] = item
	return nil
}

func (r *fakeStockRepo) SaveItem(_ context.Context, item *model.StockItem) error {
	if _, ok := r.items[item.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.items[item.ID] = item
	return nil
}

func (r *fakeStockRepo) FindItemByID(_ context.Context, id uuid.UUID) (*model.StockItem, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (r *fakeStockRepo) FindItemByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.StockItem, error) {
	return r.FindItemByID(ctx, id)
}

func (r *fakeStockRepo) FindItemByCatalogItem(_ context.Context, catalogItemID uuid.UUID) (*model.StockItem, error) {
	for _, item := range r.items {
		if item.CatalogItemID == catalogItemID {
			return item, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeStockRepo) ListItems(_ context.Context, _ uuid.UUID, _, _ int) ([]model.StockItem, int64, error) {
	var out []model.StockItem
	for _, item := range r.items {
		out = append(out, *item)
	}
	return out, int64(len(out)), nil
}

func (r *fakeStockRepo) CreateMovement(_ context.Context, movement *model.StockMovement) error {
	if movement.ID == uuid.Nil {
		movement.ID = uuid.New()
	}
	movement.CreatedAt = time.Now()
	r.movements = append(r.movements, movement)
	return nil
}

func (r *fakeStockRepo) ListMovements(_ context.Context, stockItemID uuid.UUID, _, _ int) ([]model.StockMovement, int64, error) {
	var out []model.StockMovement
	for _, m := range r.movements {
		if m.StockItemID == stockItemID {
			out = append(out, *m)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeStockRepo) SumDeltas(_ context.Context, stockItemID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, m := range r.movements {
		if m.StockItemID == stockItemID {
			sum = sum.Add(m.Delta)
		}
	}
	return sum, nil
}

// --- discounts ---

type fakeDiscountRepo struct {
	discounts map[uuid.UUID]*model.Discount
}

func newFakeDiscountRepo() *fakeDiscountRepo {
	return &fakeDiscountRepo{discounts: make(map[uuid.UUID]*model.Discount)}
}

func (r *fakeDiscountRepo) Create(_ context.Context, discount *model.Discount) error {
	if discount.ID == uuid.Nil {
		discount.ID = uuid.New()
	}
	r.discounts[discount.ID] = discount
	return nil
}

func (r *fakeDiscountRepo) Save(_ context.Context, discount *model.Discount) error {
	if _, ok := r.discounts[discount.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.discounts[discount.ID] = discount
	return nil
}

func (r *fakeDiscountRepo) FindByID(_ context.Context, businessID, id uuid.UUID) (*model.Discount, error) {
	discount, ok := r.discounts[id]
	if !ok || discount.BusinessID != businessID {
		return nil, gorm.ErrRecordNotFound
	}
	return discount, nil
}

func (r *fakeDiscountRepo) FindByCode(_ context.Context, businessID uuid.UUID, code string) (*model.Discount, error) {
	for _, discount := range r.discounts {
		if discount.BusinessID == businessID && discount.Code == code {
			return discount, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeDiscountRepo) List(_ context.Context, businessID uuid.UUID, _, _ int) ([]model.Discount, int64, error) {
	var out []model.Discount
	for _, discount := range r.discounts {
		if discount.BusinessID == businessID {
			out = append(out, *discount)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeDiscountRepo) EligibleItemIDs(_ context.Context, discountID uuid.UUID) ([]uuid.UUID, error) {
	discount, ok := r.discounts[discountID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := make([]uuid.UUID, 0, len(discount.Eligibility))
	for _, e := range discount.Eligibility {
		out = append(out, e.CatalogItemID)
	}
	return out, nil
}

func (r *fakeDiscountRepo) AddEligibility(_ context.Context, row *model.DiscountEligibility) error {
	discount, ok := r.discounts[row.DiscountID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	discount.Eligibility = append(discount.Eligibility, *row)
	return nil
}

func (r *fakeDiscountRepo) RemoveEligibility(_ context.Context, discountID, catalogItemID uuid.UUID) error {
	discount, ok := r.discounts[discountID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	kept := discount.Eligibility[:0]
	for _, e := range discount.Eligibility {
		if e.CatalogItemID != catalogItemID {
			kept = append(kept, e)
		}
	}
	discount.Eligibility = kept
	return nil
}

// --- reservations ---

type fakeReservationRepo struct {
	reservations map[uuid.UUID]*model.Reservation
	services     []*model.ReservationService
}

func newFakeReservationRepo() *fakeReservationRepo {
	return &fakeReservationRepo{reservations: make(map[uuid.UUID]*model.Reservation)}
}

func (r *fakeReservationRepo) Create(_ context.Context, reservation *model.Reservation) error {
	if reservation.ID == uuid.Nil {
		reservation.ID = uuid.New()
	}
	r.reservations[reservation.ID] = reservation
	return nil
}

func (r *fakeReservationRepo) Save(_ context.Context, reservation *model.Reservation) error {
	if _, ok := r.reservations[reservation.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.reservations[reservation.ID] = reservation
	return nil
}

func (r *fakeReservationRepo) FindByID(_ context.Context, businessID, id uuid.UUID) (*model.Reservation, error) {
	reservation, ok := r.reservations[id]
	if !ok || reservation.BusinessID != businessID {
		return nil, gorm.ErrRecordNotFound
	}
	return reservation, nil
}

func (r *fakeReservationRepo) List(_ context.Context, businessID uuid.UUID, from, to time.Time, _, _ int) ([]model.Reservation, int64, error) {
	var out []model.Reservation
	for _, reservation := range r.reservations {
		if reservation.BusinessID == businessID && reservation.Overlaps(from, to) {
			out = append(out, *reservation)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeReservationRepo) FindBookedOverlapping(_ context.Context, businessID uuid.UUID, employeeID *uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]model.Reservation, error) {
	var out []model.Reservation
	for _, reservation := range r.reservations {
		if reservation.BusinessID != businessID || reservation.Status != model.ReservationStatusBooked {
			continue
		}
		if excludeID != nil && reservation.ID == *excludeID {
			continue
		}
		if employeeID != nil && (reservation.EmployeeID == nil || *reservation.EmployeeID != *employeeID) {
			continue
		}
		if reservation.Overlaps(start, end) {
			out = append(out, *reservation)
		}
	}
	return out, nil
}

func (r *fakeReservationRepo) AddService(_ context.Context, row *model.ReservationService) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	r.services = append(r.services, row)
	return nil
}

// --- users ---

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) ListByBusiness(_ context.Context, businessID uuid.UUID) ([]model.User, error) {
	var out []model.User
	for _, user := range r.users {
		if user.BusinessID == businessID {
			out = append(out, *user)
		}
	}
	return out, nil
}

// --- reports ---

type fakeReportRepo struct {
	rows []repository.SettlementDataRow
}

func (r *fakeReportRepo) SettlementByPeriod(_ context.Context, _ uuid.UUID, _ string, _, _ time.Time) ([]repository.SettlementDataRow, error) {
	return r.rows, nil
}

// --- businesses ---

type fakeBusinessRepo struct {
	businesses map[uuid.UUID]*model.Business
}

func newFakeBusinessRepo() *fakeBusinessRepo {
	return &fakeBusinessRepo{businesses: make(map[uuid.UUID]*model.Business)}
}

func (r *fakeBusinessRepo) Create(_ context.Context, business *model.Business) error {
	if business.ID == uuid.Nil {
		business.ID = uuid.New()
	}
	r.businesses[business.ID] = business
	return nil
}

func (r *fakeBusinessRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Business, error) {
	business, ok := r.businesses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return business, nil
}
