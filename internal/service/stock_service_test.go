package service

import (
	"context"
	"testing"

	"backoffice/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stockTestEnv struct {
	actor       model.Actor
	stockRepo   *fakeStockRepo
	catalogRepo *fakeCatalogRepo
	svc         StockService
	item        *model.CatalogItem
}

func newStockTestEnv(t *testing.T) *stockTestEnv {
	t.Helper()

	env := &stockTestEnv{
		actor:       testActor(model.RoleManager),
		stockRepo:   newFakeStockRepo(),
		catalogRepo: newFakeCatalogRepo(),
	}
	env.item = &model.CatalogItem{
		BusinessID: env.actor.BusinessID,
		Code:       "BEAN",
		Name:       "Coffee Beans 1kg",
		Type:       model.ItemTypeProduct,
		BasePrice:  dec("14.00"),
		TaxClass:   "STANDARD",
	}
	require.NoError(t, env.catalogRepo.CreateItem(context.Background(), env.item))

	env.svc = NewStockService(env.stockRepo, env.catalogRepo, fakeTxManager{}, nil)
	return env
}

func (env *stockTestEnv) createItem(t *testing.T, initialQty, unitCost string) StockItemResponse {
	t.Helper()
	resp, err := env.svc.CreateItem(context.Background(), env.actor, CreateStockItemRequest{
		CatalogItemID: env.item.ID.String(),
		Unit:          "kg",
		InitialQty:    initialQty,
		UnitCost:      unitCost,
	})
	require.NoError(t, err)
	return resp
}

func TestCreateStockItem(t *testing.T) {
	t.Run("staff forbidden", func(t *testing.T) {
		env := newStockTestEnv(t)
		_, err := env.svc.CreateItem(context.Background(), testActor(model.RoleStaff), CreateStockItemRequest{
			CatalogItemID: env.item.ID.String(),
		})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unknown catalog item", func(t *testing.T) {
		env := newStockTestEnv(t)
		_, err := env.svc.CreateItem(context.Background(), env.actor, CreateStockItemRequest{
			CatalogItemID: uuid.NewString(),
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("initial quantity seeds the ledger", func(t *testing.T) {
		env := newStockTestEnv(t)
		resp := env.createItem(t, "25", "9.50")

		assert.Equal(t, "kg", resp.Unit)
		assert.Equal(t, "25.00", resp.QtyOnHand)

		require.Len(t, env.stockRepo.movements, 1)
		mv := env.stockRepo.movements[0]
		assert.Equal(t, model.MovementAdjust, mv.Type)
		assert.True(t, mv.Delta.Equal(dec("25")))
		assert.Equal(t, "initial quantity", mv.Notes)
	})

	t.Run("zero initial quantity posts nothing", func(t *testing.T) {
		env := newStockTestEnv(t)
		resp := env.createItem(t, "0", "")
		assert.Equal(t, "0.00", resp.QtyOnHand)
		assert.Empty(t, env.stockRepo.movements)
	})

	t.Run("second stock item for same catalog item conflicts", func(t *testing.T) {
		env := newStockTestEnv(t)
		env.createItem(t, "0", "")

		_, err := env.svc.CreateItem(context.Background(), env.actor, CreateStockItemRequest{
			CatalogItemID: env.item.ID.String(),
		})
		assert.ErrorIs(t, err, ErrConflict)
	})
}

func TestRecordManualMovement(t *testing.T) {
	setup := func(t *testing.T) (*stockTestEnv, string) {
		env := newStockTestEnv(t)
		resp := env.createItem(t, "10", "9.50")
		return env, resp.ID
	}

	t.Run("receive adds and overwrites average cost", func(t *testing.T) {
		env, id := setup(t)

		resp, err := env.svc.RecordManualMovement(context.Background(), env.actor, id, PostMovementRequest{
			Type: model.MovementReceive, Qty: "40", UnitCost: "8.75",
		})
		require.NoError(t, err)
		assert.Equal(t, "50.00", resp.QtyOnHand)
		assert.Equal(t, "8.7500", resp.AverageUnitCost)
	})

	t.Run("waste negates the quantity", func(t *testing.T) {
		env, id := setup(t)

		resp, err := env.svc.RecordManualMovement(context.Background(), env.actor, id, PostMovementRequest{
			Type: model.MovementWaste, Qty: "3",
		})
		require.NoError(t, err)
		assert.Equal(t, "7.00", resp.QtyOnHand)

		last := env.stockRepo.movements[len(env.stockRepo.movements)-1]
		assert.True(t, last.Delta.Equal(dec("-3")), "delta = %s", last.Delta)
	})

	t.Run("adjust keeps its sign", func(t *testing.T) {
		env, id := setup(t)

		resp, err := env.svc.RecordManualMovement(context.Background(), env.actor, id, PostMovementRequest{
			Type: model.MovementAdjust, Qty: "-2.5", Notes: "cycle count",
		})
		require.NoError(t, err)
		assert.Equal(t, "7.50", resp.QtyOnHand)
	})

	t.Run("negative qty only valid for adjust", func(t *testing.T) {
		env, id := setup(t)

		for _, typ := range []string{model.MovementReceive, model.MovementWaste} {
			_, err := env.svc.RecordManualMovement(context.Background(), env.actor, id, PostMovementRequest{
				Type: typ, Qty: "-1",
			})
			assert.ErrorIs(t, err, ErrValidation, "type %s", typ)
		}
	})

	t.Run("zero qty rejected", func(t *testing.T) {
		env, id := setup(t)
		_, err := env.svc.RecordManualMovement(context.Background(), env.actor, id, PostMovementRequest{
			Type: model.MovementAdjust, Qty: "0",
		})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("foreign business cannot touch the item", func(t *testing.T) {
		env, id := setup(t)
		_, err := env.svc.RecordManualMovement(context.Background(), testActor(model.RoleOwner), id, PostMovementRequest{
			Type: model.MovementReceive, Qty: "1",
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestQtyOnHandTracksLedger(t *testing.T) {
	env := newStockTestEnv(t)
	resp := env.createItem(t, "10", "9.50")

	moves := []PostMovementRequest{
		{Type: model.MovementReceive, Qty: "40", UnitCost: "8.75"},
		{Type: model.MovementWaste, Qty: "5"},
		{Type: model.MovementAdjust, Qty: "-1.5"},
		{Type: model.MovementReceive, Qty: "12", UnitCost: "9.10"},
	}
	for _, mv := range moves {
		_, err := env.svc.RecordManualMovement(context.Background(), env.actor, resp.ID, mv)
		require.NoError(t, err)
	}

	sid := uuid.MustParse(resp.ID)
	item, err := env.stockRepo.FindItemByID(context.Background(), sid)
	require.NoError(t, err)
	ledger, err := env.stockRepo.SumDeltas(context.Background(), sid)
	require.NoError(t, err)

	assert.True(t, item.QtyOnHand.Equal(ledger), "on hand %s, ledger %s", item.QtyOnHand, ledger)
	assert.True(t, item.QtyOnHand.Equal(dec("55.5")), "on hand = %s", item.QtyOnHand)

	ok, err := env.svc.CheckConsistency(context.Background(), env.actor, resp.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCheckConsistencyDetectsDivergence(t *testing.T) {
	env := newStockTestEnv(t)
	resp := env.createItem(t, "10", "9.50")

	// Corrupt the counter behind the ledger's back.
	item, err := env.stockRepo.FindItemByID(context.Background(), uuid.MustParse(resp.ID))
	require.NoError(t, err)
	item.QtyOnHand = dec("999")

	ok, err := env.svc.CheckConsistency(context.Background(), env.actor, resp.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
