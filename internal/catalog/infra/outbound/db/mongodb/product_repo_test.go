package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/davicafu/latamtradex/internal/catalog/domain"
)

const testDB = "catalog"

func productBSON(id string, stock int) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: "Café"},
		{Key: "description", Value: "Grano de Huila"},
		{Key: "sku", Value: "CAF-001"},
		{Key: "price", Value: 12.5},
		{Key: "stock", Value: stock},
		{Key: "createdAt", Value: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{Key: "updatedAt", Value: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
}

func TestProductRepoMongoDB(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := testDB + "." + productsCollection

	mt.Run("create", func(mt *mtest.T) {
		repo := NewProductRepoMongoDB(mt.Client, testDB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := repo.Create(context.Background(), &domain.Product{ID: "p1", SKU: "CAF-001"})
		assert.NoError(mt, err)
	})

	mt.Run("create con sku duplicado", func(mt *mtest.T) {
		repo := NewProductRepoMongoDB(mt.Client, testDB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "duplicate key error",
		}))

		err := repo.Create(context.Background(), &domain.Product{ID: "p1", SKU: "CAF-001"})
		assert.ErrorIs(mt, err, domain.ErrProductAlreadyExists)
	})

	mt.Run("get by id", func(mt *mtest.T) {
		repo := NewProductRepoMongoDB(mt.Client, testDB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, productBSON("p1", 7)))

		p, err := repo.GetByID(context.Background(), "p1")
		require.NoError(mt, err)
		assert.Equal(mt, "CAF-001", p.SKU)
		assert.Equal(mt, 7, p.Stock)
	})

	mt.Run("get by id inexistente", func(mt *mtest.T) {
		repo := NewProductRepoMongoDB(mt.Client, testDB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.GetByID(context.Background(), "nope")
		assert.ErrorIs(mt, err, domain.ErrProductNotFound)
	})

	mt.Run("decrement con stock suficiente", func(mt *mtest.T) {
		repo := NewProductRepoMongoDB(mt.Client, testDB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: productBSON("p1", 4)}))

		p, err := repo.DecrementStock(context.Background(), "p1", 3)
		require.NoError(mt, err)
		assert.Equal(mt, 4, p.Stock)
	})

	mt.Run("decrement sin stock", func(mt *mtest.T) {
		repo := NewProductRepoMongoDB(mt.Client, testDB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: int32(1)}}),
		)

		_, err := repo.DecrementStock(context.Background(), "p1", 99)
		assert.ErrorIs(mt, err, domain.ErrInsufficientStock)
	})

	mt.Run("decrement de producto inexistente", func(mt *mtest.T) {
		repo := NewProductRepoMongoDB(mt.Client, testDB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
		)

		_, err := repo.DecrementStock(context.Background(), "nope", 1)
		assert.ErrorIs(mt, err, domain.ErrProductNotFound)
	})
}
