package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/davicafu/latamtradex/internal/catalog/domain"
)

const productsCollection = "products"

// ProductRepoMongoDB implementa domain.ProductRepository.
type ProductRepoMongoDB struct {
	coll *mongo.Collection
}

var _ domain.ProductRepository = (*ProductRepoMongoDB)(nil)

func NewProductRepoMongoDB(client *mongo.Client, dbName string) *ProductRepoMongoDB {
	return &ProductRepoMongoDB{coll: client.Database(dbName).Collection(productsCollection)}
}

// productDoc mapea el documento BSON.
type productDoc struct {
	ID          string    `bson:"_id"`
	Name        string    `bson:"name"`
	Description string    `bson:"description"`
	SKU         string    `bson:"sku"`
	Price       float64   `bson:"price"`
	Stock       int       `bson:"stock"`
	Category    string    `bson:"category,omitempty"`
	ImageURL    string    `bson:"imageUrl,omitempty"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

// InitIndexes crea el índice único de SKU.
func (r *ProductRepoMongoDB) InitIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "sku", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *ProductRepoMongoDB) Create(ctx context.Context, p *domain.Product) error {
	if _, err := r.coll.InsertOne(ctx, toDoc(p)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: sku %s", domain.ErrProductAlreadyExists, p.SKU)
		}
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

func (r *ProductRepoMongoDB) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	var doc productDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}
	return fromDoc(&doc), nil
}

// DecrementStock usa un único findAndModify con guarda stock >= quantity: dos pedidos
// concurrentes nunca dejan el stock en negativo.
func (r *ProductRepoMongoDB) DecrementStock(ctx context.Context, id string, quantity int) (*domain.Product, error) {
	filter := bson.M{"_id": id, "stock": bson.M{"$gte": quantity}}
	update := bson.M{
		"$inc": bson.M{"stock": -quantity},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc productDoc
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err == nil {
		return fromDoc(&doc), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	// No hubo match: o no existe o no tiene stock suficiente.
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, domain.ErrProductNotFound
	}
	return nil, fmt.Errorf("%w: %s, requested %d", domain.ErrInsufficientStock, id, quantity)
}

func toDoc(p *domain.Product) productDoc {
	return productDoc{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		SKU:         p.SKU,
		Price:       p.Price,
		Stock:       p.Stock,
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func fromDoc(d *productDoc) *domain.Product {
	return &domain.Product{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		SKU:         d.SKU,
		Price:       d.Price,
		Stock:       d.Stock,
		Category:    d.Category,
		ImageURL:    d.ImageURL,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}
