package contracts

import "context"

const (
	CreateProductCommand = "CREATE_PRODUCT"
	GetProductCommand    = "GET_PRODUCT"
)

// CatalogCommand es el conjunto cerrado de comandos de catalog.commands.
type CatalogCommand interface {
	CommandName() string
	Dispatch(ctx context.Context, h CatalogHandler) error
	catalogCommand()
}

type CatalogHandler interface {
	CreateProduct(ctx context.Context, cmd CreateProduct) error
	GetProduct(ctx context.Context, cmd GetProduct) error
	Unknown(ctx context.Context, cmd UnknownCommand) error
}

type CreateProduct struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	SKU         string  `json:"sku"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Category    string  `json:"category,omitempty"`
	ImageURL    string  `json:"imageUrl,omitempty"`
}

type GetProduct struct {
	ProductID string `json:"productId"`
}

type unknownCatalogCommand struct{ UnknownCommand }

func (CreateProduct) CommandName() string { return CreateProductCommand }

func (GetProduct) CommandName() string { return GetProductCommand }

func (c unknownCatalogCommand) CommandName() string { return c.Name }

func (c CreateProduct) Dispatch(ctx context.Context, h CatalogHandler) error {
	return h.CreateProduct(ctx, c)
}

func (c GetProduct) Dispatch(ctx context.Context, h CatalogHandler) error {
	return h.GetProduct(ctx, c)
}

func (c unknownCatalogCommand) Dispatch(ctx context.Context, h CatalogHandler) error {
	return h.Unknown(ctx, c.UnknownCommand)
}

func (CreateProduct) catalogCommand()         {}
func (GetProduct) catalogCommand()            {}
func (unknownCatalogCommand) catalogCommand() {}

func DecodeCatalogCommand(env CommandEnvelope) (CatalogCommand, error) {
	switch env.Command {
	case CreateProductCommand:
		cmd, err := decodeData[CreateProduct](env)
		if err != nil {
			return nil, err
		}
		return cmd, nil
	case GetProductCommand:
		cmd, err := decodeData[GetProduct](env)
		if err != nil {
			return nil, err
		}
		return cmd, nil
	default:
		return unknownCatalogCommand{UnknownCommand{Topic: CatalogCommandsTopic, Name: env.Command, Data: env.Data}}, nil
	}
}
