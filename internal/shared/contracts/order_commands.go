package contracts

import "context"

const (
	CreateOrderCommand       = "CREATE_ORDER"
	UpdateOrderStatusCommand = "UPDATE_ORDER_STATUS"
)

// OrderCommand es el conjunto cerrado de comandos de order.commands.
type OrderCommand interface {
	CommandName() string
	Dispatch(ctx context.Context, h OrderHandler) error
	orderCommand()
}

type OrderHandler interface {
	CreateOrder(ctx context.Context, cmd CreateOrder) error
	UpdateOrderStatus(ctx context.Context, cmd UpdateOrderStatus) error
	Unknown(ctx context.Context, cmd UnknownCommand) error
}

type CreateOrder struct {
	UserID string      `json:"userId"`
	Items  []OrderItem `json:"items"`
}

type UpdateOrderStatus struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

type unknownOrderCommand struct{ UnknownCommand }

func (CreateOrder) CommandName() string { return CreateOrderCommand }

func (UpdateOrderStatus) CommandName() string { return UpdateOrderStatusCommand }

func (c unknownOrderCommand) CommandName() string { return c.Name }

func (c CreateOrder) Dispatch(ctx context.Context, h OrderHandler) error {
	return h.CreateOrder(ctx, c)
}

func (c UpdateOrderStatus) Dispatch(ctx context.Context, h OrderHandler) error {
	return h.UpdateOrderStatus(ctx, c)
}

func (c unknownOrderCommand) Dispatch(ctx context.Context, h OrderHandler) error {
	return h.Unknown(ctx, c.UnknownCommand)
}

func (CreateOrder) orderCommand()         {}
func (UpdateOrderStatus) orderCommand()   {}
func (unknownOrderCommand) orderCommand() {}

func DecodeOrderCommand(env CommandEnvelope) (OrderCommand, error) {
	switch env.Command {
	case CreateOrderCommand:
		cmd, err := decodeData[CreateOrder](env)
		if err != nil {
			return nil, err
		}
		return cmd, nil
	case UpdateOrderStatusCommand:
		cmd, err := decodeData[UpdateOrderStatus](env)
		if err != nil {
			return nil, err
		}
		return cmd, nil
	default:
		return unknownOrderCommand{UnknownCommand{Topic: OrderCommandsTopic, Name: env.Command, Data: env.Data}}, nil
	}
}
