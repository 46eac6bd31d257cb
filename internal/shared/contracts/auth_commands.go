package contracts

import "context"

const (
	RegisterUserCommand = "REGISTER_USER"
	LoginUserCommand    = "LOGIN_USER"
)

// AuthCommand es el conjunto cerrado de comandos de auth.commands.
type AuthCommand interface {
	CommandName() string
	Dispatch(ctx context.Context, h AuthHandler) error
	authCommand()
}

// AuthHandler tiene un método por variante. Añadir una variante rompe la compilación
// de todos los routers hasta que la manejen.
type AuthHandler interface {
	RegisterUser(ctx context.Context, cmd RegisterUser) error
	LoginUser(ctx context.Context, cmd LoginUser) error
	Unknown(ctx context.Context, cmd UnknownCommand) error
}

type RegisterUser struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type LoginUser struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type unknownAuthCommand struct{ UnknownCommand }

func (RegisterUser) CommandName() string { return RegisterUserCommand }

func (LoginUser) CommandName() string { return LoginUserCommand }

func (c unknownAuthCommand) CommandName() string { return c.Name }

func (c RegisterUser) Dispatch(ctx context.Context, h AuthHandler) error {
	return h.RegisterUser(ctx, c)
}

func (c LoginUser) Dispatch(ctx context.Context, h AuthHandler) error {
	return h.LoginUser(ctx, c)
}

func (c unknownAuthCommand) Dispatch(ctx context.Context, h AuthHandler) error {
	return h.Unknown(ctx, c.UnknownCommand)
}

func (RegisterUser) authCommand()       {}
func (LoginUser) authCommand()          {}
func (unknownAuthCommand) authCommand() {}

// DecodeAuthCommand traduce un sobre a su variante. Un discriminador desconocido NO es
// un error: devuelve la variante UnknownCommand.
func DecodeAuthCommand(env CommandEnvelope) (AuthCommand, error) {
	switch env.Command {
	case RegisterUserCommand:
		cmd, err := decodeData[RegisterUser](env)
		if err != nil {
			return nil, err
		}
		return cmd, nil
	case LoginUserCommand:
		cmd, err := decodeData[LoginUser](env)
		if err != nil {
			return nil, err
		}
		return cmd, nil
	default:
		return unknownAuthCommand{UnknownCommand{Topic: AuthCommandsTopic, Name: env.Command, Data: env.Data}}, nil
	}
}
