// Package contracts contiene los contratos de integración entre servicios: nombres de topics,
// cuerpos de los hechos publicados y los conjuntos cerrados de comandos de cada topic.
// Son contratos planos, NO entidades del dominio.
package contracts

// Topics de comandos: un único servicio propietario por topic.
const (
	AuthCommandsTopic    = "auth.commands"
	CatalogCommandsTopic = "catalog.commands"
	OrderCommandsTopic   = "order.commands"
)

// Topics de hechos: un publicador, cualquier número de grupos suscriptores.
const (
	UserRegisteredTopic = "user.registered"
	OrderCreatedTopic   = "order.created"
	OrderUpdatedTopic   = "order.updated"
	StockUpdatedTopic   = "stock.updated"
)

// DeadLetterSuffix se añade al topic original para formar su topic de dead-letter.
const DeadLetterSuffix = ".dlq"

// DeadLetterTopic devuelve el topic de dead-letter de topic.
func DeadLetterTopic(topic string) string {
	return topic + DeadLetterSuffix
}
