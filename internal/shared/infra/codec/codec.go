// Package codec centraliza la serialización JSON de los mensajes que viajan por el broker.
package codec

import (
	"github.com/bytedance/sonic"
)

// api se comporta igual que encoding/json (escape HTML, claves ordenadas en mapas),
// así los payloads son comparables byte a byte entre servicios.
var api = sonic.ConfigStd

// Marshal serializa v a JSON.
func Marshal(v interface{}) ([]byte, error) {
	return api.Marshal(v)
}

// Unmarshal rellena dest (puntero) a partir de data.
func Unmarshal(data []byte, dest interface{}) error {
	return api.Unmarshal(data, dest)
}

// Valid indica si data es un documento JSON bien formado.
func Valid(data []byte) bool {
	return api.Valid(data)
}
