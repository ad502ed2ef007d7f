package websocket

import (
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
)

// NewUpgrader builds the HTTP upgrader. An empty allowedOrigins list
// accepts any origin.
func NewUpgrader(readBufferSize, writeBufferSize int, allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  readBufferSize,
		WriteBufferSize: writeBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(allowedOrigins, origin)
		},
	}
}
