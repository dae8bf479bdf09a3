// internal/websocket/errors.go
package websocket

import "errors"

var (
	ErrMissingToken = errors.New("missing authentication token")
	ErrEventClaimed = errors.New("event already has a handler")
)
