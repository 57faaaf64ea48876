// Package api defines the RPC surface of the server: request and response
// messages, procedure names, and Connect handler and client constructors.
//
// Messages are plain Go structs carried as JSON (Content-Type application/json
// with the Connect protocol), so any HTTP client can call the API:
//
//	curl -H 'Content-Type: application/json' -H "Authorization: Bearer $TOKEN" \
//	    -d '{"group_id":"..."}' http://localhost:8080/dividafacil.v1.GroupService/GetBalances
package api

import (
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

// jsonCodec marshals messages with encoding/json. It is registered under
// the name "json", replacing Connect's protobuf JSON codec.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("invalid JSON message: %w", err)
	}
	return nil
}

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)
}

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
}
