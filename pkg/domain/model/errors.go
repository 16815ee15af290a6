package model

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors shared by record stores and use cases
var (
	ErrNotFound            = goerr.New("record not found")
	ErrMalformedRecord     = goerr.New("message does not contain a record panel")
	ErrChannelUnavailable  = goerr.New("channel is unavailable")
	ErrUpstreamUnavailable = goerr.New("upstream service is unavailable")
	ErrCursorConsumed      = goerr.New("search results were already consumed")
	ErrInvalidRecord       = goerr.New("invalid record")
	ErrInvalidRecordID     = goerr.New("invalid record ID")
)

// Context keys for error values
const (
	ChannelIDKey = "channel_id"
	RecordIDKey  = "record_id"
	KindKey      = "kind"
	FieldKey     = "field"
)
