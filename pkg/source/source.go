package source

import (
	"context"

	"hookbridge/pkg/event"
)

// Handler processes one inbound platform message end to end.
type Handler func(context.Context, event.Message) error

// Source bridges one external event feed (for example the platform
// gateway) into the relay.
type Source interface {
	Name() string
	Run(context.Context, Handler) error
}
