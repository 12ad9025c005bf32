package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventDispatch   EventType = "dispatch"
	EventFetchStart EventType = "fetch_start"
	EventFetchDone  EventType = "fetch_done"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// DispatchEvent is emitted after the reducer applied an action.
type DispatchEvent struct {
	EventBase
	Action   ActionType `json:"action"`
	Region   string     `json:"region,omitempty"`
	Changed  bool       `json:"changed"`
	Loading  bool       `json:"loading"`
	HasError bool       `json:"has_error"`
}

// FetchEvent describes a country fetch issued by the effect layer.
type FetchEvent struct {
	EventBase
	Region   string        `json:"region"`
	Count    int           `json:"count,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	Status   int           `json:"status,omitempty"`
	IsError  bool          `json:"is_error,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// LifecycleHooks defines callbacks for container observability.
type LifecycleHooks struct {
	OnDispatch   func(context.Context, *DispatchEvent)
	OnFetchStart func(context.Context, *FetchEvent)
	OnFetchDone  func(context.Context, *FetchEvent)
}
