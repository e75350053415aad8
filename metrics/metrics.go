// Package metrics counts access to posts, pages and listings.
//
// Events are sent fire-and-forget to a Handler, aggregated per time slot by
// (api, name) and flushed into a SQLite store. A Prometheus Recorder exposes
// request, cache and render counters.
package metrics

import "time"

// API names the endpoint an event came from.
type API string

const (
	APIView  API = "view"
	APIPage  API = "page"
	APIList  API = "list"
	APIIndex API = "index"
	APIRss   API = "rss"
)

// Event is one access. Name is the post or page link, or the tag for lists.
type Event struct {
	API    API
	Name   string
	Origin string
	At     time.Time
}

// View records a full post read.
func View(link, origin string) Event { return Event{API: APIView, Name: link, Origin: origin} }

// Page records a page read.
func Page(link, origin string) Event { return Event{API: APIPage, Name: link, Origin: origin} }

// List records a listing, optionally filtered by tag.
func List(tag, origin string) Event { return Event{API: APIList, Name: tag, Origin: origin} }

// Index records a hit on the index.
func Index(origin string) Event { return Event{API: APIIndex, Origin: origin} }

// Rss records a feed fetch.
func Rss(origin string) Event { return Event{API: APIRss, Origin: origin} }

// Emitter accepts events without blocking the caller.
type Emitter interface {
	Emit(Event)
}

type noOp struct{}

func (noOp) Emit(Event) {}

// NoOp returns an Emitter that drops every event.
func NoOp() Emitter { return noOp{} }
