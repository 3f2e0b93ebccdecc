package app

import (
	"github.com/dshills/epicenter/internal/event"
)

// Document is the event dispatched by the CLI. Kind names what the document
// describes; Fields carries arbitrary JSON data that listeners may edit.
type Document struct {
	event.Base
	Kind   string         `json:"kind"`
	Fields map[string]any `json:"fields"`
}

// DocumentKey is the journal key of Document events.
var DocumentKey = event.KeyOf[Document]().String()
