package bridge

import (
	"encoding/json"

	"github.com/faylit/appshell/internal/frame"
	"github.com/faylit/appshell/internal/navbar"
	"github.com/faylit/appshell/internal/pushreg"
)

// Inbound message types, sent by the shell page.
const (
	msgReady = "ready"
	msgLoad  = "load"
	msgNav   = "nav"
	msgGo    = "go"
	msgReply = "reply"
)

// Outbound message types, sent to the shell page.
const (
	msgState        = "state"
	msgNavigate     = "navigate"
	msgOpenExternal = "open_external"
	msgCall         = "call"
	msgNotice       = "notice"
)

// Navigation modes of a navigate message.
const (
	modeAssign  = "assign"
	modeInPlace = "in_place"
)

// inbound is the union of every message the page sends.
type inbound struct {
	Type       string          `json:"type"`
	Path       string          `json:"path"`
	Generation uint64          `json:"generation"`
	Href       *string         `json:"href"`
	Index      int             `json:"index"`
	ID         string          `json:"id"`
	Result     json.RawMessage `json:"result"`
	Error      string          `json:"error"`
}

type stateMessage struct {
	Type     string            `json:"type"`
	Snapshot frame.Snapshot    `json:"snapshot"`
	Nav      []navbar.ItemView `json:"nav"`
}

type navigateMessage struct {
	Type       string `json:"type"`
	Target     string `json:"target"`
	Generation uint64 `json:"generation"`
	Mode       string `json:"mode"`
}

type openExternalMessage struct {
	Type string `json:"type"`
	URL  string `json:"url"`
	Path string `json:"path"`
}

type callMessage struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

type noticeMessage struct {
	Type string `json:"type"`
	pushreg.Notice
}

type reply struct {
	result json.RawMessage
	err    string
}
