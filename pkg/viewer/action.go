package viewer

import (
	"bytes"
	"encoding/json"

	"github.com/matzehuels/contribnet/pkg/errors"
)

// Action is a user command consumed by [Viewer.Update].
type Action interface {
	// Kind returns the wire name of the action.
	Kind() string
}

// Filter actions.
type (
	// ToggleSource flips one source filter value.
	ToggleSource struct{ Source string }
	// ToggleCategory flips one category filter value.
	ToggleCategory struct{ Category string }
	// SetTopicFilter restricts contributors to one topic (id or name); ""
	// clears the restriction.
	SetTopicFilter struct{ Topic string }
)

// Layout and display actions.
type (
	// SelectTopic centres the view on a visible topic and pins its info.
	SelectTopic struct{ Topic string }
	// ResetLayout reheats the simulation and animates back to the identity
	// transform.
	ResetLayout struct{}
	// ToggleLabels shows or hides labels without touching the layout.
	ToggleLabels struct{}
)

// Drag actions. Coordinates are screen coordinates.
type (
	DragStart struct{ Node string }
	DragMove  struct{ X, Y float64 }
	DragEnd   struct{}
)

// Pointer actions.
type (
	HoverNode       struct{ Node string }
	HoverEdge       struct{ Source, Target string }
	HoverGroup      struct{ Group string }
	Leave           struct{}
	ClickNode       struct{ Node string }
	ClickGroup      struct{ Group string }
	ClickBackground struct{}
	CloseInfo       struct{}
)

// Viewport actions. Zoom scales by Factor around the screen point (X, Y).
type (
	Zoom   struct{ Factor, X, Y float64 }
	Pan    struct{ DX, DY float64 }
	Resize struct{ Width, Height float64 }
)

func (ToggleSource) Kind() string    { return "toggle_source" }
func (ToggleCategory) Kind() string  { return "toggle_category" }
func (SetTopicFilter) Kind() string  { return "set_topic_filter" }
func (SelectTopic) Kind() string     { return "select_topic" }
func (ResetLayout) Kind() string     { return "reset_layout" }
func (ToggleLabels) Kind() string    { return "toggle_labels" }
func (DragStart) Kind() string       { return "drag_start" }
func (DragMove) Kind() string        { return "drag_move" }
func (DragEnd) Kind() string         { return "drag_end" }
func (HoverNode) Kind() string       { return "hover_node" }
func (HoverEdge) Kind() string       { return "hover_edge" }
func (HoverGroup) Kind() string      { return "hover_group" }
func (Leave) Kind() string           { return "leave" }
func (ClickNode) Kind() string       { return "click_node" }
func (ClickGroup) Kind() string      { return "click_group" }
func (ClickBackground) Kind() string { return "click_background" }
func (CloseInfo) Kind() string       { return "close_info" }
func (Zoom) Kind() string            { return "zoom" }
func (Pan) Kind() string             { return "pan" }
func (Resize) Kind() string          { return "resize" }

// wireAction is the JSON form of every action.
type wireAction struct {
	Type     string  `json:"type"`
	Source   string  `json:"source,omitempty"`
	Target   string  `json:"target,omitempty"`
	Category string  `json:"category,omitempty"`
	Topic    string  `json:"topic,omitempty"`
	Node     string  `json:"node,omitempty"`
	Group    string  `json:"group,omitempty"`
	X        float64 `json:"x,omitempty"`
	Y        float64 `json:"y,omitempty"`
	DX       float64 `json:"dx,omitempty"`
	DY       float64 `json:"dy,omitempty"`
	Factor   float64 `json:"factor,omitempty"`
	Width    float64 `json:"width,omitempty"`
	Height   float64 `json:"height,omitempty"`
}

// DecodeAction parses the JSON form of an action:
//
//	{"type": "toggle_source", "source": "external"}
//	{"type": "drag_move", "x": 120, "y": 80}
func DecodeAction(data []byte) (Action, error) {
	var w wireAction
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidAction, err, "decode action")
	}
	switch w.Type {
	case "toggle_source":
		return ToggleSource{Source: w.Source}, nil
	case "toggle_category":
		return ToggleCategory{Category: w.Category}, nil
	case "set_topic_filter":
		return SetTopicFilter{Topic: w.Topic}, nil
	case "select_topic":
		return SelectTopic{Topic: w.Topic}, nil
	case "reset_layout":
		return ResetLayout{}, nil
	case "toggle_labels":
		return ToggleLabels{}, nil
	case "drag_start":
		return DragStart{Node: w.Node}, nil
	case "drag_move":
		return DragMove{X: w.X, Y: w.Y}, nil
	case "drag_end":
		return DragEnd{}, nil
	case "hover_node":
		return HoverNode{Node: w.Node}, nil
	case "hover_edge":
		return HoverEdge{Source: w.Source, Target: w.Target}, nil
	case "hover_group":
		return HoverGroup{Group: w.Group}, nil
	case "leave":
		return Leave{}, nil
	case "click_node":
		return ClickNode{Node: w.Node}, nil
	case "click_group":
		return ClickGroup{Group: w.Group}, nil
	case "click_background":
		return ClickBackground{}, nil
	case "close_info":
		return CloseInfo{}, nil
	case "zoom":
		return Zoom{Factor: w.Factor, X: w.X, Y: w.Y}, nil
	case "pan":
		return Pan{DX: w.DX, DY: w.DY}, nil
	case "resize":
		return Resize{Width: w.Width, Height: w.Height}, nil
	case "":
		return nil, errors.New(errors.ErrCodeInvalidAction, "action type is required")
	}
	return nil, errors.New(errors.ErrCodeInvalidAction, "unknown action type %q", w.Type)
}

// DecodeActions parses a single action or a JSON array of actions, in
// order. An empty array yields no actions.
func DecodeActions(data []byte) ([]Action, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		a, err := DecodeAction(data)
		if err != nil {
			return nil, err
		}
		return []Action{a}, nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidAction, err, "decode actions")
	}
	out := make([]Action, 0, len(raw))
	for i, r := range raw {
		a, err := DecodeAction(r)
		if err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "action %d", i)
		}
		out = append(out, a)
	}
	return out, nil
}

// Coalesce merges runs of consecutive continuous actions: a run of DragMove
// keeps the last position, a run of Pan sums its deltas, and a run of Zoom
// around one point multiplies its factors. Every other action is kept, and
// order is preserved.
func Coalesce(actions []Action) []Action {
	out := make([]Action, 0, len(actions))
	for _, a := range actions {
		if n := len(out); n > 0 {
			if merged, ok := merge(out[n-1], a); ok {
				out[n-1] = merged
				continue
			}
		}
		out = append(out, a)
	}
	return out
}

func merge(prev, next Action) (Action, bool) {
	switch p := prev.(type) {
	case DragMove:
		if n, ok := next.(DragMove); ok {
			return n, true
		}
	case Pan:
		if n, ok := next.(Pan); ok {
			return Pan{DX: p.DX + n.DX, DY: p.DY + n.DY}, true
		}
	case Zoom:
		if n, ok := next.(Zoom); ok && n.X == p.X && n.Y == p.Y {
			return Zoom{Factor: p.Factor * n.Factor, X: p.X, Y: p.Y}, true
		}
	}
	return nil, false
}

// EncodeAction returns the JSON form of an action.
func EncodeAction(a Action) ([]byte, error) {
	w := wireAction{Type: a.Kind()}
	switch a := a.(type) {
	case ToggleSource:
		w.Source = a.Source
	case ToggleCategory:
		w.Category = a.Category
	case SetTopicFilter:
		w.Topic = a.Topic
	case SelectTopic:
		w.Topic = a.Topic
	case DragStart:
		w.Node = a.Node
	case DragMove:
		w.X, w.Y = a.X, a.Y
	case HoverNode:
		w.Node = a.Node
	case HoverEdge:
		w.Source, w.Target = a.Source, a.Target
	case HoverGroup:
		w.Group = a.Group
	case ClickNode:
		w.Node = a.Node
	case ClickGroup:
		w.Group = a.Group
	case Zoom:
		w.Factor, w.X, w.Y = a.Factor, a.X, a.Y
	case Pan:
		w.DX, w.DY = a.DX, a.DY
	case Resize:
		w.Width, w.Height = a.Width, a.Height
	}
	return json.Marshal(w)
}
