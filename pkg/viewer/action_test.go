package viewer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/contribnet/pkg/errors"
)

func TestActionWireFormat(t *testing.T) {
	actions := []Action{
		ToggleSource{Source: "external"},
		ToggleCategory{Category: "paper"},
		SetTopicFilter{Topic: "topic:graphs"},
		SelectTopic{Topic: "graphs"},
		ResetLayout{},
		ToggleLabels{},
		DragStart{Node: "person:Ada"},
		DragMove{X: 12.5, Y: -3},
		DragEnd{},
		HoverNode{Node: "topic:graphs"},
		HoverEdge{Source: "person:Ada", Target: "topic:graphs"},
		HoverGroup{Group: "group:3"},
		Leave{},
		ClickNode{Node: "person:Ada"},
		ClickGroup{Group: "group:3"},
		ClickBackground{},
		CloseInfo{},
		Zoom{Factor: 1.2, X: 300, Y: 200},
		Pan{DX: -4, DY: 9},
		Resize{Width: 1024, Height: 768},
	}
	seen := map[string]bool{}
	for _, a := range actions {
		t.Run(a.Kind(), func(t *testing.T) {
			require.False(t, seen[a.Kind()], "duplicate kind")
			seen[a.Kind()] = true

			data, err := EncodeAction(a)
			require.NoError(t, err)
			got, err := DecodeAction(data)
			require.NoError(t, err)
			assert.Equal(t, a, got)
		})
	}
}

func TestDecodeActionErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"NotJSON", `{"type":`},
		{"MissingType", `{"source": "internal"}`},
		{"UnknownType", `{"type": "explode"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeAction([]byte(tt.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidAction))
		})
	}
}

func TestDecodeActionFrench(t *testing.T) {
	a, err := DecodeAction([]byte(`{"type": "toggle_category", "category": "Papier"}`))
	require.NoError(t, err)
	assert.Equal(t, ToggleCategory{Category: "Papier"}, a)
}

func TestDecodeActions(t *testing.T) {
	got, err := DecodeActions([]byte(` [{"type": "drag_start", "node": "person:Ada"}, {"type": "drag_end"}, {"type": "click_node", "node": "person:Ada"}]`))
	require.NoError(t, err)
	assert.Equal(t, []Action{DragStart{Node: "person:Ada"}, DragEnd{}, ClickNode{Node: "person:Ada"}}, got)

	got, err = DecodeActions([]byte(`{"type": "leave"}`))
	require.NoError(t, err)
	assert.Equal(t, []Action{Leave{}}, got)

	got, err = DecodeActions([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = DecodeActions([]byte(`[{"type": "leave"}, {"type": "explode"}]`))
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidAction))
}

func TestCoalesce(t *testing.T) {
	tests := []struct {
		name string
		in   []Action
		want []Action
	}{
		{
			name: "QuickClickKeepsRelease",
			in:   []Action{DragStart{Node: "person:Ada"}, DragEnd{}, ClickNode{Node: "person:Ada"}},
			want: []Action{DragStart{Node: "person:Ada"}, DragEnd{}, ClickNode{Node: "person:Ada"}},
		},
		{
			name: "DragMovesKeepLast",
			in:   []Action{DragStart{Node: "a"}, DragMove{X: 1, Y: 1}, DragMove{X: 2, Y: 3}, DragEnd{}, Leave{}},
			want: []Action{DragStart{Node: "a"}, DragMove{X: 2, Y: 3}, DragEnd{}, Leave{}},
		},
		{
			name: "PanSums",
			in:   []Action{Pan{DX: 1, DY: 2}, Pan{DX: 3, DY: -1}, ClickBackground{}},
			want: []Action{Pan{DX: 4, DY: 1}, ClickBackground{}},
		},
		{
			name: "ZoomSamePoint",
			in:   []Action{Zoom{Factor: 2, X: 5, Y: 5}, Zoom{Factor: 1.5, X: 5, Y: 5}, Zoom{Factor: 2, X: 1, Y: 1}},
			want: []Action{Zoom{Factor: 3, X: 5, Y: 5}, Zoom{Factor: 2, X: 1, Y: 1}},
		},
		{
			name: "DiscreteActionsNeverMerge",
			in:   []Action{ToggleSource{Source: "external"}, ToggleSource{Source: "external"}, HoverNode{Node: "a"}, Leave{}},
			want: []Action{ToggleSource{Source: "external"}, ToggleSource{Source: "external"}, HoverNode{Node: "a"}, Leave{}},
		},
		{
			name: "MovesSeparatedByOtherActions",
			in:   []Action{Pan{DX: 1}, Leave{}, Pan{DX: 1}},
			want: []Action{Pan{DX: 1}, Leave{}, Pan{DX: 1}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Coalesce(tt.in))
		})
	}
}
