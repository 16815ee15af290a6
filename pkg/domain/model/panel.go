package model

import "github.com/secmon-lab/bailiff/pkg/domain/types"

// Panel is the structured rendering of a record hosted by one message
type Panel struct {
	Title    string
	Author   string
	Text     string
	Color    string
	ImageURL string
	Fields   Fields
	Footer   string
	Controls []Control
}

// Control is a button attached to a panel or reply
type Control struct {
	Action types.ControlAction
	Label  string
	Value  string
	Style  types.ControlStyle
}
