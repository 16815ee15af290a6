package types

// ControlAction identifies a button on a panel or confirmation prompt. The
// value doubles as the Slack action_id.
type ControlAction string

const (
	ControlActionApprove       ControlAction = "bailiff_approve"
	ControlActionDeny          ControlAction = "bailiff_deny"
	ControlActionConfirm       ControlAction = "bailiff_confirm"
	ControlActionCancel        ControlAction = "bailiff_cancel"
	ControlActionToggleAttend  ControlAction = "bailiff_toggle_attendance"
	ControlActionViewAttendees ControlAction = "bailiff_view_attendees"
)

// AllControlActions returns all known control actions
func AllControlActions() []ControlAction {
	return []ControlAction{
		ControlActionApprove,
		ControlActionDeny,
		ControlActionConfirm,
		ControlActionCancel,
		ControlActionToggleAttend,
		ControlActionViewAttendees,
	}
}

// IsValid checks if the control action is known
func (a ControlAction) IsValid() bool {
	for _, known := range AllControlActions() {
		if a == known {
			return true
		}
	}
	return false
}

// String returns the string representation of the control action
func (a ControlAction) String() string {
	return string(a)
}

// ControlStyle is the visual emphasis of a button
type ControlStyle string

const (
	ControlStyleDefault ControlStyle = ""
	ControlStylePrimary ControlStyle = "primary"
	ControlStyleDanger  ControlStyle = "danger"
)
