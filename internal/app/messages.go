package app

// Message types live in github.com/sadopc/sqlcheck/internal/msg.
// This file re-exports them for convenience within the app package.

import appmsg "github.com/sadopc/sqlcheck/internal/msg"

// Re-export types used within app package.
type (
	Pane          = appmsg.Pane
	Option        = appmsg.Option
	GradedMsg     = appmsg.GradedMsg
	RegradeMsg    = appmsg.RegradeMsg
	SelectFileMsg = appmsg.SelectFileMsg
	StatusMsg     = appmsg.StatusMsg
	ToggleMsg     = appmsg.ToggleMsg
)

// Re-export constants.
const (
	PaneFiles      = appmsg.PaneFiles
	PaneReport     = appmsg.PaneReport
	OptionExpected = appmsg.OptionExpected
	OptionHints    = appmsg.OptionHints
)
