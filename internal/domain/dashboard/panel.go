package dashboard

import (
	"errors"
	"fmt"
	"strings"
)

// Panel is the single "which panel is open" value. Exactly one is active at a
// time, so opening one implicitly closes the rest.
type Panel string

const (
	PanelOverview       Panel = "overview"
	PanelJournal        Panel = "journal"
	PanelMood           Panel = "mood"
	PanelAssistant      Panel = "assistant"
	PanelReportAnalyzer Panel = "report_analyzer"
	PanelProfile        Panel = "profile"
	PanelRewards        Panel = "rewards"
	PanelBlockchain     Panel = "blockchain"
	PanelHandTracking   Panel = "hand_tracking"
	PanelCommunity      Panel = "community"
	PanelAdmin          Panel = "admin"
)

// Panels lists every panel in menu order.
var Panels = []Panel{
	PanelOverview, PanelJournal, PanelMood, PanelAssistant, PanelReportAnalyzer,
	PanelProfile, PanelRewards, PanelBlockchain, PanelHandTracking, PanelCommunity, PanelAdmin,
}

// Default panel when nothing was chosen.
const Default = PanelOverview

var ErrUnknownPanel = errors.New("unknown panel")

// ParsePanel resolves a panel name, case-insensitively.
func ParsePanel(s string) (Panel, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, p := range Panels {
		if string(p) == name {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPanel, s)
}

// Static panels are self-contained screens with no backend state.
func (p Panel) Static() bool {
	switch p {
	case PanelBlockchain, PanelHandTracking, PanelCommunity, PanelAdmin:
		return true
	}
	return false
}
