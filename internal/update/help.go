package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"

	"github.com/ShiftPioneer/nexus-app-sub003/internal/commands"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/views"
)

type KeyBinding struct {
	Key    string
	Action string
}

type helpKeyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.short }
func (k helpKeyMap) FullHelp() [][]key.Binding { return k.full }

var commandUsage = map[commands.Type]string{
	commands.TypeAdd:      "add <title> [tag:x] [goal:id] [due:day]",
	commands.TypeClarify:  "clarify <task> <do|schedule|delegate|eliminate>",
	commands.TypeDone:     "done <task>",
	commands.TypeToggle:   "toggle <task>",
	commands.TypeDelete:   "rm <task>",
	commands.TypeRestore:  "restore <task>",
	commands.TypePurge:    "purge <task>",
	commands.TypeMove:     "move <task> <active|waiting|someday|quadrant>",
	commands.TypeSchedule: "schedule <task> <day> [HH:MM-HH:MM]",
	commands.TypeView:     "view <name>",
	commands.TypeFind:     "find <query>",
	commands.TypeHabit:    "habit <habit>",
	commands.TypeJournal:  "journal",
}

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	var plain []string
	for _, t := range commands.Types {
		plain = append(plain, fmt.Sprintf("- /%s", commandUsage[t]))
	}
	bindings := m.helpBindings()
	return views.RenderHelpPanel(views.HelpPanelData{
		CurrentView: string(m.CurrentView),
		Bindings:    plain,
		HelpView: m.helpModel.View(helpKeyMap{
			short: bindings,
			full:  [][]key.Binding{bindings},
		}),
	})
}

func (m Model) globalBindings() []KeyBinding {
	return []KeyBinding{
		{Key: m.Keys.NextView, Action: "next view"},
		{Key: m.Keys.PrevView, Action: "previous view"},
		{Key: m.Keys.Down + "/" + m.Keys.Up, Action: "move cursor"},
		{Key: "space", Action: "toggle complete"},
		{Key: m.Keys.Delete, Action: "move to trash"},
		{Key: m.Keys.Restore, Action: "restore from trash"},
		{Key: m.Keys.Palette, Action: "open command palette"},
		{Key: m.Keys.Help, Action: "toggle help"},
		{Key: m.Keys.Quit, Action: "quit"},
	}
}

func (m Model) helpBindings() []key.Binding {
	out := make([]key.Binding, 0, len(m.globalBindings()))
	for _, kb := range m.globalBindings() {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	return out
}
