package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// MenuModel - action selection for --option
// =============================================================================

type menuAction int

const (
	actionNone menuAction = iota
	actionDetect
	actionInstall
	actionUninstall
	actionCleanCache
	actionManifest
	actionFullSetup
	actionExit
)

type menuItem struct {
	action menuAction
	label  string
	hint   string
}

var menuItems = []menuItem{
	{actionDetect, "Detect imports", "scan and verify, no changes"},
	{actionInstall, "Install missing packages", "pip install what is missing"},
	{actionUninstall, "Uninstall all packages", "pip uninstall everything but pip itself"},
	{actionCleanCache, "Clean pip cache", "pip cache purge"},
	{actionManifest, "Generate requirements.txt", "scan, verify and write the manifest"},
	{actionFullSetup, "Full setup", "clean, uninstall, install, write manifest"},
	{actionExit, "Exit", ""},
}

// MenuModel is the bubbletea model for the interactive action menu.
type MenuModel struct {
	Items    []menuItem
	Cursor   int
	Selected menuAction
}

func NewMenuModel() MenuModel {
	return MenuModel{Items: menuItems}
}

func (m MenuModel) Init() tea.Cmd {
	return nil
}

func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		m.Selected = actionExit
		return m, tea.Quit
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < len(m.Items)-1 {
			m.Cursor++
		}
	case "enter":
		m.Selected = m.Items[m.Cursor].action
		return m, tea.Quit
	default:
		// Digits jump straight to an entry.
		if s := key.String(); len(s) == 1 && s[0] >= '1' && int(s[0]-'1') < len(m.Items) {
			m.Cursor = int(s[0] - '1')
			m.Selected = m.Items[m.Cursor].action
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m MenuModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("importaudit"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  1-7 shortcut  q quit"))
	b.WriteString("\n\n")

	for i, item := range m.Items {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		line := fmt.Sprintf("%s%d. %-28s", cursor, i+1, item.label)
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		if item.hint != "" {
			b.WriteString(" " + listDimStyle.Render(item.hint))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// =============================================================================
// ConfirmModel - yes/no prompt for destructive actions
// =============================================================================

// ConfirmModel asks a yes/no question. Anything but an explicit yes is a no.
type ConfirmModel struct {
	Prompt    string
	Confirmed bool
	Done      bool
}

func (m ConfirmModel) Init() tea.Cmd {
	return nil
}

func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch strings.ToLower(key.String()) {
	case "y":
		m.Confirmed = true
		m.Done = true
		return m, tea.Quit
	case "n", "enter", "q", "esc", "ctrl+c":
		m.Done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m ConfirmModel) View() string {
	if m.Done {
		return ""
	}
	return StyleWarning.Render(iconWarning+" "+m.Prompt) + " " + listDimStyle.Render("[y/N]") + "\n"
}

func askConfirm(ctx context.Context, prompt string) (bool, error) {
	final, err := tea.NewProgram(ConfirmModel{Prompt: prompt}, tea.WithContext(ctx)).Run()
	if err != nil {
		return false, teaErr(ctx, err)
	}
	return final.(ConfirmModel).Confirmed, nil
}

func pickAction(ctx context.Context) (menuAction, error) {
	final, err := tea.NewProgram(NewMenuModel(), tea.WithContext(ctx)).Run()
	if err != nil {
		return actionNone, teaErr(ctx, err)
	}
	return final.(MenuModel).Selected, nil
}

// teaErr reports a program killed by cancellation as the context error.
func teaErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// runMenu shows the menu until the user exits. A failed action is reported
// and the menu is shown again; the last install failure is returned on exit
// so the exit status still reflects it.
func (c *CLI) runMenu(ctx context.Context, s *session, f *rootFlags) error {
	if !c.Interactive {
		return errors.New("--option needs an interactive terminal")
	}

	var result error
	for {
		action, err := pickAction(ctx)
		if err != nil {
			return err
		}

		switch action {
		case actionExit, actionNone:
			return result
		case actionDetect:
			opts := s.options(f)
			opts.SkipManifest = true
			err = c.audit(ctx, s, opts)
		case actionInstall:
			opts := s.options(f)
			opts.Install = true
			opts.SkipManifest = true
			err = c.audit(ctx, s, opts)
		case actionUninstall:
			err = c.uninstallAll(ctx, s, f)
		case actionCleanCache:
			err = c.cleanCache(ctx, s)
		case actionManifest:
			err = c.audit(ctx, s, s.options(f))
		case actionFullSetup:
			err = c.fullSetup(ctx, s, f)
		}

		switch {
		case err == nil:
		case ctx.Err() != nil:
			return ctx.Err()
		case errors.Is(err, ErrInstallFailed):
			result = err
		case errors.Is(err, errNotConfirmed):
			printInfo("Cancelled")
		default:
			printError("%v", err)
		}
		fmt.Println()
	}
}
