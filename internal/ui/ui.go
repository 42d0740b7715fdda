package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"focusflow/internal/config"
	"focusflow/internal/session"
	"focusflow/internal/tasks"
	"focusflow/internal/view"
)

type mode int

const (
	modeList mode = iota
	modeAdd
	modeSearch
	modeEdit
	modeConfirm
)

type addState struct {
	title    string
	due      string
	priority string
	index    int
}

type Model struct {
	sess   *session.Session
	cfg    config.Config
	snap   session.Snapshot
	cursor int
	mode   mode
	input  textinput.Model
	status string
	add    *addState
	editID string
	today  func() tasks.Date
}

func New(sess *session.Session, cfg config.Config) Model {
	ti := textinput.New()
	ti.Placeholder = "Task title"
	ti.CharLimit = 256
	ti.Width = 40

	m := Model{
		sess:   sess,
		cfg:    cfg,
		input:  ti,
		mode:   modeList,
		status: fmt.Sprintf("Press '%s' to add a task, '%s' to search.", cfg.Keys.New, cfg.Keys.Search),
		today:  func() tasks.Date { return tasks.DateOf(time.Now()) },
	}
	m.sync()
	return m
}

func Run(sess *session.Session, cfg config.Config) error {
	program := tea.NewProgram(New(sess, cfg))
	_, err := program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		key := msg.String()
		switch m.mode {
		case modeAdd:
			return m.updateAddMode(key, msg)
		case modeSearch:
			return m.updateSearchMode(key, msg)
		case modeEdit:
			return m.updateEditMode(key, msg)
		case modeConfirm:
			return m.updateConfirm(key)
		}
		return m.updateListMode(key)
	case tea.WindowSizeMsg:
		m.input.Width = msg.Width - 10
	}
	return m, nil
}

// sync pulls a fresh snapshot and keeps the cursor inside the view.
func (m *Model) sync() {
	m.snap = m.sess.Snapshot()
	m.cursor = clampCursor(m.cursor, len(m.snap.View))
	if m.snap.SaveErr != nil {
		m.status = fmt.Sprintf("not saved: %v", m.snap.SaveErr)
	}
}

// follow moves the cursor onto id if it is visible.
func (m *Model) follow(id string) {
	for i, t := range m.snap.View {
		if t.ID == id {
			m.cursor = i
			return
		}
	}
}

func (m Model) current() (tasks.Task, bool) {
	if len(m.snap.View) == 0 {
		return tasks.Task{}, false
	}
	return m.snap.View[clampCursor(m.cursor, len(m.snap.View))], true
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	k := m.cfg.Keys
	switch key {
	case "ctrl+c", k.Quit:
		m.sess.Close()
		return m, tea.Quit
	case k.Down, "down":
		m.cursor = clampCursor(m.cursor+1, len(m.snap.View))
	case k.Up, "up":
		m.cursor = clampCursor(m.cursor-1, len(m.snap.View))
	case k.New:
		m.add = &addState{priority: string(tasks.PriorityMedium)}
		m.mode = modeAdd
		m.input.SetValue("")
		m.input.Placeholder = addFields()[0]
		m.input.Focus()
		m.status = m.addPrompt()
	case k.Search:
		m.mode = modeSearch
		m.input.SetValue(m.snap.Params.Query)
		m.input.Placeholder = "Search tasks"
		m.input.Focus()
		m.status = "Search: type to filter, enter to keep, esc to clear"
	case k.FilterAll:
		m.sess.SetFilter(view.FilterAll)
		m.sync()
	case k.FilterActive:
		m.sess.SetFilter(view.FilterActive)
		m.sync()
	case k.FilterDone:
		m.sess.SetFilter(view.FilterCompleted)
		m.sync()
	case k.Sort:
		m.sess.SetParams(m.snap.Params.NextSort())
		m.sync()
		m.status = "Sorted by " + m.snap.Params.SortString()
	case k.Select:
		if t, ok := m.current(); ok {
			m.sess.ToggleSelect(t.ID)
			m.sync()
		}
	case k.Toggle:
		if t, ok := m.current(); ok {
			m.sess.Toggle(t.ID)
			m.status = "Toggled task"
			m.sync()
			m.follow(t.ID)
		}
	case k.ToggleFirst:
		if m.sess.ToggleFirstVisible() {
			m.status = "Toggled first task"
		}
		m.sync()
	case k.Edit:
		t, ok := m.current()
		if !ok {
			m.status = "No tasks to edit"
			return m, nil
		}
		m.editID = t.ID
		m.mode = modeEdit
		m.input.SetValue(t.Title)
		m.input.Placeholder = "Task title"
		m.input.Focus()
		m.status = "Rename: enter to save, esc to cancel"
	case k.MoveUp, k.MoveDown:
		t, ok := m.current()
		if !ok {
			return m, nil
		}
		delta := 1
		if key == k.MoveUp {
			delta = -1
		}
		if !m.sess.MoveBy(t.ID, delta) {
			m.status = "Cannot move further"
		}
		m.sync()
		m.follow(t.ID)
	case k.Delete:
		t, ok := m.current()
		if !ok {
			return m, nil
		}
		if c := m.sess.RequestDelete(t.ID); c != nil {
			m.mode = modeConfirm
			m.status = c.Prompt + " y/n"
		}
		m.sync()
	case k.CompleteMarked:
		if n := m.sess.CompleteSelected(); n > 0 {
			m.status = fmt.Sprintf("Completed %d task(s)", n)
		} else {
			m.status = "Nothing selected"
		}
		m.sync()
	case k.ClearCompleted:
		if c := m.sess.RequestClearCompleted(); c != nil {
			m.mode = modeConfirm
			m.status = c.Prompt + " y/n"
		} else {
			m.status = "No completed tasks"
		}
		m.sync()
	}
	return m, nil
}

func (m Model) updateConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Confirm, "y", "Y":
		if m.sess.Confirm() {
			m.status = "Done"
		} else {
			m.status = "Nothing to delete"
		}
	case "n", "N", m.cfg.Keys.Cancel:
		m.sess.Cancel()
		m.status = "Cancelled"
	default:
		return m, nil
	}
	m.mode = modeList
	m.sync()
	return m, nil
}

func (m Model) updateAddMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel, "esc":
		m.leaveInput("Cancelled")
		m.add = nil
		return m, nil
	case "tab", "shift+tab":
		m.add.setCurrentValue(m.input.Value())
		step := 1
		if key == "shift+tab" {
			step = -1
		}
		m.add.index = wrapIndex(m.add.index+step, len(addFields()))
		m.input.SetValue(m.add.currentValue())
		m.input.Placeholder = m.add.currentLabel()
		m.status = m.addPrompt()
		return m, nil
	case "enter":
		m.add.setCurrentValue(m.input.Value())
		if m.add.index < len(addFields())-1 {
			m.add.index++
			m.input.SetValue(m.add.currentValue())
			m.input.Placeholder = m.add.currentLabel()
			m.status = m.addPrompt()
			return m, nil
		}
		return m.submitAdd()
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) submitAdd() (tea.Model, tea.Cmd) {
	due, err := tasks.ParseDate(m.add.due)
	if err != nil {
		m.status = fmt.Sprintf("due date invalid: %v", err)
		return m, nil
	}
	priority := tasks.PriorityMedium
	if strings.TrimSpace(m.add.priority) != "" {
		if priority, err = tasks.ParsePriority(m.add.priority); err != nil {
			m.status = err.Error()
			return m, nil
		}
	}
	t, err := m.sess.Create(m.add.title, due, priority)
	if err != nil {
		m.add.index = 0
		m.input.SetValue(m.add.title)
		m.input.Placeholder = m.add.currentLabel()
		m.status = "Title cannot be empty"
		return m, nil
	}
	m.add = nil
	m.leaveInput("Added task")
	m.follow(t.ID)
	return m, nil
}

func (m Model) updateSearchMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case "enter":
		m.leaveInput("Search: " + emptyPlaceholder(m.snap.Params.Query))
		return m, nil
	case m.cfg.Keys.Cancel, "esc":
		m.sess.SetQuery("")
		m.leaveInput("Search cleared")
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.sess.SetQuery(m.input.Value())
		m.sync()
		return m, cmd
	}
}

func (m Model) updateEditMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case "enter":
		id := m.editID
		status := "Edit discarded"
		if m.sess.Rename(id, m.input.Value()) {
			status = "Renamed task"
		}
		m.editID = ""
		m.leaveInput(status)
		m.follow(id)
		return m, nil
	case m.cfg.Keys.Cancel, "esc":
		m.editID = ""
		m.leaveInput("Edit cancelled")
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m *Model) leaveInput(status string) {
	m.input.SetValue("")
	m.input.Blur()
	m.mode = modeList
	m.status = status
	m.sync()
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("focusflow"))
	b.WriteString("  ")
	b.WriteString(mutedStyle.Render(m.renderParams()))
	b.WriteString("\n\n")

	if len(m.snap.View) == 0 {
		b.WriteString(mutedStyle.Render("No tasks yet. Press '" + m.cfg.Keys.New + "' to add one."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderTaskList())
	}

	b.WriteString("\n")
	b.WriteString(m.snap.Summary.String())
	b.WriteString("  ")
	b.WriteString(m.renderBulk())
	b.WriteString("\n")

	switch m.mode {
	case modeAdd:
		b.WriteString("\n")
		b.WriteString(m.renderAddBox())
		b.WriteString(m.input.View())
		b.WriteString("\n")
	case modeSearch:
		b.WriteString("\nSearch: ")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	case modeEdit:
		b.WriteString("\nRename: ")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.mode == modeConfirm {
		b.WriteString(warnStyle.Render(m.status))
	} else {
		b.WriteString(m.status)
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(renderHelp(m.cfg.Keys)))

	return b.String()
}

func (m Model) renderParams() string {
	p := m.snap.Params
	s := fmt.Sprintf("filter:%s  sort:%s", p.Filter, p.SortString())
	if q := strings.TrimSpace(p.Query); q != "" {
		s += fmt.Sprintf("  search:%q", q)
	}
	return s
}

func (m Model) renderTaskList() string {
	var b strings.Builder
	today := m.today()
	for i, t := range m.snap.View {
		cursor := " "
		if m.cursor == i && m.mode != modeAdd {
			cursor = ">"
		}

		checkbox := "[ ]"
		if t.Completed {
			checkbox = "[x]"
		}

		mark := " "
		if m.snap.IsSelected(t.ID) {
			mark = "*"
		}

		title := t.Title
		if t.Completed {
			title = doneStyle.Render(title)
		}

		parts := []string{cursor + mark + checkbox, title, priorityBadge(t.Priority)}
		if label, status := view.DueLabel(t.Due, today); status != view.DueNone {
			parts = append(parts, dueBadge("Due "+label, status))
		}
		parts = append(parts, mutedStyle.Render(t.Created().Format("15:04")))

		b.WriteString(strings.Join(parts, " "))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderBulk() string {
	return fmt.Sprintf("%s %s", flag(m.cfg.Keys.CompleteMarked+" complete selected", m.snap.CanCompleteSelected),
		flag(m.cfg.Keys.ClearCompleted+" clear completed", m.snap.CanClearCompleted))
}

func (m Model) renderAddBox() string {
	fields := addFields()
	values := []string{m.add.title, m.add.due, m.add.priority}
	var b strings.Builder
	for i, name := range fields {
		prefix := " "
		if i == m.add.index {
			prefix = ">"
		}
		b.WriteString(fmt.Sprintf("%s %-22s : %s\n", prefix, name, emptyPlaceholder(values[i])))
	}
	return b.String()
}

func renderHelp(k config.Keymap) string {
	return fmt.Sprintf("%s/%s move • %s new • %s search • %s/%s/%s filter • %s sort • space select • %s toggle • %s rename • %s/%s reorder • %s delete • %s quit",
		k.Up, k.Down, k.New, k.Search, k.FilterAll, k.FilterActive, k.FilterDone, k.Sort, k.Toggle, k.Edit, k.MoveUp, k.MoveDown, k.Delete, k.Quit)
}

func addFields() []string {
	return []string{"title", "due date (YYYY-MM-DD)", "priority (low/medium/high)"}
}

func (m Model) addPrompt() string {
	if m.add == nil {
		return ""
	}
	return fmt.Sprintf("New task: %s (field %d of %d). Enter to advance, tab to move, esc to cancel.",
		m.add.currentLabel(), m.add.index+1, len(addFields()))
}

func (as addState) currentLabel() string {
	return addFields()[as.index]
}

func (as addState) currentValue() string {
	switch as.index {
	case 0:
		return as.title
	case 1:
		return as.due
	case 2:
		return as.priority
	default:
		return ""
	}
}

func (as *addState) setCurrentValue(v string) {
	switch as.index {
	case 0:
		as.title = v
	case 1:
		as.due = v
	case 2:
		as.priority = v
	}
}

func emptyPlaceholder(v string) string {
	if strings.TrimSpace(v) == "" {
		return "(empty)"
	}
	return v
}

func wrapIndex(idx, n int) int {
	if n <= 0 {
		return 0
	}
	idx %= n
	if idx < 0 {
		idx += n
	}
	return idx
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
