package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jwebster45206/roleplay-engine/pkg/state"
	"github.com/muesli/reflow/wordwrap"
)

const (
	PlaceHolderText = "Bạn sẽ làm gì? (số để chọn lựa chọn, /help để xem lệnh)"
	defaultSaveSlot = "console"
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	api          *apiClient
	gameState    *state.GameState
	notices      []state.Notice
	status       string
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool

	// Setup selection state
	showSetupModal bool
	setups         []setupListing
	selectedSetup  int
	loadingSetups  bool

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int
}

type turnMsg struct {
	result *Result
	err    error
}

type statusMsg struct {
	text string
	err  error
}

type setupsLoadedMsg struct {
	setups []setupListing
	err    error
}

type gameCreatedMsg struct {
	result *Result
	err    error
}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	eventStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

var noticeStyles = map[state.NoticeKind]lipgloss.Style{
	state.NoticeInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	state.NoticeSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("86")),
	state.NoticeWarning: loadingStyle,
	state.NoticeError:   errorStyle,
}

func NewConsoleUI(api *apiClient) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		api:            api,
		textarea:       ta,
		chatViewport:   chatVp,
		metaViewport:   metaVp,
		showSetupModal: true,
		loadingSetups:  true,
	}
}

func writeMetadata(gs *state.GameState) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render(strings.ToUpper(gs.CharacterName())) + "\n\n")

	if gs.IsDead() {
		content.WriteString(errorStyle.Render("ĐÃ TỬ VONG") + "\n\n")
	}
	if gs.IsRoleplayModeActive {
		content.WriteString(loadingStyle.Render("Chế độ nhập vai") + "\n\n")
	}

	content.WriteString(gs.DescribeStats() + "\n\n")
	content.WriteString(gs.DescribeInventory() + "\n\n")
	content.WriteString(gs.DescribeObjectives() + "\n\n")

	if gs.CurrentWorldEvent != nil {
		content.WriteString("Sự kiện:\n" + gs.CurrentWorldEvent.Name + "\n\n")
	}

	content.WriteString("Commands:\n")
	content.WriteString("• Ctrl+Z: Undo\n")
	content.WriteString("• Ctrl+R: Reroll opening\n")
	content.WriteString("• Ctrl+Y: Copy last passage\n")
	content.WriteString("• Ctrl+C: Quit\n")
	content.WriteString("• /help: Help\n")

	return content.String()
}

// writeChatContent builds the story view from game state for the current viewport width
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6 // Account for left(3) + right(3) padding
	if chatWidth < 10 {
		chatWidth = 10
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("ROLEPLAY ENGINE") + "\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", chatWidth)) + "\n\n")

	if m.gameState != nil {
		for _, msg := range m.gameState.StoryLog {
			content.WriteString(formatStoryMessage(msg, chatWidth) + "\n\n")
		}

		if len(m.gameState.CurrentChoices) > 0 && !m.loading {
			for i, choice := range m.gameState.CurrentChoices {
				line := fmt.Sprintf("%d. %s", i+1, choice.Text)
				content.WriteString(promptStyle.Render(wordwrap.String(line, chatWidth)) + "\n")
			}
			content.WriteString("\n")
		}
	}

	for _, n := range m.notices {
		style, ok := noticeStyles[n.Kind]
		if !ok {
			style = promptStyle
		}
		content.WriteString(style.Render(wordwrap.String("» "+n.Message, chatWidth)) + "\n")
	}
	if m.status != "" {
		content.WriteString("\n" + wordwrap.String(m.status, chatWidth) + "\n")
	}
	if m.err != nil {
		content.WriteString("\n" + errorStyle.Render("Lỗi: "+m.err.Error()) + "\n")
	}

	// If currently loading, add the progress bar
	if m.loading {
		content.WriteString("\n" + m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func formatStoryMessage(msg state.StoryMessage, width int) string {
	text := wordwrap.String(msg.Content, width)
	switch msg.Type {
	case state.MessageSystem:
		return userStyle.Render(text)
	case state.MessageEvent:
		return eventStyle.Render(text)
	case state.MessageDialogue:
		if msg.CharacterName != "" {
			return eventStyle.Render(msg.CharacterName+": ") + narratorStyle.Render(text)
		}
	}
	return narratorStyle.Render(text)
}

// lastPassage returns the newest narration, for copying to the clipboard.
func lastPassage(gs *state.GameState) string {
	if gs == nil {
		return ""
	}
	for i := len(gs.StoryLog) - 1; i >= 0; i-- {
		if gs.StoryLog[i].Type == state.MessageNarration {
			return gs.StoryLog[i].Content
		}
	}
	return ""
}

func (m ConsoleUI) Init() tea.Cmd {
	return m.loadSetups()
}

func (m *ConsoleUI) resize() {
	chatWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - chatWidth - 6

	m.chatViewport.Width = chatWidth - 2
	m.chatViewport.Height = m.height - 7
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(chatWidth - 4)
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showSetupModal {
		return m.updateSetupModal(msg)
	}

	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		m.writeChatContent()
		if m.gameState != nil {
			m.metaViewport.SetContent(writeMetadata(m.gameState))
		}

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyCtrlZ:
			return m.startTurn("undo", nil)
		case tea.KeyCtrlR:
			return m.startTurn("reroll", nil)
		case tea.KeyCtrlY:
			if err := clipboard.WriteAll(lastPassage(m.gameState)); err != nil {
				m.err = fmt.Errorf("không thể sao chép: %w", err)
			} else {
				m.status = "Đã sao chép đoạn truyện mới nhất."
			}
			m.writeChatContent()
			return m, nil
		case tea.KeyEnter:
			input := strings.TrimSpace(m.textarea.Value())
			if input == "" || m.loading {
				return m, nil
			}
			m.textarea.Reset()

			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}
			if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(m.gameState.CurrentChoices) {
				input = m.gameState.CurrentChoices[n-1].Text
			}
			return m.startTurn("action", map[string]string{"action": input})
		}

	case turnMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			if msg.result.GameState != nil {
				m.gameState = msg.result.GameState
				m.metaViewport.SetContent(writeMetadata(m.gameState))
			}
			m.notices = msg.result.Notices
			m.status = msg.result.Message
		}
		m.writeChatContent()
		return m, nil

	case statusMsg:
		m.loading = false
		m.err = msg.err
		m.status = msg.text
		m.writeChatContent()
		return m, nil

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

// startTurn posts op and shows the progress bar until the result arrives.
func (m ConsoleUI) startTurn(op string, body any) (tea.Model, tea.Cmd) {
	if m.loading || m.gameState == nil {
		return m, nil
	}
	m.loading = true
	m.progressTick = 0
	m.err = nil
	m.status = ""
	m.notices = nil
	m.writeChatContent()

	id := m.gameState.ID
	api := m.api
	run := func() tea.Msg {
		res, err := api.operation(id, op, body)
		return turnMsg{res, err}
	}
	return m, tea.Batch(run, progressTick())
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(input)
	cmd := strings.ToLower(fields[0])
	id := m.gameState.ID
	api := m.api

	switch cmd {
	case "/help":
		m.status = `Lệnh:
• /cultivate - Tu luyện
• /advance - Đột phá cảnh giới
• /roleplay - Bật/tắt chế độ nhập vai
• /summary - Tóm tắt câu chuyện
• /save [slot] - Lưu game
• Số 1-9 - Chọn lựa chọn tương ứng`
		m.err = nil
		m.writeChatContent()
		return m, nil

	case "/cultivate", "/advance", "/roleplay":
		return m.startTurn(strings.TrimPrefix(cmd, "/"), nil)

	case "/summary":
		m.loading = true
		m.writeChatContent()
		return m, tea.Batch(func() tea.Msg {
			summary, err := api.summary(id)
			return statusMsg{summary, err}
		}, progressTick())

	case "/save":
		slot := defaultSaveSlot
		if len(fields) > 1 {
			slot = fields[1]
		}
		return m, func() tea.Msg {
			if err := api.save(id, slot); err != nil {
				return statusMsg{err: err}
			}
			return statusMsg{text: fmt.Sprintf("Đã lưu vào ô %q.", slot)}
		}
	}

	// Anything else goes to the server, which answers the chat commands itself.
	return m.startTurn("action", map[string]string{"action": input})
}

func (m ConsoleUI) loadSetups() tea.Cmd {
	api := m.api
	return func() tea.Msg {
		setups, err := api.listSetups()
		return setupsLoadedMsg{setups, err}
	}
}

func (m ConsoleUI) createGame(setupID string) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		res, err := api.createGame(setupID)
		return gameCreatedMsg{res, err}
	}
}

func (m ConsoleUI) updateSetupModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case setupsLoadedMsg:
		m.loadingSetups = false
		if msg.err != nil {
			m.err = msg.err
		} else if len(msg.setups) == 0 {
			m.err = fmt.Errorf("no story setups found on the server")
		} else {
			m.setups = msg.setups
		}

	case gameCreatedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.gameState = msg.result.GameState
		m.notices = msg.result.Notices
		m.showSetupModal = false
		if m.width > 0 && m.height > 0 {
			m.resize()
		}
		m.writeChatContent()
		m.metaViewport.SetContent(writeMetadata(m.gameState))
		m.textarea.Focus()
		m.ready = true
		return m, textarea.Blink

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		if m.loadingSetups || m.loading || m.err != nil {
			return m, nil
		}

		switch msg.Type {
		case tea.KeyUp:
			if m.selectedSetup > 0 {
				m.selectedSetup--
			}
		case tea.KeyDown:
			if m.selectedSetup < len(m.setups)-1 {
				m.selectedSetup++
			}
		case tea.KeyEnter:
			if len(m.setups) > 0 {
				m.loading = true
				return m, m.createGame(m.setups[m.selectedSetup].ID)
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case turnMsg, statusMsg:
		// A request finished while the modal was open; apply it underneath.
		m.showQuitModal = false
		model, cmd := m.Update(msg)
		ui := model.(ConsoleUI)
		ui.showQuitModal = true
		return ui, cmd

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Thoát game?"))
	content.WriteString("\n\n")
	content.WriteString("Tiến trình đã được lưu trên máy chủ.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderSetupModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	switch {
	case m.loadingSetups:
		content.WriteString(modalTitleStyle.Render("Loading Setups..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Please wait while we fetch available stories..."))
	case m.err != nil:
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(m.err.Error()))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	case m.loading:
		content.WriteString(modalTitleStyle.Render("Đang khởi tạo..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Người dẫn truyện đang viết chương mở đầu..."))
	default:
		content.WriteString(modalTitleStyle.Render("Chọn câu chuyện"))
		content.WriteString("\n\n")

		for i, s := range m.setups {
			if i == m.selectedSetup {
				content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", s.Name)))
			} else {
				content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", s.Name)))
			}
			content.WriteString("\n")
		}

		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showSetupModal {
		return m.renderSetupModal()
	}

	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", chatWidth-4)),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓") // Blinking effect at the progress point
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
