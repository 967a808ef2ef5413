package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/evallife/llm-chat/internal/chat"
	"github.com/evallife/llm-chat/internal/config"
	"github.com/evallife/llm-chat/internal/types"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

const (
	pageChat     = "chat"
	pageSettings = "settings"
	pageNotice   = "notice"

	sendLabel     = "Send"
	thinkingLabel = "Thinking..."
)

// TViewUI is the application shell. It owns the window, the live
// configuration and the chat session.
type TViewUI struct {
	App          *tview.Application
	Pages        *tview.Pages
	ChatView     *tview.TextView
	Input        *tview.TextArea
	SendButton   *tview.Button
	SettingsForm *tview.Form

	config   types.Config
	store    *config.Store
	session  *chat.Session
	renderer *glamour.TermRenderer
}

func NewTViewUI(cfg types.Config, store *config.Store, completer chat.Completer) *TViewUI {
	ui := &TViewUI{
		App:     tview.NewApplication(),
		Pages:   tview.NewPages(),
		config:  cfg,
		store:   store,
		session: chat.NewSession(completer),
	}

	tview.Styles.PrimitiveBackgroundColor = tcell.ColorBlack
	tview.Styles.ContrastBackgroundColor = tcell.ColorDarkSlateGray
	tview.Styles.BorderColor = tcell.ColorDarkSlateGray
	tview.Styles.TitleColor = tcell.ColorLightSkyBlue
	tview.Styles.PrimaryTextColor = tcell.ColorWhite
	tview.Styles.SecondaryTextColor = tcell.ColorGray
	tview.Styles.TertiaryTextColor = tcell.ColorLightGray

	ui.renderer, _ = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)

	ui.setupChatView()

	inputRow := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(ui.Input, 0, 1, true).
		AddItem(ui.SendButton, 14, 0, false)

	chatFlex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(ui.ChatView, 0, 1, false).
		AddItem(inputRow, 5, 0, true).
		AddItem(ui.buildFooterBar(), 3, 0, false)

	ui.Pages.AddPage(pageChat, chatFlex, true, true)
	ui.App.SetRoot(ui.Pages, true).EnableMouse(true)

	ui.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if front, _ := ui.Pages.GetFrontPage(); front != pageChat {
			return event
		}
		switch event.Key() {
		case tcell.KeyCtrlS:
			ui.showSettings()
			return nil
		case tcell.KeyCtrlE:
			ui.exportTranscript()
			return nil
		case tcell.KeyCtrlD:
			ui.submit()
			return nil
		case tcell.KeyEnter:
			if event.Modifiers()&tcell.ModAlt != 0 {
				ui.submit()
				return nil
			}
		}
		return event
	})

	return ui
}

func (ui *TViewUI) setupChatView() {
	ui.ChatView = tview.NewTextView().
		SetDynamicColors(true).
		SetWordWrap(true).
		SetScrollable(true)
	ui.ChatView.SetBorder(true).SetTitle(" Chat ")
	ui.ChatView.SetTitleColor(tcell.ColorLightSkyBlue)

	ui.Input = tview.NewTextArea().
		SetPlaceholder("Type a prompt... (Ctrl+D or Alt+Enter to send)")
	ui.Input.SetBorder(true).SetTitle(" Input ")
	ui.Input.SetTitleColor(tcell.ColorLightSkyBlue)

	ui.SendButton = ui.makeButton(sendLabel, ui.submit)
	ui.SendButton.SetBorder(true)
}

// submit hands the current input to the session. Runs on the event loop.
func (ui *TViewUI) submit() {
	entry, err := ui.session.Submit(ui.Input.GetText(), ui.config)
	switch {
	case errors.Is(err, chat.ErrEmptyPrompt):
		ui.showNotice("Please enter a prompt.", ui.Input)
		return
	case errors.Is(err, chat.ErrBusy):
		return
	case err != nil:
		log.Error().Err(err).Msg("submit failed")
		return
	}

	ui.Input.SetText("", false)
	ui.appendEntry(entry)
	ui.setAwaitingReply(true)
}

// onResult applies a worker result. It must run on the event loop.
func (ui *TViewUI) onResult(entry types.Entry) {
	ui.session.Deliver(entry)
	ui.appendEntry(entry)
	ui.setAwaitingReply(false)
}

func (ui *TViewUI) setAwaitingReply(waiting bool) {
	if waiting {
		ui.SendButton.SetLabel(thinkingLabel).SetDisabled(true)
		return
	}
	ui.SendButton.SetLabel(sendLabel).SetDisabled(false)
	if front, _ := ui.Pages.GetFrontPage(); front == pageChat {
		ui.App.SetFocus(ui.Input)
	}
}

func (ui *TViewUI) appendEntry(e types.Entry) {
	color := "purple"
	body := tview.Escape(e.Text)
	switch e.Speaker {
	case types.SpeakerModel:
		color = "green"
		if ui.renderer != nil {
			if rendered, err := ui.renderer.Render(e.Text); err == nil {
				body = tview.TranslateANSI(rendered)
			}
		}
	case types.SpeakerError:
		color = "red"
	}

	fmt.Fprintf(ui.ChatView, "[%s::b]%s:[-::-] %s\n\n", color, e.Speaker.Label(), strings.TrimRight(body, "\n"))
	ui.ChatView.ScrollToEnd()
}

// pumpResults moves worker results onto the event loop.
func (ui *TViewUI) pumpResults(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case entry := <-ui.session.Results():
			ui.App.QueueUpdateDraw(func() {
				ui.onResult(entry)
			})
		}
	}
}

func (ui *TViewUI) showNotice(text string, returnFocus tview.Primitive) {
	modal := tview.NewModal().
		SetText(text).
		AddButtons([]string{"OK"}).
		SetDoneFunc(func(int, string) {
			ui.Pages.RemovePage(pageNotice)
			if returnFocus != nil {
				ui.App.SetFocus(returnFocus)
			}
		})
	ui.Pages.AddPage(pageNotice, modal, true, true)
	ui.App.SetFocus(modal)
}

func (ui *TViewUI) exportTranscript() {
	filename := fmt.Sprintf("chat_export_%d.md", time.Now().Unix())
	f, err := os.Create(filename)
	if err != nil {
		ui.showNotice(fmt.Sprintf("Export failed: %v", err), ui.Input)
		return
	}
	defer f.Close()

	if err := chat.WriteMarkdown(f, ui.session.Transcript()); err != nil {
		ui.showNotice(fmt.Sprintf("Export failed: %v", err), ui.Input)
		return
	}
	log.Info().Str("file", filename).Msg("transcript exported")
	ui.showNotice("Transcript saved to "+filename, ui.Input)
}

func (ui *TViewUI) makeButton(label string, action func()) *tview.Button {
	btn := tview.NewButton(label)
	btn.SetSelectedFunc(action)
	btn.SetBackgroundColor(tcell.ColorDarkSlateGray)
	btn.SetBackgroundColorActivated(tcell.ColorLightSkyBlue)
	btn.SetLabelColor(tcell.ColorWhite)
	btn.SetLabelColorActivated(tcell.ColorBlack)
	return btn
}

func (ui *TViewUI) buildFooterBar() *tview.Flex {
	bar := tview.NewFlex().SetDirection(tview.FlexColumn)
	bar.SetBorder(true).SetTitle(" Ctrl+D: Send | Ctrl+S: Settings | Ctrl+E: Export | Ctrl+C: Quit ")
	bar.AddItem(ui.makeButton("Settings", ui.showSettings), 0, 1, false)
	bar.AddItem(ui.makeButton("Export", ui.exportTranscript), 0, 1, false)
	bar.AddItem(ui.makeButton("Quit", func() { ui.App.Stop() }), 0, 1, false)
	return bar
}

// Config returns the live configuration.
func (ui *TViewUI) Config() types.Config {
	return ui.config
}

func (ui *TViewUI) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ui.pumpResults(ctx)

	return ui.App.Run()
}
