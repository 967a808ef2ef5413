package ui

import (
	"strings"

	"github.com/evallife/llm-chat/internal/config"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

const (
	labelAPIKey      = "API Key"
	labelModel       = "Model"
	labelMaxTokens   = "Max tokens"
	labelTemperature = "Temperature (0-1)"
)

// showSettings layers a fresh settings form, filled from the live
// configuration, over the chat page. top_p has no field on purpose.
func (ui *TViewUI) showSettings() {
	current := config.EditsFrom(ui.config)

	form := tview.NewForm().
		AddPasswordField(labelAPIKey, current.APIKey, 48, '*', nil).
		AddInputField(labelModel, current.Model, 48, nil, nil).
		AddInputField(labelMaxTokens, current.MaxTokens, 10, nil, nil).
		AddInputField(labelTemperature, current.Temperature, 10, nil, nil)

	if model, ok := form.GetFormItemByLabel(labelModel).(*tview.InputField); ok {
		model.SetAutocompleteFunc(modelSuggestions)
	}

	form.AddButton("Save", func() { ui.saveSettings(form) }).
		AddButton("Cancel", ui.closeSettings).
		SetCancelFunc(ui.closeSettings)
	form.SetBorder(true).SetTitle(" Settings ")
	form.SetButtonBackgroundColor(tcell.ColorDarkSlateGray)

	ui.SettingsForm = form
	ui.Pages.AddPage(pageSettings, centered(form, 70, 13), true, true)
	ui.App.SetFocus(form)
}

func (ui *TViewUI) saveSettings(form *tview.Form) {
	edits := config.Edits{
		APIKey:      fieldText(form, labelAPIKey),
		Model:       strings.TrimSpace(fieldText(form, labelModel)),
		MaxTokens:   fieldText(form, labelMaxTokens),
		Temperature: fieldText(form, labelTemperature),
	}

	updated, err := config.ApplyEdits(ui.config, edits)
	if err != nil {
		log.Warn().Err(err).Msg("settings rejected")
		ui.showNotice("Invalid input: "+err.Error(), form)
		return
	}

	if err := ui.store.Save(updated); err != nil {
		log.Error().Err(err).Msg("settings save failed")
		ui.showNotice("Saving settings failed: "+err.Error(), form)
		return
	}

	ui.config = updated
	ui.closeSettings()
	ui.showNotice("Settings saved.", ui.Input)
}

func (ui *TViewUI) closeSettings() {
	ui.Pages.RemovePage(pageSettings)
	ui.SettingsForm = nil
	ui.App.SetFocus(ui.Input)
}

func fieldText(form *tview.Form, label string) string {
	if field, ok := form.GetFormItemByLabel(label).(*tview.InputField); ok {
		return field.GetText()
	}
	return ""
}

func modelSuggestions(current string) []string {
	if current == "" {
		return nil
	}
	needle := strings.ToLower(current)
	var out []string
	for _, m := range config.Presets {
		if strings.Contains(strings.ToLower(m), needle) && m != current {
			out = append(out, m)
		}
	}
	return out
}

func centered(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 1, true).
			AddItem(nil, 0, 1, false), width, 1, true).
		AddItem(nil, 0, 1, false)
}
