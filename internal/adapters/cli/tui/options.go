package tui

import (
	"github.com/devbush/vid2slides/internal/domain"
)

// ExtractChoices are the per-run options picked in the interactive flow
type ExtractChoices struct {
	Format      domain.ExportFormat
	ExtractText bool
	Archive     bool
	PruneImages bool
}

// RunExtractOptions asks for the export format and optional extras,
// starting from the configured defaults. It returns nil when cancelled.
func RunExtractOptions(defaults ExtractChoices) (*ExtractChoices, error) {
	format, err := RunMenu("Export slides as?", []MenuOption{
		{Label: "PDF document", Value: string(domain.FormatDocument)},
		{Label: "HTML slideshow", Value: string(domain.FormatInteractive)},
		{Label: "Images only", Value: string(domain.FormatRawImages)},
	})
	if err != nil || format == "" {
		return nil, err
	}

	options := []CheckboxOption{
		{Label: "Extract slide text (OCR)", Value: "text", Checked: defaults.ExtractText},
		{Label: "Bundle images into slides.zip", Value: "archive", Checked: defaults.Archive},
	}
	if domain.ExportFormat(format) == domain.FormatDocument {
		options = append(options, CheckboxOption{Label: "Delete PNG files after PDF export", Value: "prune", Checked: defaults.PruneImages})
	}

	selected, err := RunCheckbox("Extras", options, 0)
	if err != nil || selected == nil {
		return nil, err
	}

	choices := &ExtractChoices{Format: domain.ExportFormat(format)}
	for _, v := range selected {
		switch v {
		case "text":
			choices.ExtractText = true
		case "archive":
			choices.Archive = true
		case "prune":
			choices.PruneImages = true
		}
	}
	return choices, nil
}
