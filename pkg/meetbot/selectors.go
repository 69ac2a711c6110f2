package meetbot

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Strategy is one named way of locating a UI element. Chains of strategies
// are tried in order until one matches, so the session machine never has to
// change when the conferencing UI shifts under it.
type Strategy struct {
	Name     string `yaml:"name"`
	Selector string `yaml:"selector"`
}

// SelectorSet holds the strategy chains for every UI interaction the session
// performs. All selectors are XPath.
type SelectorSet struct {
	MuteMicrophone     []Strategy `yaml:"mute_microphone"`
	DisableCamera      []Strategy `yaml:"disable_camera"`
	NameInput          []Strategy `yaml:"name_input"`
	JoinButton         []Strategy `yaml:"join_button"`
	AdmissionIndicator []Strategy `yaml:"admission_indicator"`

	// NotFoundMarkers are page-text fragments that mean the meeting does
	// not exist or has not started.
	NotFoundMarkers []string `yaml:"not_found_markers"`
}

// DefaultSelectors returns the built-in strategy chains for Google Meet.
func DefaultSelectors() SelectorSet {
	return SelectorSet{
		MuteMicrophone: []Strategy{
			{Name: "mic-div", Selector: `//div[@aria-label="Turn off microphone"]`},
			{Name: "mic-button", Selector: `//button[@aria-label="Turn off microphone"]`},
		},
		DisableCamera: []Strategy{
			{Name: "camera-div", Selector: `//div[@aria-label="Turn off camera"]`},
			{Name: "camera-button", Selector: `//button[@aria-label="Turn off camera"]`},
		},
		NameInput: []Strategy{
			{Name: "placeholder", Selector: `//input[@placeholder="Your name"]`},
			{Name: "labelled-text", Selector: `//input[@type="text" and @aria-label]`},
		},
		JoinButton: []Strategy{
			{Name: "ask-to-join-span", Selector: `//span[contains(text(), "Ask to join")]//parent::button`},
			{Name: "ask-to-join", Selector: `//button[contains(., "Ask to join")]`},
			{Name: "join-now-span", Selector: `//span[contains(text(), "Join now")]//parent::button`},
			{Name: "join-now", Selector: `//button[contains(., "Join now")]`},
		},
		AdmissionIndicator: []Strategy{
			{Name: "in-call-panel", Selector: `//div[contains(@class, "u6vdEc")]`},
			{Name: "leave-call", Selector: `//button[@aria-label="Leave call"]`},
		},
		NotFoundMarkers: []string{
			"Check your meeting code",
			"You can't create a meeting yourself",
			"meeting hasn't started",
			"Invalid video call name",
		},
	}
}

// LoadSelectors reads strategy-chain overrides from a YAML file and merges
// them over the defaults. Chains absent from the file keep their defaults.
func LoadSelectors(path string) (SelectorSet, error) {
	base := DefaultSelectors()

	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("failed to read selector config: %w", err)
	}

	var overrides SelectorSet
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return base, fmt.Errorf("failed to parse selector config: %w", err)
	}

	if len(overrides.MuteMicrophone) > 0 {
		base.MuteMicrophone = overrides.MuteMicrophone
	}
	if len(overrides.DisableCamera) > 0 {
		base.DisableCamera = overrides.DisableCamera
	}
	if len(overrides.NameInput) > 0 {
		base.NameInput = overrides.NameInput
	}
	if len(overrides.JoinButton) > 0 {
		base.JoinButton = overrides.JoinButton
	}
	if len(overrides.AdmissionIndicator) > 0 {
		base.AdmissionIndicator = overrides.AdmissionIndicator
	}
	if len(overrides.NotFoundMarkers) > 0 {
		base.NotFoundMarkers = overrides.NotFoundMarkers
	}

	return base, nil
}
