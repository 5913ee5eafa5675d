package config

// ModelPreset bundles a provider and model choice under a short name.
type ModelPreset struct {
	Provider        string
	Name            string
	Temperature     float32
	MaxOutputTokens int32
}

// ModelPresets are the built-in presets selectable with --preset.
var ModelPresets = map[string]ModelPreset{
	"fast": {
		Provider:        "gemini",
		Name:            "gemini-2.5-flash",
		Temperature:     0.2,
		MaxOutputTokens: 8192,
	},
	"deep": {
		Provider:        "gemini",
		Name:            "gemini-2.5-pro",
		Temperature:     0.2,
		MaxOutputTokens: 16384,
	},
	"local": {
		Provider:        "ollama",
		Name:            "qwen2.5-coder:14b",
		Temperature:     0.2,
		MaxOutputTokens: 8192,
	},
}

// ApplyPreset overwrites the provider and model settings from a named preset.
// Returns false when the preset does not exist.
func (c *Config) ApplyPreset(name string) bool {
	preset, ok := ModelPresets[name]
	if !ok {
		return false
	}
	c.API.Provider = preset.Provider
	c.Model.Name = preset.Name
	c.Model.Temperature = preset.Temperature
	c.Model.MaxOutputTokens = preset.MaxOutputTokens
	return true
}

// PresetNames lists the available preset names.
func PresetNames() []string {
	names := make([]string, 0, len(ModelPresets))
	for name := range ModelPresets {
		names = append(names, name)
	}
	return names
}
