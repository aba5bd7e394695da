package scraper

import (
	"encoding/json"
	"fmt"
	"os"
)

type SelectorConfig struct {
	DealList ListSelectors `json:"deal_list"`
}

type ListSelectors struct {
	Container ListContainer `json:"container"`
	Elements  ListElements  `json:"elements"`
}

type ListContainer struct {
	Item           string `json:"item"`            // e.g., "article.thread"
	IgnoreModifier string `json:"ignore_modifier"` // e.g., ".thread--expired"
}

type ListElements struct {
	TitleLink   string `json:"title_link"`
	Price       string `json:"price"`
	Discount    string `json:"discount"`
	Temperature string `json:"temperature"`
	Comments    string `json:"comments"`
	Published   string `json:"published"`
	Image       string `json:"image"`
}

// LoadSelectors loads the selector configuration from the specified JSON file.
func LoadSelectors(path string) (SelectorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SelectorConfig{}, fmt.Errorf("failed to read selector config file: %w", err)
	}

	return LoadSelectorsFromBytes(data)
}

// LoadSelectorsFromBytes parses selector configuration from raw JSON bytes.
// This supports loading from embedded data via go:embed.
func LoadSelectorsFromBytes(data []byte) (SelectorConfig, error) {
	var config SelectorConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return SelectorConfig{}, fmt.Errorf("failed to parse selector config JSON: %w", err)
	}

	return config, nil
}

// DefaultSelectors returns the fallback configuration if no JSON file is
// loaded. The embedded selectors.json should be preferred; this is the last
// resort when both the embedded and external configs fail.
func DefaultSelectors() SelectorConfig {
	return SelectorConfig{
		DealList: ListSelectors{
			Container: ListContainer{
				Item:           "article.thread",
				IgnoreModifier: ".thread--expired",
			},
			Elements: ListElements{
				TitleLink:   ".thread-title a",
				Price:       ".thread-price",
				Discount:    ".thread-discount",
				Temperature: ".vote-temp",
				Comments:    ".cept-comment-link",
				Published:   "time",
				Image:       ".thread-image img",
			},
		},
	}
}
