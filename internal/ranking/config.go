package ranking

// Config holds the weights and per-match scores used by the Ranker.
type Config struct {
	FilenameWeight float64 `yaml:"filename_weight"`
	PathWeight     float64 `yaml:"path_weight"`

	ExactFilenameScore      float64 `yaml:"exact_filename_score"`
	AllWordsInOrderScore    float64 `yaml:"all_words_in_order_score"`
	AllWordsAnyOrderScore   float64 `yaml:"all_words_any_order_score"`
	SubstringMatchScore     float64 `yaml:"substring_match_score"`
	PrefixMatchScore        float64 `yaml:"prefix_match_score"`
	MultipleOccurrenceBonus float64 `yaml:"multiple_occurrence_bonus"`
	ExtensionMatchScore     float64 `yaml:"extension_match_score"`

	PathExactMatchScore   float64 `yaml:"path_exact_match_score"`
	PathPartialMatchScore float64 `yaml:"path_partial_match_score"`
	PathComponentBonus    float64 `yaml:"path_component_bonus"`
}

// DefaultConfig returns the default ranking configuration.
func DefaultConfig() *Config {
	return &Config{
		FilenameWeight: 1.5,
		PathWeight:     0.3,

		ExactFilenameScore:      100,
		AllWordsInOrderScore:    90,
		AllWordsAnyOrderScore:   80,
		SubstringMatchScore:     60,
		PrefixMatchScore:        45,
		MultipleOccurrenceBonus: 10,
		ExtensionMatchScore:     60,

		PathExactMatchScore:   40,
		PathPartialMatchScore: 30,
		PathComponentBonus:    10,
	}
}
