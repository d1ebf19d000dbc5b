package config

// Duplicate session policies applied when a userId authenticates twice.
const (
	DuplicateReplace       = "replace"
	DuplicateClosePrevious = "close_previous"
)

// SessionConfig controls what happens around authentication.
type SessionConfig struct {
	DuplicatePolicy string `mapstructure:"DUPLICATE_POLICY" json:"duplicate_policy" validate:"required,oneof=replace close_previous"`
	WelcomeMessage  string `mapstructure:"WELCOME_MESSAGE"  json:"welcome_message"  validate:"required,max=256"`
}
