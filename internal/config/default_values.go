package config

const (
	DefaultShellTimeoutMS   = 120000
	MaxShellTimeoutMS       = 600000
	DefaultOutputLimitChars = 30000

	DefaultReadLimit        = 2000
	DefaultReadMaxLineChars = 2000

	DefaultSearchMaxMatches = 200
)
