package skillratings

import "time"

type Config struct {
	Timeout time.Duration
	// SamplePerQuiz caps how many attempts per quiz feed the prompt.
	SamplePerQuiz int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       60 * time.Second,
		SamplePerQuiz: 10,
	}
}
