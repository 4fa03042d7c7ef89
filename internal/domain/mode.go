package domain

// Mode tells whether execution is simulated or real.
type Mode string

const (
	ModePaper Mode = "paper"
	ModeLive  Mode = "live"
)

// ModeChange is the payload published on the mode topic.
type ModeChange struct {
	Mode Mode `json:"mode"`
}
