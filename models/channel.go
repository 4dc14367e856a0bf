package models

// Channel is one fixed posting board. The set of channels is defined at
// startup and never stored in the database; posts reference a channel by
// its code.
type Channel struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// ChannelSet is the immutable collection of channels a deployment accepts.
// It is constructed once in main and passed by reference into every
// component that validates or renders channels, so there is no mutable
// global to drift at runtime.
type ChannelSet struct {
	ordered []Channel
	names   map[string]string
}

// NewChannelSet builds a set from an ordered channel list. Order is
// preserved for listings.
func NewChannelSet(channels []Channel) *ChannelSet {
	s := &ChannelSet{
		ordered: make([]Channel, len(channels)),
		names:   make(map[string]string, len(channels)),
	}
	copy(s.ordered, channels)
	for _, c := range channels {
		s.names[c.Code] = c.Name
	}
	return s
}

// DefaultChannels returns the stock board layout.
func DefaultChannels() *ChannelSet {
	return NewChannelSet([]Channel{
		{Code: "general", Name: "一般"},
		{Code: "job", Name: "就活"},
		{Code: "class", Name: "授業"},
		{Code: "circle", Name: "サークル"},
	})
}

// Valid reports whether code names a channel in this set.
func (s *ChannelSet) Valid(code string) bool {
	_, ok := s.names[code]
	return ok
}

// DisplayName resolves a channel code to its display name. Unknown codes
// fall back to the raw code so historical rows still render.
func (s *ChannelSet) DisplayName(code string) string {
	if name, ok := s.names[code]; ok {
		return name
	}
	return code
}

// All returns the channels in listing order. The slice is a copy; callers
// cannot mutate the set through it.
func (s *ChannelSet) All() []Channel {
	out := make([]Channel, len(s.ordered))
	copy(out, s.ordered)
	return out
}
