package registry

// Usage restricts where a backend may be opened.
//
// Backends are linked at build time: a backend registers itself via init(),
// and is enabled in a binary by importing the backend package (often as a blank import).
type Usage uint8

const (
	// UsageNetwork indicates the backend can hold a node's content inside a network.
	UsageNetwork Usage = 1 << iota
	// UsageDaemon indicates the backend can be served by the node daemon (cidnet serve).
	UsageDaemon
)

func (u Usage) allows(want Usage) bool { return u&want != 0 }
