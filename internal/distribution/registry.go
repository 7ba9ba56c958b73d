package distribution

import (
	"fmt"

	"BlogPublisher/internal/ports"
)

// Registry keeps a mapping from channel names to their implementations.
type Registry struct {
	channels map[string]ports.Announcer
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{channels: map[string]ports.Announcer{}}
}

// Register adds or replaces a channel implementation.
func (r *Registry) Register(channel ports.Announcer) {
	if r.channels == nil {
		r.channels = map[string]ports.Announcer{}
	}
	r.channels[channel.Name()] = channel
}

// Resolve returns a channel by name or an error if it is absent.
func (r *Registry) Resolve(name string) (ports.Announcer, error) {
	if channel, ok := r.channels[name]; ok {
		return channel, nil
	}
	return nil, fmt.Errorf("channel %s is not registered", name)
}

// Select resolves names in order, returning the channels found and the names
// that were not registered.
func (r *Registry) Select(names []string) ([]ports.Announcer, []string) {
	var (
		found   []ports.Announcer
		missing []string
	)
	for _, name := range names {
		channel, err := r.Resolve(name)
		if err != nil {
			missing = append(missing, name)
			continue
		}
		found = append(found, channel)
	}
	return found, missing
}
