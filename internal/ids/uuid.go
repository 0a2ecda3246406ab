package ids

import (
	"sync"

	"github.com/google/uuid"
)

// Provider issues unique identifiers for persisted records.
type Provider interface {
	NewID() (string, error)
}

type uuidProvider struct{}

// NewUUIDProvider constructs a Provider that issues UUIDv7 identifiers.
func NewUUIDProvider() Provider {
	return &uuidProvider{}
}

func (p *uuidProvider) NewID() (string, error) {
	value, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return value.String(), nil
}

// SequenceProvider returns identifiers from a fixed list, then falls back to UUIDs.
// Tests use it to get predictable record ids.
type SequenceProvider struct {
	mu     sync.Mutex
	values []string
	next   int
}

// NewSequenceProvider constructs a SequenceProvider over values.
func NewSequenceProvider(values ...string) *SequenceProvider {
	return &SequenceProvider{values: append([]string(nil), values...)}
}

func (p *SequenceProvider) NewID() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.next < len(p.values) {
		value := p.values[p.next]
		p.next++
		return value, nil
	}
	return NewUUIDProvider().NewID()
}
