package testutil

// FixedCallIDGenerator returns the same call id every time.
//
// Scenario traces embed call ids, so a fixed id keeps golden files
// byte-identical between runs.
//
// Thread-safety: FixedCallIDGenerator is stateless and safe for concurrent use.
type FixedCallIDGenerator struct {
	id string
}

// NewFixedCallIDGenerator creates a fixed call id generator.
// If id is empty, Generate() returns "test-call-default".
func NewFixedCallIDGenerator(id string) *FixedCallIDGenerator {
	if id == "" {
		id = "test-call-default"
	}
	return &FixedCallIDGenerator{id: id}
}

// Generate implements host.CallIDGenerator.
func (g *FixedCallIDGenerator) Generate() string {
	return g.id
}
