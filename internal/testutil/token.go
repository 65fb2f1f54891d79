package testutil

// FixedRunToken generates the same run token every time.
//
// A scenario replayed with the same FixedRunToken produces byte-identical
// journals, which is what golden transcripts compare against.
//
// Thread-safety: FixedRunToken is stateless and safe for concurrent use.
type FixedRunToken struct {
	token string
}

// NewFixedRunToken creates a fixed run token generator.
// If token is empty, Generate returns "test-run-default".
func NewFixedRunToken(token string) *FixedRunToken {
	if token == "" {
		token = "test-run-default"
	}
	return &FixedRunToken{token: token}
}

// Generate implements engine.TokenGenerator.
func (g *FixedRunToken) Generate() string {
	return g.token
}
