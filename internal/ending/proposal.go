package ending

import "fmt"

// Proposal is a pending request to end the debate. It is created when a
// detection fires with a zero transition (legacy immediate confirmation)
// or when a grace period elapses, and discarded once the turn resolves.
type Proposal struct {
	// AgentName is the agent whose response triggered the detection.
	AgentName string
	// RawResponse is the full response text, marker included.
	RawResponse string
	// CleanedResponse is the response with the marker stripped, as
	// stored in history and shown to the operator.
	CleanedResponse string
	// Confirmed is set when the ending is accepted (automatically in
	// batch mode, by the operator in interactive mode).
	Confirmed bool
}

// NewProposal builds a Proposal from a raw response, cleaning it with
// the given detector.
func NewProposal(d *Detector, agentName, raw string) *Proposal {
	return &Proposal{
		AgentName:       agentName,
		RawResponse:     raw,
		CleanedResponse: d.Clean(raw),
	}
}

// Confirm accepts the proposal.
func (p *Proposal) Confirm() {
	p.Confirmed = true
}

// String renders the proposal for display.
func (p *Proposal) String() string {
	status := "pending"
	if p.Confirmed {
		status = "confirmed"
	}
	return fmt.Sprintf("[%s] proposed ending the debate (%s)\n%s", p.AgentName, status, p.CleanedResponse)
}
