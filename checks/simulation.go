package checks

import "context"

// SimulationSucceeded surfaces a reverted simulation as an error finding so
// the chain status reflects it even when every other check passes.
type SimulationSucceeded struct{}

func (SimulationSucceeded) ID() string         { return "simulation-succeeded" }
func (SimulationSucceeded) Name() string       { return "Simulation succeeded" }
func (SimulationSucceeded) Requires() []string { return nil }

func (SimulationSucceeded) Run(_ context.Context, cc *CheckContext) (Result, error) {
	var res Result

	switch {
	case cc.Sim == nil:
		res.Errorf("No simulation result available")
	case !cc.Sim.OK:
		res.Errorf("Proposal simulation reverted")
	default:
		res.Infof("Simulation succeeded")
	}

	return res, nil
}
