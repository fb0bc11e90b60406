// Package engine runs a gravitational N-body simulation as a set of
// concurrent body actors driven by a tick orchestrator.
//
// Every body is owned by one goroutine with its own mailbox; no body state
// is shared. Forces are computed through a two-message protocol: the
// orchestrator asks a source body to disclose itself to a receiver
// ([body.KindRequestState]) and the source replies with a snapshot
// ([body.KindComputeForce]) that the receiver folds into its accumulators.
//
// A tick runs in two phases separated by a counting barrier:
//
//  1. force accumulation: N·(N−1) request/contribution exchanges, each
//     acknowledged by the receiver once applied
//  2. integration: every body integrates, publishes its new position and
//     acknowledges
//
// Integration only starts once exactly N·(N−1) acknowledgements for the
// current tick have arrived. A barrier that does not complete within the
// configured timeout fails the tick with [ErrBarrierTimeout] and the engine
// refuses to continue.
//
// # Example
//
//	eng, err := engine.New(bodies, hub, engine.WithDt(60000))
//	if err != nil {
//	    return err
//	}
//	defer eng.Stop()
//	err = eng.Run(ctx, 0)
//
// # Cancellation
//
// Run and Step only observe their context between ticks. A tick that has
// started always runs to completion or to a barrier failure, so
// accumulators are never left half applied.
package engine
