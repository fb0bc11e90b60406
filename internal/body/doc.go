// Package body implements the per-body actor state machine.
//
// A [State] is one simulated point mass. [Handle] is the actor's behavior:
// a pure function from (state, message) to a new state plus an [Effect]
// describing the work the runtime must perform on the actor's behalf:
//
//   - [KindResetForce]: zero the force accumulators
//   - [KindRequestState]: disclose a snapshot to the requesting body
//   - [KindComputeForce]: accumulate the pull of another body
//   - [KindComputePosition]: integrate one tick and report the move
//
// # Example
//
//	earth, _ := body.New("earth", mgl64.Vec2{1.496e11, 0}, mgl64.Vec2{0, 29783}, 5.972e24)
//	sun, _ := body.New("sun", mgl64.Vec2{}, mgl64.Vec2{}, 1.989e30)
//	earth, _ = body.Handle(earth, body.ComputeForce(sun, 0))
//	earth, eff := body.Handle(earth, body.ComputePosition(60000, 0))
//	fmt.Println(eff.Moved.Position)
//
// # Values, not pointers
//
// State holds only value fields, so assignment is a deep copy. Handle never
// mutates its input; a snapshot handed to another actor stays valid no
// matter what its owner does next.
package body
