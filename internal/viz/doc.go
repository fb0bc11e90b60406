// Package viz draws a running simulation in the terminal.
//
// [Model] is a Bubble Tea program fed by a channel of position events,
// typically a publish.Hub subscription or a websocket client. Bodies are
// plotted on a braille [Canvas] scaled to the current extent of the
// system.
//
// # Key Bindings
//
//	Space - Freeze/unfreeze the display
//	+/-   - Zoom in/out
//	0     - Reset zoom
//	L     - Toggle body labels
//	T     - Cycle color themes
//	Q     - Quit
//
// Events keep being consumed while the display is frozen, so a slow
// terminal never holds up the simulation.
package viz
