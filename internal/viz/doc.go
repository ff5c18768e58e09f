// Package viz renders motion profiles and simulated runs in the terminal.
//
// Static charts use asciigraph:
//
//   - [ProfilePlot]: position and velocity of a generated profile
//   - [RunPlot]: one recorded series of a stored run
//
// [Model] is a Bubble Tea program that steps a simulated routine live, with
// a top-down trace of the robot's path drawn on a braille [Canvas].
//
// # Key Bindings
//
//	Space - Pause/Resume
//	S     - Single tick while paused
//	+/-   - Ticks per frame
//	T     - Cycle color themes
//	Q     - Quit
package viz
