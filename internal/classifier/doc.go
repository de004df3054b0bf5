// Package classifier runs the external sound-event classifier and loads the
// per-frame class scores it writes into a highlights.Matrix.
//
// The classifier writes scores_data.json into the video directory, or a
// series of scores_data_NNN.json chunks for long recordings. Each file holds
// the class names and a score grid in either class-major or frame-major
// orientation.
package classifier
