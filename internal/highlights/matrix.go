package highlights

import (
	"fmt"
	"strings"
)

// Matrix is a read-only view over classifier output.
//
// Scores are stored class-major: scores[classIndex][frameIndex]. Every row
// holds exactly FrameCount entries. Values are trusted as-is; they are
// conventionally probabilities in [0, 1] but nothing enforces that.
type Matrix struct {
	classNames []string
	classIndex map[string]int
	scores     [][]float64
	frames     int
}

// NewMatrix builds a Matrix from class-major scores (scores[classIndex][frameIndex]).
// The input slices are copied.
func NewMatrix(classNames []string, scores [][]float64) (*Matrix, error) {
	if len(scores) != len(classNames) {
		return nil, fmt.Errorf("%w: %d class names but %d score rows", ErrInvalidMatrix, len(classNames), len(scores))
	}
	index, err := buildClassIndex(classNames)
	if err != nil {
		return nil, err
	}

	frames := 0
	if len(scores) > 0 {
		frames = len(scores[0])
	}
	rows := make([][]float64, len(scores))
	for i, row := range scores {
		if len(row) != frames {
			return nil, fmt.Errorf("%w: class %q has %d frames, expected %d", ErrInvalidMatrix, classNames[i], len(row), frames)
		}
		rows[i] = append([]float64(nil), row...)
	}

	return &Matrix{
		classNames: append([]string(nil), classNames...),
		classIndex: index,
		scores:     rows,
		frames:     frames,
	}, nil
}

// NewMatrixFromFrameMajor builds a Matrix from frame-major scores
// (frames[frameIndex][classIndex]) and transposes them to class-major order.
func NewMatrixFromFrameMajor(classNames []string, frames [][]float64) (*Matrix, error) {
	rows := make([][]float64, len(classNames))
	for c := range rows {
		rows[c] = make([]float64, len(frames))
	}
	for f, frame := range frames {
		if len(frame) != len(classNames) {
			return nil, fmt.Errorf("%w: frame %d has %d scores, expected %d", ErrInvalidMatrix, f, len(frame), len(classNames))
		}
		for c, value := range frame {
			rows[c][f] = value
		}
	}
	return NewMatrix(classNames, rows)
}

func buildClassIndex(classNames []string) (map[string]int, error) {
	index := make(map[string]int, len(classNames))
	for i, name := range classNames {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: class %d has an empty name", ErrInvalidMatrix, i)
		}
		if prev, exists := index[name]; exists {
			return nil, fmt.Errorf("%w: class %q listed at %d and %d", ErrInvalidMatrix, name, prev, i)
		}
		index[name] = i
	}
	return index, nil
}

// ClassCount returns the number of classes (C).
func (m *Matrix) ClassCount() int {
	return len(m.classNames)
}

// FrameCount returns the number of frames (T). A matrix without classes has zero frames.
func (m *Matrix) FrameCount() int {
	return m.frames
}

// ClassNames returns a copy of the ordered class names.
func (m *Matrix) ClassNames() []string {
	return append([]string(nil), m.classNames...)
}

// ClassIndex returns the row index for a class name.
func (m *Matrix) ClassIndex(name string) (int, bool) {
	idx, ok := m.classIndex[name]
	return idx, ok
}

// ScoreAt returns a single cell, failing with ErrIndexOutOfRange outside the grid.
func (m *Matrix) ScoreAt(classIndex, frameIndex int) (float64, error) {
	if classIndex < 0 || classIndex >= len(m.scores) {
		return 0, fmt.Errorf("%w: class index %d (classes=%d)", ErrIndexOutOfRange, classIndex, len(m.scores))
	}
	if frameIndex < 0 || frameIndex >= m.frames {
		return 0, fmt.Errorf("%w: frame index %d (frames=%d)", ErrIndexOutOfRange, frameIndex, m.frames)
	}
	return m.scores[classIndex][frameIndex], nil
}

// Row returns a copy of the scores for one class.
func (m *Matrix) Row(classIndex int) ([]float64, error) {
	if classIndex < 0 || classIndex >= len(m.scores) {
		return nil, fmt.Errorf("%w: class index %d (classes=%d)", ErrIndexOutOfRange, classIndex, len(m.scores))
	}
	return append([]float64(nil), m.scores[classIndex]...), nil
}

// Filter returns a Matrix restricted to the named classes that exist, kept in
// this matrix's class order. Unknown names are ignored.
func (m *Matrix) Filter(classNames []string) *Matrix {
	wanted := make(map[string]struct{}, len(classNames))
	for _, name := range classNames {
		wanted[name] = struct{}{}
	}
	out := &Matrix{classIndex: make(map[string]int)}
	for i, name := range m.classNames {
		if _, ok := wanted[name]; !ok {
			continue
		}
		out.classIndex[name] = len(out.classNames)
		out.classNames = append(out.classNames, name)
		out.scores = append(out.scores, m.scores[i])
	}
	if len(out.classNames) > 0 {
		out.frames = m.frames
	}
	return out
}

// Slice returns the sub-matrix covering [start, start+length). Rows share
// storage with the receiver, which is safe because neither is ever mutated.
func (m *Matrix) Slice(start, length int) (*Matrix, error) {
	if err := m.checkRange(start, length); err != nil {
		return nil, err
	}
	out := &Matrix{
		classNames: m.classNames,
		classIndex: m.classIndex,
		scores:     make([][]float64, len(m.scores)),
		frames:     length,
	}
	for i, row := range m.scores {
		out.scores[i] = row[start : start+length : start+length]
	}
	return out, nil
}

func (m *Matrix) checkRange(start, length int) error {
	if start < 0 || length < 1 || start+length > m.frames {
		return fmt.Errorf("%w: start=%d length=%d frames=%d", ErrInvalidRange, start, length, m.frames)
	}
	return nil
}
