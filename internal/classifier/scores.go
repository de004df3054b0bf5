package classifier

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"highlighter/internal/highlights"
)

// ScoresFileName is the single-file classifier output.
const ScoresFileName = "scores_data.json"

var chunkPattern = regexp.MustCompile(`^scores_data_(\d+)\.json$`)

// ErrNoScores is returned when a directory holds no classifier output.
var ErrNoScores = errors.New("no classifier output")

// Orientation names the axis order of ScoresFile.Scores.
type Orientation string

const (
	// ClassMajor is scores[classIndex][frameIndex].
	ClassMajor Orientation = "class_major"
	// FrameMajor is scores[frameIndex][classIndex], the raw model output shape.
	FrameMajor Orientation = "frame_major"
)

// ScoresFile is the JSON document written by the classifier.
type ScoresFile struct {
	ClassNames  []string    `json:"classNames"`
	Scores      [][]float64 `json:"scores"`
	Orientation Orientation `json:"orientation,omitempty"`
}

// DetectOrientation returns the explicit orientation when set. Otherwise the
// grid is class-major when it has one row per class and frame-major when
// every row has one entry per class. A square grid is read as class-major.
func (f ScoresFile) DetectOrientation() (Orientation, error) {
	switch f.Orientation {
	case ClassMajor, FrameMajor:
		return f.Orientation, nil
	case "":
	default:
		return "", fmt.Errorf("%w: unknown orientation %q", highlights.ErrInvalidMatrix, f.Orientation)
	}

	classes := len(f.ClassNames)
	if len(f.Scores) == classes {
		return ClassMajor, nil
	}
	for _, row := range f.Scores {
		if len(row) != classes {
			return "", fmt.Errorf("%w: %d rows for %d classes fits neither orientation", highlights.ErrInvalidMatrix, len(f.Scores), classes)
		}
	}
	return FrameMajor, nil
}

// Matrix converts the file into a validated matrix.
func (f ScoresFile) Matrix() (*highlights.Matrix, error) {
	orientation, err := f.DetectOrientation()
	if err != nil {
		return nil, err
	}
	if orientation == FrameMajor {
		return highlights.NewMatrixFromFrameMajor(f.ClassNames, f.Scores)
	}
	return highlights.NewMatrix(f.ClassNames, f.Scores)
}

// ReadFile decodes one classifier output file.
func ReadFile(path string) (ScoresFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ScoresFile{}, err
	}
	var file ScoresFile
	if err := json.Unmarshal(data, &file); err != nil {
		return ScoresFile{}, fmt.Errorf("%w: decode %s: %v", highlights.ErrInvalidMatrix, filepath.Base(path), err)
	}
	return file, nil
}

// IsScoresFile reports whether name is a classifier output file name.
func IsScoresFile(name string) bool {
	return name == ScoresFileName || chunkPattern.MatchString(name)
}

// Files lists the classifier outputs in dir: scores_data.json when present,
// otherwise the scores_data_N.json chunks ordered by chunk number. Padding is
// optional, so scores_data_2.json comes before scores_data_10.json.
func Files(dir string) ([]string, error) {
	single := filepath.Join(dir, ScoresFileName)
	if _, err := os.Stat(single); err == nil {
		return []string{single}, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	type chunk struct {
		index int
		path  string
	}
	var chunks []chunk
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := chunkPattern.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		index, err := strconv.Atoi(match[1])
		if err != nil {
			return nil, fmt.Errorf("%w: chunk number in %s: %v", highlights.ErrInvalidMatrix, entry.Name(), err)
		}
		chunks = append(chunks, chunk{index: index, path: filepath.Join(dir, entry.Name())})
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoScores, dir)
	}
	slices.SortFunc(chunks, func(a, b chunk) int {
		return cmp.Or(cmp.Compare(a.index, b.index), strings.Compare(a.path, b.path))
	})
	for i := 1; i < len(chunks); i++ {
		if chunks[i].index == chunks[i-1].index {
			return nil, fmt.Errorf("%w: %s and %s share chunk number %d", highlights.ErrInvalidMatrix,
				filepath.Base(chunks[i-1].path), filepath.Base(chunks[i].path), chunks[i].index)
		}
	}
	paths := make([]string, len(chunks))
	for i, c := range chunks {
		paths[i] = c.path
	}
	return paths, nil
}

// LoadDir reads every classifier output in dir and joins chunks along the
// frame axis. All chunks must list the same classes in the same order.
func LoadDir(dir string) (*highlights.Matrix, error) {
	paths, err := Files(dir)
	if err != nil {
		return nil, err
	}

	var (
		classNames []string
		rows       [][]float64
	)
	for i, path := range paths {
		file, err := ReadFile(path)
		if err != nil {
			return nil, err
		}
		m, err := file.Matrix()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		if i == 0 {
			classNames = m.ClassNames()
			rows = make([][]float64, len(classNames))
		} else if !slices.Equal(classNames, m.ClassNames()) {
			return nil, fmt.Errorf("%w: %s lists different classes than %s", highlights.ErrInvalidMatrix, filepath.Base(path), filepath.Base(paths[0]))
		}
		for c := range rows {
			row, err := m.Row(c)
			if err != nil {
				return nil, err
			}
			rows[c] = append(rows[c], row...)
		}
	}
	return highlights.NewMatrix(classNames, rows)
}
