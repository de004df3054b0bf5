package highlights

// SegmentKind distinguishes the two highlight algorithms.
type SegmentKind string

const (
	// KindCategory marks windows chosen by per-category average scoring.
	KindCategory SegmentKind = "category"
	// KindPeak marks windows anchored on a global per-frame maximum.
	KindPeak SegmentKind = "peak"
)

// Segment is the view shared by both highlight shapes. The shapes stay
// distinct because their scores mean different things.
type Segment interface {
	FrameRange() (start, length int)
	Strength() float64
	Kind() SegmentKind
}

var (
	_ Segment = SegmentSummary{}
	_ Segment = AudioSegment{}
)

func (s SegmentSummary) FrameRange() (int, int) { return s.StartInd, s.Length }
func (s SegmentSummary) Strength() float64      { return s.Score }
func (s SegmentSummary) Kind() SegmentKind      { return KindCategory }

func (s AudioSegment) FrameRange() (int, int) { return s.StartAudioFrameInd, s.DurationInAudioFrames }
func (s AudioSegment) Strength() float64      { return s.PeakScore }
func (s AudioSegment) Kind() SegmentKind      { return KindPeak }
