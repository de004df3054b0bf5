package workflow

import (
	"highlighter/internal/queue"
	"highlighter/internal/stage"
)

// Stage names used in logs, progress labels, and health output.
const (
	StageIngest    = "ingest"
	StageProbe     = "probe"
	StageExtract   = "extract"
	StageClassify  = "classify"
	StageHighlight = "highlight"
)

// StageSet bundles the concrete handlers the manager orchestrates. Nil
// handlers leave their start status unprocessed.
type StageSet struct {
	Ingest    stage.Handler
	Probe     stage.Handler
	Extract   stage.Handler
	Classify  stage.Handler
	Highlight stage.Handler
}

type pipelineStage struct {
	name             string
	handler          stage.Handler
	startStatus      queue.Status
	processingStatus queue.Status
	doneStatus       queue.Status
}
