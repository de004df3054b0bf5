package workflow

import "highlighter/internal/queue"

// ConfigureStages registers the stage handlers the manager will run.
func (m *Manager) ConfigureStages(set StageSet) {
	candidates := []pipelineStage{
		{StageIngest, set.Ingest, queue.StatusPending, queue.StatusIngesting, queue.StatusIngested},
		{StageProbe, set.Probe, queue.StatusIngested, queue.StatusProbing, queue.StatusProbed},
		{StageExtract, set.Extract, queue.StatusProbed, queue.StatusExtracting, queue.StatusExtracted},
		{StageClassify, set.Classify, queue.StatusExtracted, queue.StatusClassifying, queue.StatusClassified},
		{StageHighlight, set.Highlight, queue.StatusClassified, queue.StatusHighlighting, queue.StatusCompleted},
	}

	stages := make([]pipelineStage, 0, len(candidates))
	byStart := make(map[queue.Status]pipelineStage, len(candidates))
	order := make([]queue.Status, 0, len(candidates))
	for _, stg := range candidates {
		if stg.handler == nil {
			continue
		}
		stages = append(stages, stg)
		byStart[stg.startStatus] = stg
		order = append(order, stg.startStatus)
	}

	m.mu.Lock()
	m.stages = stages
	m.byStart = byStart
	m.statusOrder = order
	m.mu.Unlock()
}

func (m *Manager) stageForStatus(status queue.Status) (pipelineStage, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stg, ok := m.byStart[status]
	return stg, ok
}

func stageLabel(name string) string {
	switch name {
	case StageIngest:
		return "Ingesting"
	case StageProbe:
		return "Probing"
	case StageExtract:
		return "Extracting audio"
	case StageClassify:
		return "Classifying audio"
	case StageHighlight:
		return "Building highlights"
	default:
		return name
	}
}
