package service

// Pipeline stages in execution order.
const (
	StageValidate   = "validate"
	StageModel      = "model"
	StageFetch      = "fetch"
	StageCaption    = "caption"
	StageAnalysis   = "analysis"
	StageSynthesize = "synthesize"
)

const (
	statusOK    = "ok"
	statusError = "error"
)

const modelUnavailableDetail = "Image captioning model not loaded. Please ensure the captioning backend is reachable and correctly configured."
