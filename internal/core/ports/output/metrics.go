package ports

// MetricsRecorder receives prediction telemetry.
type MetricsRecorder interface {
	RecordPrediction(riskLevel, source string)
	RecordPredictionError(stage string)
	RecordBatchSize(n int)
	SetModelLoaded(loaded bool)
}
