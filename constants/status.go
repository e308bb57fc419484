package constants

// Status is the per-file outcome of a classification run.
type Status string

const (
	StatusOK              Status = "OK"
	StatusUnsupported     Status = "UNSUPPORTED"      // rejected by the type resolver
	StatusRasterizeFailed Status = "RASTERIZE_FAILED" // PDF could not be rendered
	StatusClassifyFailed  Status = "CLASSIFY_FAILED"  // classification endpoint error
	StatusFailed          Status = "FAILED"           // read or other local failure
)
