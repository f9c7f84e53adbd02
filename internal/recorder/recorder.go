package recorder

// StatusRecord holds one fetched account snapshot for history.
type StatusRecord struct {
	Username        string
	Classname       string
	Ratio           float64
	UploadedBytes   int64
	DownloadedBytes int64
	Seedbonus       int64
	Wedges          int
	DonatedToday    bool
}

// ActionEvent records one automation attempt.
type ActionEvent struct {
	Action  string
	Outcome string // "success", "rejected", "auth", "error"
	Detail  string
}

// CycleRun records one completed daily cycle.
type CycleRun struct {
	CycleDate string
	Executed  int
	Skipped   int
	Failed    int
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordStatus(rec *StatusRecord) error
	RecordAction(evt *ActionEvent) error
	RecordCycle(run *CycleRun) error
	Close() error
}
