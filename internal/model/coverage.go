// Package model holds the coverage data shapes shared by the parser, the
// analyzer and the format handlers.
package model

// Shape identifies which of the known coverage payload layouts a JSON document uses.
type Shape int

const (
	// ShapeUnknown is returned for payloads that match neither known layout.
	ShapeUnknown Shape = iota
	// ShapePerTestRun is the array layout produced by test runs
	// (one entry per class with an explicit `lines` map).
	ShapePerTestRun
	// ShapePerDeploy is the object layout produced by deploy instrumentation
	// (Istanbul-style statementMap / s maps keyed by class identifier).
	ShapePerDeploy
)

func (s Shape) String() string {
	switch s {
	case ShapePerTestRun:
		return "per-test-run"
	case ShapePerDeploy:
		return "per-deploy-instrumentation"
	default:
		return "unknown"
	}
}

// TestRunRecord is one entry of a per-test-run payload.
type TestRunRecord struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	TotalLines     int            `json:"totalLines"`
	Lines          map[string]int `json:"lines"`
	TotalCovered   int            `json:"totalCovered"`
	CoveredPercent float64        `json:"coveredPercent"`
}

// Position is a line/column pair inside a statement range.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// StatementRange is the location of one instrumented statement.
type StatementRange struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// DeployRecord is one value of a per-deploy-instrumentation payload. Only S is
// consumed downstream; the remaining maps are kept so the record round-trips.
type DeployRecord struct {
	Path         string                    `json:"path"`
	FnMap        map[string]any            `json:"fnMap"`
	BranchMap    map[string]any            `json:"branchMap"`
	F            map[string]any            `json:"f"`
	B            map[string]any            `json:"b"`
	S            map[string]int            `json:"s"`
	StatementMap map[string]StatementRange `json:"statementMap"`
}

// RejectedRecord is a payload entry that could not be decoded into its typed
// record. Name is the test-run class name or the deploy key.
type RejectedRecord struct {
	Name string
	Err  error
}

// Payload is a decoded coverage document. Exactly one of TestRuns or Deploy is
// populated, depending on Shape. Rejected lists the entries of that layout
// that failed to decode, in payload order (deploy keys sorted).
type Payload struct {
	Shape    Shape
	TestRuns []TestRunRecord
	Deploy   map[string]DeployRecord
	Rejected []RejectedRecord
}

// ResolvedFile is a coverage record after its class name has been mapped to a
// path on disk.
type ResolvedFile struct {
	// RelativePath is relative to the repository root and always uses '/'.
	RelativePath string
	// DisplayName is the class or trigger identifier from the payload.
	DisplayName string
	// Lines maps 1-based line numbers to hit counts.
	Lines map[int]int
}
