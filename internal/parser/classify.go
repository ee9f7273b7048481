package parser

import (
	"encoding/json"

	"github.com/IgorBayerl/sfcov/internal/model"
)

// Classify inspects a generic JSON value (as produced by json.Unmarshal into
// an `any`) and reports which coverage layout it uses. It never panics; any
// value that does not fully match a known layout is model.ShapeUnknown.
//
// The deploy layout is checked first. An empty object therefore classifies as
// a (vacuous) deploy payload and an empty array as a test-run payload.
func Classify(data any) model.Shape {
	if isDeployPayload(data) {
		return model.ShapePerDeploy
	}
	if isTestRunPayload(data) {
		return model.ShapePerTestRun
	}
	return model.ShapeUnknown
}

func isDeployPayload(data any) bool {
	obj, ok := data.(map[string]any)
	if !ok {
		return false
	}
	for _, v := range obj {
		if !isDeployRecord(v) {
			return false
		}
	}
	return true
}

func isDeployRecord(v any) bool {
	rec, ok := v.(map[string]any)
	if !ok {
		return false
	}
	if _, ok := rec["path"].(string); !ok {
		return false
	}
	for _, key := range []string{"fnMap", "branchMap", "f", "b", "s"} {
		if _, ok := rec[key].(map[string]any); !ok {
			return false
		}
	}
	stmts, ok := rec["statementMap"].(map[string]any)
	if !ok {
		return false
	}
	for _, s := range stmts {
		if !isStatementRange(s) {
			return false
		}
	}
	return true
}

func isStatementRange(v any) bool {
	r, ok := v.(map[string]any)
	if !ok {
		return false
	}
	return isPosition(r["start"]) && isPosition(r["end"])
}

func isPosition(v any) bool {
	p, ok := v.(map[string]any)
	if !ok {
		return false
	}
	return isNumber(p["line"]) && isNumber(p["column"])
}

func isTestRunPayload(data any) bool {
	arr, ok := data.([]any)
	if !ok {
		return false
	}
	for _, el := range arr {
		if !isTestRunRecord(el) {
			return false
		}
	}
	return true
}

func isTestRunRecord(v any) bool {
	rec, ok := v.(map[string]any)
	if !ok {
		return false
	}
	for _, key := range []string{"id", "name"} {
		if _, ok := rec[key].(string); !ok {
			return false
		}
	}
	for _, key := range []string{"totalLines", "totalCovered", "coveredPercent"} {
		if !isNumber(rec[key]) {
			return false
		}
	}
	lines, ok := rec["lines"].(map[string]any)
	if !ok {
		return false
	}
	for _, hits := range lines {
		if !isNumber(hits) {
			return false
		}
	}
	return true
}

func isNumber(v any) bool {
	switch v.(type) {
	case float64, json.Number:
		return true
	default:
		return false
	}
}
