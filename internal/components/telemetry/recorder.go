package telemetry

import "sync"

// Report is a single call recorded by RecorderAPI.
type Report struct {
	Kind   string
	ID     string
	Params []any
}

const (
	KindBroken  = "broken"
	KindWarning = "warning"
	KindDebug   = "debug"
	KindCount   = "count"
)

// RecorderAPI keeps every report in memory so tests can assert on them.
type RecorderAPI struct {
	mutex   sync.Mutex
	reports []Report
}

func (r *RecorderAPI) record(kind, id string, params []any) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.reports = append(r.reports, Report{Kind: kind, ID: id, Params: params})
}

func (r *RecorderAPI) ReportBroken(id string, params ...any) {
	r.record(KindBroken, id, params)
}

func (r *RecorderAPI) ReportWarning(id string, params ...any) {
	r.record(KindWarning, id, params)
}

func (r *RecorderAPI) ReportDebug(msg string, params ...any) {
	r.record(KindDebug, msg, params)
}

func (r *RecorderAPI) ReportCount(id string, count int64) {
	r.record(KindCount, id, []any{count})
}

// Reports returns a copy of the reports of the given kind, or all of them if kind is empty.
func (r *RecorderAPI) Reports(kind string) []Report {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var out []Report
	for _, rep := range r.reports {
		if kind == "" || rep.Kind == kind {
			out = append(out, rep)
		}
	}
	return out
}
