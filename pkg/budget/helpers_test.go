package budget

import "github.com/waftester/nucleibudget/pkg/nuclei"

func tmpl(id, severity string, reqs ...nuclei.RequestSpec) *nuclei.Template {
	return &nuclei.Template{
		ID:       id,
		Info:     nuclei.Info{Name: id, Severity: severity},
		Requests: reqs,
		Path:     "/templates/" + id + ".yaml",
	}
}

func get(paths ...string) nuclei.RequestSpec {
	return nuclei.RequestSpec{Method: "GET", Path: paths}
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }
