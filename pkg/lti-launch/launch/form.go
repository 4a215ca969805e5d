// pkg/lti-launch/launch/form.go
package launch

import (
	"html/template"
	"net/http"
	"net/url"
	"sort"
)

// FormField is one hidden input of the auto-submit form. Fields render
// in slice order, so callers control parameter order.
type FormField struct {
	Name  string
	Value string
}

// The browser-mediated cross-origin POST both handlers rely on: a
// server-side redirect cannot carry a POST body, so the response is a
// hidden form submitted by a zero-delay timer, with a noscript fallback.
const formTpl = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>Working...</title></head>
<body>
<form method="post" name="hiddenform" action="{{.Action}}">
{{range .Fields}}  <input type="hidden" name="{{.Name}}" value="{{.Value}}">
{{end}}  <noscript><p>Script is disabled. Click Submit to continue.</p><button type="submit">Submit</button></noscript>
</form>
<script>window.setTimeout(function() { document.forms[0].submit(); }, 0);</script>
</body>
</html>`

var autoSubmitForm = template.Must(template.New("autosubmit").Parse(formTpl))

func writeAutoSubmitForm(w http.ResponseWriter, action string, fields []FormField) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return autoSubmitForm.Execute(w, struct {
		Action string
		Fields []FormField
	}{Action: action, Fields: fields})
}

// sortedFormFields flattens a form payload into fields with a stable
// order, keeping the first value per key as submitted.
func sortedFormFields(form url.Values) []FormField {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]FormField, 0, len(keys))
	for _, k := range keys {
		out = append(out, FormField{Name: k, Value: form.Get(k)})
	}
	return out
}
