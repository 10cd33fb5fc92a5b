package boulevard

import (
	"bytes"
	"encoding/json"
	"fmt"
	texttemplate "text/template"
)

const (
	locationsPageSize    = 20
	appointmentsPageSize = 5
)

var queryFuncs = texttemplate.FuncMap{
	"quote": quoteGraphQLString,
}

var (
	locationsQuery = texttemplate.Must(texttemplate.New("locations").Funcs(queryFuncs).Parse(
		`{ locations(first:{{ .First }}) { edges { node { id name } } } }`))

	appointmentsQuery = texttemplate.Must(texttemplate.New("appointments").Funcs(queryFuncs).Parse(
		`{ appointments(first:{{ .First }}, clientId: {{ quote .ClientID }}, locationId: {{ quote .LocationID }}) ` +
			`{ edges { node { id clientId location { id name } } } } }`))
)

type locationsVars struct {
	First int
}

type appointmentsVars struct {
	First      int
	ClientID   string
	LocationID string
}

// quoteGraphQLString renders s as a GraphQL string literal. JSON string
// escaping is a subset of what GraphQL accepts.
func quoteGraphQLString(s string) (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// renderQuery renders a query template with the given variables.
func renderQuery(tmpl *texttemplate.Template, vars any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("failed to execute %s query template: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
