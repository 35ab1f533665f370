// Package structured turns free-form model output into validated records.
//
// A response is first narrowed with [Extract], which keeps the content of
// the first fenced code block (```json ... ```) or the whole response when
// there is none. The payload must decode to a JSON object, which is then
// checked against a [Schema]:
//
//	schema := structured.Fields(
//	    structured.OneOf("risk_level", "low", "medium", "high"),
//	    structured.Required("summary", structured.String),
//	)
//	rec, err := structured.Parse(resp.Content, schema)
//
// Every failure from [Parse] is a SCHEMA_VIOLATION error whose details
// carry the raw response.
package structured
