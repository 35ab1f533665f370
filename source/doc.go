// Package source acquires pipeline input text.
//
// A reference is read from a file, from standard input ("-"), from a web
// page, or from git. Failures are input acquisition errors. A missing file
// is INPUT_NOT_FOUND and blank text is EMPTY_CONTENT; any other read or
// fetch failure is FETCH_ERROR.
//
//	loader, err := source.New(source.Config{})
//	doc, err := loader.Load(ctx, "changes.diff")
//	in := pipeline.NewInput(doc.Text, doc.Source, nil)
package source
