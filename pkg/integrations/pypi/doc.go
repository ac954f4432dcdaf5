// Package pypi checks distributions against the Python Package Index.
//
// [Client.Exists] backs the registry verification strategy: it asks the
// JSON API (https://pypi.org/pypi/<name>/json) whether a name is published
// and caches the answer, negative answers included.
//
//	client := pypi.NewClient(backend, 24*time.Hour, "")
//	ok, err := client.Exists(ctx, "requests")
package pypi
