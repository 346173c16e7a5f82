// Package query builds project-scoped queries and sends each one as a single
// JSON request to POST {server}/api/projects/{project}/query.
//
//	rows, err := query.From("vulnerabilities").
//		Select("id,title,severity").
//		Eq("status", "open").
//		Order("discovered_at", query.Descending()).
//		Limit(20).
//		Execute(ctx)
//
// A chain that mixes operations, such as Select followed by Update, fails
// with ErrMixedOperation and sends nothing.
package query
