// Package compositor draws a product caption panel below a main image.
//
// The output canvas is the source width by the source height plus a white
// footer band (120 px by default). The footer holds up to three centred
// lines: "<brand> <name>" in 18 px bold black, then the type and material in
// 14 px grey. Text uses the Go fonts, which cover Latin scripts only.
//
// Annotate never fails: undecodable input comes back unchanged.
package compositor
