// Package render turns lineage graphs and optimized layouts into visual
// output.
//
// # Overview
//
// Two DOT views are provided:
//
//   - [FamilyDOT]: the raw succession graph of one family, entities as boxes
//     connected by succession arrows.
//   - [LayoutDOT]: the optimized lane view, chains grouped by their assigned
//     lane along a left-to-right time axis.
//
// Both produce Graphviz DOT text that [RenderSVG] rasterizes in-process.
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg).
//
//	dot := render.LayoutDOT(row.Data)
//	svg, err := render.RenderSVG(dot)
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0) // 2x scale
package render
