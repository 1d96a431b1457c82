// Package model provides the intermediate representation for kit datasheet
// content.
//
// A [Document] is an ordered sequence of blocks. Every reader in this module
// (DOCX, HTML) produces one, and every analysis stage (segmentation, table
// classification, field extraction) consumes one.
//
// # Blocks
//
// All content implements the [Block] interface. The concrete types are:
//
//   - [Paragraph] - a text block with a style tag, heading level and index
//   - [Table] - a 2-D grid of cell text with a reading-order position
//
// # Positions
//
// Paragraph indexes count paragraphs only. A table's Position is the number
// of paragraphs that precede it in reading order, so a table with Position 3
// sits between paragraph 2 and paragraph 3. Readers that cannot recover the
// interleaving set Position to [PositionUnknown]:
//
//	doc := model.NewDocument()
//	doc.AddParagraph(&model.Paragraph{Text: "KIT COMPONENTS", Style: model.StyleHeading, Level: 2})
//	doc.AddTable(model.NewTableFromRows([][]string{{"Description", "Quantity"}}))
package model
