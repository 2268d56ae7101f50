// Package webgen compiles .webc documents into HTML, CSS and JavaScript.
//
// The pipeline consists of:
//   - [Lexer]: tokenizes .webc source into a token stream
//   - [Parser]: builds a [Document] from the token stream
//   - [Analyzer]: builds the [ReactivityGraph] of data variables
//   - [SelectStrategy]: picks a rendering [Strategy] from detected [Features]
//   - [Generator]: emits markup, stylesheet and script
//   - [Optimizer]: runs the minify, mangle, warning and analysis passes
//
// [Compile] runs every stage for one file.
package webgen
