// Package render turns a peripheral descriptor plus its register map into
// generated C++ driver source. Rendering is referentially transparent:
// identical inputs always produce byte-identical output, because the
// incremental tracker keys its cache on the output hash.
//
// The file skeleton is a closed template: a typed list of literal and
// placeholder segments validated when the template is parsed, so a missing
// or unknown substitution fails loudly instead of producing malformed output.
package render
