// Package json provides a Normaliser for JSON chat exports.
//
// Three shapes are accepted: a top-level message list, an object with a
// "messages" list and an object with a "data" list. Field names vary between
// export tools, so each message field is looked up through a list of aliases.
package json
