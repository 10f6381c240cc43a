// Package html provides a Normaliser for HTML chat exports.
//
// Two layouts are recognised. Elements carrying data-sender and data-time
// attributes are read directly; otherwise each ".message" element is read
// from its ".sender", ".time" and ".content" children.
package html
