/*
Package x contains some standard extensions.

Code inside the main directory are helpers for all extensions: the
authentication interface shared by all handlers and a pre-condition
validator for accounts supplied with a message.
Subpackages are the extensions themselves.
*/
package x
