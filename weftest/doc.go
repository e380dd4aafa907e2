/*
Package weftest provides mocks and helpers for testing weft based
extensions.
*/
package weftest
