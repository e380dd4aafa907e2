// Package utils contains decorators shared by every application built on
// weft.
package utils
