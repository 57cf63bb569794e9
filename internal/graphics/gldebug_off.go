//go:build !gldebug

package graphics

const debugGL = false
