//go:build gldebug

package graphics

const debugGL = true
