//go:build !agc

package codec

const agcFunction = false
