// Package biquad implements second-order IIR filter sections in Direct Form
// II Transposed, the building block of the graphic equalizer.
//
// A Section carries its coefficients and two delay slots. Coefficients can be
// swapped on a live Section without touching the delay state, which is what
// makes click-free gain changes possible while audio is running.
package biquad
